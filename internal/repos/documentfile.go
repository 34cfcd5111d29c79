package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/types"
)

type DocumentFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.DocumentFile) (*types.DocumentFile, error)
	GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.DocumentFile, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.DocumentFile, error)
	DeleteByTitle(ctx context.Context, tx *gorm.DB, title string) error
}

type documentFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentFileRepo(db *gorm.DB, baseLog *logger.Logger) DocumentFileRepo {
	return &documentFileRepo{db: db, log: baseLog.With("repo", "DocumentFileRepo")}
}

func (r *documentFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.DocumentFile) (*types.DocumentFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if file == nil {
		return nil, fmt.Errorf("%w: file must not be nil", errs.ErrInvalidArgument)
	}

	if err := transaction.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *documentFileRepo) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.DocumentFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.DocumentFile
	err := transaction.WithContext(ctx).
		Where("title = ?", title).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file with title %q", errs.ErrNotFound, title)
		}
		return nil, err
	}
	return &result, nil
}

func (r *documentFileRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.DocumentFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DocumentFile
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentFileRepo) DeleteByTitle(ctx context.Context, tx *gorm.DB, title string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("title = ?", title).
		Delete(&types.DocumentFile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: file with title %q", errs.ErrNotFound, title)
	}
	return nil
}

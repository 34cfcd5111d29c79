package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/types"
)

type ChartSnapshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, snapshot *types.ChartSnapshot) (*types.ChartSnapshot, error)
	GetByLabel(ctx context.Context, tx *gorm.DB, label string) (*types.ChartSnapshot, error)
	DeleteByLabel(ctx context.Context, tx *gorm.DB, label string) error
}

type chartSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChartSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ChartSnapshotRepo {
	return &chartSnapshotRepo{db: db, log: baseLog.With("repo", "ChartSnapshotRepo")}
}

func (r *chartSnapshotRepo) Create(ctx context.Context, tx *gorm.DB, snapshot *types.ChartSnapshot) (*types.ChartSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot must not be nil", errs.ErrInvalidArgument)
	}

	if err := transaction.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetByLabel returns the oldest snapshot carrying the label. Labels are not
// unique at the storage layer; lookup picks a single winner.
func (r *chartSnapshotRepo) GetByLabel(ctx context.Context, tx *gorm.DB, label string) (*types.ChartSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChartSnapshot
	if err := transaction.WithContext(ctx).
		Where("label = ?", label).
		Order("created_at asc").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: chart with label %q", errs.ErrNotFound, label)
	}
	return results[0], nil
}

func (r *chartSnapshotRepo) DeleteByLabel(ctx context.Context, tx *gorm.DB, label string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	snapshot, err := r.GetByLabel(ctx, transaction, label)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", snapshot.ID).
		Delete(&types.ChartSnapshot{}).Error
}

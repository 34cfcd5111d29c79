package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/repos"
	"github.com/orio/graphbook-backend/internal/types"
)

// ChunkResolver resolves document titles to text chunks, reporting the titles
// that did not resolve alongside the chunks of those that did.
type ChunkResolver interface {
	ResolveChunks(ctx context.Context, titles []string) (types.ChunkSearchResult, error)
}

// DocumentService stores raw document blobs and resolves them to chunks.
type DocumentService interface {
	ChunkResolver
	SaveFile(ctx context.Context, title string, originalName string, data []byte) error
	GetFile(ctx context.Context, title string) (*types.DocumentFile, error)
	RemoveFile(ctx context.Context, title string) error
	ListTitles(ctx context.Context) ([]string, error)
}

type documentService struct {
	db       *gorm.DB
	log      *logger.Logger
	fileRepo repos.DocumentFileRepo
	textProc TextProcessor
}

func NewDocumentService(db *gorm.DB, log *logger.Logger, fileRepo repos.DocumentFileRepo, textProc TextProcessor) DocumentService {
	return &documentService{
		db:       db,
		log:      log.With("service", "DocumentService"),
		fileRepo: fileRepo,
		textProc: textProc,
	}
}

// SaveFile validates the upload (filename plus %PDF- signature, nothing
// deeper) and refuses duplicates, where a duplicate is the same title with
// matching leading and trailing bytes.
func (s *documentService) SaveFile(ctx context.Context, title string, originalName string, data []byte) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", errs.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: file data must not be empty", errs.ErrInvalidArgument)
	}
	if !strings.HasSuffix(strings.ToLower(originalName), ".pdf") || !isPDF(data) {
		return fmt.Errorf("%w: file %q is not a PDF", errs.ErrInvalidArgument, originalName)
	}

	duplicate, err := s.fileAlreadyExists(ctx, title, data)
	if err != nil {
		return fmt.Errorf("check for duplicate file: %w", err)
	}
	if duplicate {
		return fmt.Errorf("%w: file with title %q is already in the database", errs.ErrAlreadyExists, title)
	}

	if _, err := s.fileRepo.Create(ctx, nil, &types.DocumentFile{Title: title, Data: data}); err != nil {
		return fmt.Errorf("save file %q: %w", title, err)
	}
	s.log.Info("File saved", "title", title, "size_bytes", len(data))
	return nil
}

func (s *documentService) GetFile(ctx context.Context, title string) (*types.DocumentFile, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", errs.ErrInvalidArgument)
	}
	return s.fileRepo.GetByTitle(ctx, nil, title)
}

func (s *documentService) RemoveFile(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", errs.ErrInvalidArgument)
	}
	if err := s.fileRepo.DeleteByTitle(ctx, nil, title); err != nil {
		return err
	}
	s.log.Info("File removed", "title", title)
	return nil
}

func (s *documentService) ListTitles(ctx context.Context) ([]string, error) {
	files, err := s.fileRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	titles := make([]string, 0, len(files))
	for _, f := range files {
		titles = append(titles, f.Title)
	}
	return titles, nil
}

// ResolveChunks looks each title up independently; a missing title lands in
// NotFound instead of failing the batch. A document that resolves but cannot
// be chunked is a real failure and aborts.
func (s *documentService) ResolveChunks(ctx context.Context, titles []string) (types.ChunkSearchResult, error) {
	result := types.ChunkSearchResult{NotFound: []string{}}
	for _, title := range titles {
		file, err := s.fileRepo.GetByTitle(ctx, nil, title)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				result.NotFound = append(result.NotFound, title)
				continue
			}
			return types.ChunkSearchResult{}, fmt.Errorf("resolve title %q: %w", title, err)
		}
		chunks, err := s.textProc.ChunkDocument(file)
		if err != nil {
			return types.ChunkSearchResult{}, fmt.Errorf("chunk document %q: %w", title, err)
		}
		result.Found = append(result.Found, chunks...)
	}
	s.log.Debug("Resolved chunks", "requested", len(titles), "not_found", len(result.NotFound), "chunks", len(result.Found))
	return result, nil
}

func (s *documentService) fileAlreadyExists(ctx context.Context, title string, data []byte) (bool, error) {
	existing, err := s.fileRepo.GetByTitle(ctx, nil, title)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(headBytes(data), headBytes(existing.Data)) &&
		bytes.Equal(tailBytes(data), tailBytes(existing.Data)), nil
}

func isPDF(data []byte) bool {
	// PDF starts with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

func headBytes(b []byte) []byte {
	if len(b) > 100 {
		return b[:100]
	}
	return b
}

func tailBytes(b []byte) []byte {
	if len(b) > 100 {
		return b[len(b)-100:]
	}
	return b
}

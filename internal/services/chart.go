package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/repos"
	"github.com/orio/graphbook-backend/internal/types"
)

// ChartBuildResult is the outcome of one chart aggregation. NotFound lists
// the document titles that failed to resolve; FailedConcepts maps a concept
// to the error that aborted its scoring pass. Either may be non-empty on an
// otherwise successful build.
type ChartBuildResult struct {
	Matrix         types.ChartMatrix
	NotFound       []string
	FailedConcepts map[string]string
}

// ChartService assembles concept x document score matrices and persists them
// as labeled snapshots.
type ChartService interface {
	BuildChart(ctx context.Context, concepts []string, documentTitles []string, label string) (ChartBuildResult, error)
	SaveChart(ctx context.Context, matrix types.ChartMatrix) error
	GetChart(ctx context.Context, label string) (types.ChartMatrix, error)
	RemoveChart(ctx context.Context, label string) error
}

type chartService struct {
	db        *gorm.DB
	log       *logger.Logger
	scorer    SimilarityScorer
	resolver  ChunkResolver
	chartRepo repos.ChartSnapshotRepo
}

func NewChartService(db *gorm.DB, log *logger.Logger, scorer SimilarityScorer, resolver ChunkResolver, chartRepo repos.ChartSnapshotRepo) ChartService {
	return &chartService{
		db:        db,
		log:       log.With("service", "ChartService"),
		scorer:    scorer,
		resolver:  resolver,
		chartRepo: chartRepo,
	}
}

// BuildChart resolves each document title independently, then scores the full
// resolved chunk set once per concept, in input order. Unresolved titles are
// reported, not fatal; only a fully unresolved request fails, with
// NoDocumentsFoundError carrying the requested titles. A concept whose
// scoring pass aborts entirely is recorded in FailedConcepts and does not
// block the remaining concepts.
func (s *chartService) BuildChart(ctx context.Context, concepts []string, documentTitles []string, label string) (ChartBuildResult, error) {
	if len(concepts) == 0 {
		return ChartBuildResult{}, fmt.Errorf("%w: concepts must not be empty", errs.ErrInvalidArgument)
	}
	if len(documentTitles) == 0 {
		return ChartBuildResult{}, fmt.Errorf("%w: document titles must not be empty", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(label) == "" {
		return ChartBuildResult{}, fmt.Errorf("%w: label must not be empty", errs.ErrInvalidArgument)
	}
	s.log.Info("Building chart", "label", label, "concepts", len(concepts), "documents", len(documentTitles))

	search, err := s.resolver.ResolveChunks(ctx, documentTitles)
	if err != nil {
		return ChartBuildResult{}, fmt.Errorf("resolve documents: %w", err)
	}
	if len(search.Found) == 0 {
		return ChartBuildResult{}, &errs.NoDocumentsFoundError{Requested: documentTitles}
	}

	result := ChartBuildResult{
		Matrix: types.ChartMatrix{
			Label: label,
			Data:  make(map[string][]types.SimilarityRecord, len(concepts)),
		},
		NotFound:       search.NotFound,
		FailedConcepts: map[string]string{},
	}

	for _, concept := range concepts {
		records, err := s.scorer.CalculateScores(ctx, search.Found, concept)
		if err != nil {
			s.log.Error("Scoring failed for concept", "label", label, "concept", concept, "error", err)
			result.FailedConcepts[concept] = err.Error()
			continue
		}
		result.Matrix.Data[concept] = records
	}

	s.log.Info("Chart build complete", "label", label,
		"not_found", len(result.NotFound), "failed_concepts", len(result.FailedConcepts))
	return result, nil
}

func (s *chartService) SaveChart(ctx context.Context, matrix types.ChartMatrix) error {
	blob, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("serialize chart %q: %w", matrix.Label, err)
	}
	if _, err := s.chartRepo.Create(ctx, nil, &types.ChartSnapshot{Label: matrix.Label, Data: blob}); err != nil {
		return fmt.Errorf("persist chart %q: %w", matrix.Label, err)
	}
	s.log.Info("Chart saved", "label", matrix.Label)
	return nil
}

func (s *chartService) GetChart(ctx context.Context, label string) (types.ChartMatrix, error) {
	if strings.TrimSpace(label) == "" {
		return types.ChartMatrix{}, fmt.Errorf("%w: label must not be empty", errs.ErrInvalidArgument)
	}
	snapshot, err := s.chartRepo.GetByLabel(ctx, nil, label)
	if err != nil {
		return types.ChartMatrix{}, err
	}
	var matrix types.ChartMatrix
	if err := json.Unmarshal(snapshot.Data, &matrix); err != nil {
		return types.ChartMatrix{}, fmt.Errorf("decode chart %q: %w", label, err)
	}
	return matrix, nil
}

func (s *chartService) RemoveChart(ctx context.Context, label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: label must not be empty", errs.ErrInvalidArgument)
	}
	return s.chartRepo.DeleteByLabel(ctx, nil, label)
}

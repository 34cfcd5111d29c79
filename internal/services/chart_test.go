package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/types"
)

type fakeResolver struct {
	result types.ChunkSearchResult
	err    error
}

func (r *fakeResolver) ResolveChunks(ctx context.Context, titles []string) (types.ChunkSearchResult, error) {
	if r.err != nil {
		return types.ChunkSearchResult{}, r.err
	}
	return r.result, nil
}

type fakeScorer struct {
	score func(chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error)
}

func (s *fakeScorer) CalculateScores(ctx context.Context, chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error) {
	return s.score(chunks, concept)
}

type fakeChartRepo struct {
	snapshots map[string]*types.ChartSnapshot
}

func newFakeChartRepo() *fakeChartRepo {
	return &fakeChartRepo{snapshots: map[string]*types.ChartSnapshot{}}
}

func (r *fakeChartRepo) Create(ctx context.Context, tx *gorm.DB, snapshot *types.ChartSnapshot) (*types.ChartSnapshot, error) {
	r.snapshots[snapshot.Label] = snapshot
	return snapshot, nil
}

func (r *fakeChartRepo) GetByLabel(ctx context.Context, tx *gorm.DB, label string) (*types.ChartSnapshot, error) {
	snapshot, ok := r.snapshots[label]
	if !ok {
		return nil, fmt.Errorf("chart snapshot %q: %w", label, errs.ErrNotFound)
	}
	return snapshot, nil
}

func (r *fakeChartRepo) DeleteByLabel(ctx context.Context, tx *gorm.DB, label string) error {
	if _, ok := r.snapshots[label]; !ok {
		return fmt.Errorf("chart snapshot %q: %w", label, errs.ErrNotFound)
	}
	delete(r.snapshots, label)
	return nil
}

func scoreAll(value float64) func(chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error) {
	return func(chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error) {
		records := make([]types.SimilarityRecord, 0, len(chunks))
		for _, chunk := range chunks {
			records = append(records, types.SimilarityRecord{Chunk: chunk, Concept: concept, Score: value})
		}
		return records, nil
	}
}

func TestBuildChartPartialResolution(t *testing.T) {
	resolver := &fakeResolver{result: types.ChunkSearchResult{
		Found: []types.TextChunk{
			{Text: "page one", SourceLabel: "Physics", ChunkLabel: "Physics1"},
			{Text: "page two", SourceLabel: "Physics", ChunkLabel: "Physics2"},
			{Text: "page three", SourceLabel: "Physics", ChunkLabel: "Physics3"},
		},
		NotFound: []string{"Missing"},
	}}
	svc := NewChartService(nil, newTestLogger(t), &fakeScorer{score: scoreAll(42)}, resolver, newFakeChartRepo())

	result, err := svc.BuildChart(context.Background(), []string{"gravity", "momentum"}, []string{"Physics", "Missing"}, "semester1")
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if result.Matrix.Label != "semester1" {
		t.Errorf("label = %q", result.Matrix.Label)
	}
	if len(result.Matrix.Data) != 2 {
		t.Fatalf("expected 2 concept rows, got %d", len(result.Matrix.Data))
	}
	for concept, records := range result.Matrix.Data {
		if len(records) != 3 {
			t.Errorf("concept %q: expected 3 records, got %d", concept, len(records))
		}
	}
	if len(result.NotFound) != 1 || result.NotFound[0] != "Missing" {
		t.Errorf("unexpected NotFound: %v", result.NotFound)
	}
	if len(result.FailedConcepts) != 0 {
		t.Errorf("unexpected failed concepts: %v", result.FailedConcepts)
	}
}

func TestBuildChartAllDocumentsMissing(t *testing.T) {
	resolver := &fakeResolver{result: types.ChunkSearchResult{NotFound: []string{"A", "B"}}}
	svc := NewChartService(nil, newTestLogger(t), &fakeScorer{score: scoreAll(1)}, resolver, newFakeChartRepo())

	_, err := svc.BuildChart(context.Background(), []string{"gravity"}, []string{"A", "B"}, "empty")
	var notFound *errs.NoDocumentsFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want NoDocumentsFoundError", err)
	}
	if len(notFound.Requested) != 2 {
		t.Errorf("Requested = %v", notFound.Requested)
	}
}

func TestBuildChartIsolatesConceptFailures(t *testing.T) {
	resolver := &fakeResolver{result: types.ChunkSearchResult{
		Found: []types.TextChunk{{Text: "page", SourceLabel: "Physics", ChunkLabel: "Physics1"}},
	}}
	scorer := &fakeScorer{score: func(chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error) {
		if concept == "momentum" {
			return nil, errors.New("oracle unavailable")
		}
		return scoreAll(7)(chunks, concept)
	}}
	svc := NewChartService(nil, newTestLogger(t), scorer, resolver, newFakeChartRepo())

	result, err := svc.BuildChart(context.Background(), []string{"gravity", "momentum", "energy"}, []string{"Physics"}, "s1")
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if len(result.Matrix.Data) != 2 {
		t.Errorf("expected 2 scored concepts, got %d", len(result.Matrix.Data))
	}
	if _, ok := result.Matrix.Data["momentum"]; ok {
		t.Error("failed concept must not appear in the matrix")
	}
	if msg, ok := result.FailedConcepts["momentum"]; !ok || msg == "" {
		t.Errorf("failed concept not recorded: %v", result.FailedConcepts)
	}
}

func TestBuildChartInputValidation(t *testing.T) {
	svc := NewChartService(nil, newTestLogger(t), &fakeScorer{score: scoreAll(1)}, &fakeResolver{}, newFakeChartRepo())
	ctx := context.Background()

	if _, err := svc.BuildChart(ctx, nil, []string{"A"}, "l"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("empty concepts: got %v", err)
	}
	if _, err := svc.BuildChart(ctx, []string{"c"}, nil, "l"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("empty documents: got %v", err)
	}
	if _, err := svc.BuildChart(ctx, []string{"c"}, []string{"A"}, "  "); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("blank label: got %v", err)
	}
}

func TestChartSaveGetRemoveRoundTrip(t *testing.T) {
	repo := newFakeChartRepo()
	svc := NewChartService(nil, newTestLogger(t), &fakeScorer{score: scoreAll(1)}, &fakeResolver{}, repo)
	ctx := context.Background()

	matrix := types.ChartMatrix{
		Label: "spring",
		Data: map[string][]types.SimilarityRecord{
			"gravity": {{Chunk: types.TextChunk{Text: "t", SourceLabel: "Physics", ChunkLabel: "Physics1"}, Concept: "gravity", Score: 88.5}},
		},
	}
	if err := svc.SaveChart(ctx, matrix); err != nil {
		t.Fatalf("SaveChart: %v", err)
	}

	got, err := svc.GetChart(ctx, "spring")
	if err != nil {
		t.Fatalf("GetChart: %v", err)
	}
	if got.Label != "spring" {
		t.Errorf("label = %q", got.Label)
	}
	records := got.Data["gravity"]
	if len(records) != 1 || records[0].Score != 88.5 || records[0].Chunk.ChunkLabel != "Physics1" {
		t.Errorf("round-tripped records mismatch: %+v", records)
	}

	if err := svc.RemoveChart(ctx, "spring"); err != nil {
		t.Fatalf("RemoveChart: %v", err)
	}
	if _, err := svc.GetChart(ctx, "spring"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("after removal: got %v, want ErrNotFound", err)
	}
}

func TestGetChartMissing(t *testing.T) {
	svc := NewChartService(nil, newTestLogger(t), &fakeScorer{score: scoreAll(1)}, &fakeResolver{}, newFakeChartRepo())
	if _, err := svc.GetChart(context.Background(), "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

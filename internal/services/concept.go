package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/types"
)

// GraphStore is the slice of the graph layer the concept service drives.
// Satisfied by *graph.Store.
type GraphStore interface {
	Ingest(ctx context.Context, chunks []types.TextChunk, label string) error
	RemoveTexts(ctx context.Context, label string) error
	ListConcepts(ctx context.Context) ([]types.Concept, error)
	UpsertConcept(ctx context.Context, records []types.SimilarityRecord, concept string) error
	RemoveConcept(ctx context.Context, concept string) (bool, error)
}

// ConceptService connects stored documents to the concept graph: it resolves
// titles to chunks, scores them, and pushes the results into the store.
type ConceptService interface {
	IngestTexts(ctx context.Context, titles []string, label string) ([]string, error)
	RemoveTexts(ctx context.Context, label string) error
	AddConcept(ctx context.Context, concept string, titles []string) ([]types.SimilarityRecord, []string, error)
	RemoveConcept(ctx context.Context, concept string) error
	ListConcepts(ctx context.Context) ([]types.Concept, error)
}

type conceptService struct {
	log      *logger.Logger
	store    GraphStore
	scorer   SimilarityScorer
	resolver ChunkResolver
}

func NewConceptService(log *logger.Logger, store GraphStore, scorer SimilarityScorer, resolver ChunkResolver) ConceptService {
	return &conceptService{
		log:      log.With("service", "ConceptService"),
		store:    store,
		scorer:   scorer,
		resolver: resolver,
	}
}

// IngestTexts chunks the named documents and ingests them under label.
// Returns the titles that did not resolve; the ingest proceeds with whatever
// did, and only a fully unresolved request fails.
func (s *conceptService) IngestTexts(ctx context.Context, titles []string, label string) ([]string, error) {
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: titles must not be empty", errs.ErrInvalidArgument)
	}
	search, err := s.resolver.ResolveChunks(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}
	if len(search.Found) == 0 {
		return nil, &errs.NoDocumentsFoundError{Requested: titles}
	}
	if err := s.store.Ingest(ctx, search.Found, label); err != nil {
		return nil, err
	}
	s.log.Info("Texts ingested", "label", label, "chunks", len(search.Found), "not_found", len(search.NotFound))
	return search.NotFound, nil
}

func (s *conceptService) RemoveTexts(ctx context.Context, label string) error {
	return s.store.RemoveTexts(ctx, label)
}

// AddConcept scores every resolved chunk against the concept and upserts the
// results. Chunks whose oracle response failed to parse are simply absent
// from the returned records; if nothing survives scoring, nothing is
// upserted and the records come back empty.
func (s *conceptService) AddConcept(ctx context.Context, concept string, titles []string) ([]types.SimilarityRecord, []string, error) {
	if strings.TrimSpace(concept) == "" {
		return nil, nil, fmt.Errorf("%w: concept must not be empty", errs.ErrInvalidArgument)
	}
	if len(titles) == 0 {
		return nil, nil, fmt.Errorf("%w: titles must not be empty", errs.ErrInvalidArgument)
	}
	search, err := s.resolver.ResolveChunks(ctx, titles)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve documents: %w", err)
	}
	if len(search.Found) == 0 {
		return nil, nil, &errs.NoDocumentsFoundError{Requested: titles}
	}

	records, err := s.scorer.CalculateScores(ctx, search.Found, concept)
	if err != nil {
		return nil, nil, err
	}
	if len(records) > 0 {
		if err := s.store.UpsertConcept(ctx, records, concept); err != nil {
			return nil, nil, err
		}
	}
	s.log.Info("Concept added", "concept", concept, "records", len(records), "not_found", len(search.NotFound))
	return records, search.NotFound, nil
}

func (s *conceptService) RemoveConcept(ctx context.Context, concept string) error {
	removed, err := s.store.RemoveConcept(ctx, concept)
	if err != nil {
		return err
	}
	if removed {
		s.log.Info("Concept removed", "concept", concept)
	}
	return nil
}

func (s *conceptService) ListConcepts(ctx context.Context) ([]types.Concept, error) {
	return s.store.ListConcepts(ctx)
}

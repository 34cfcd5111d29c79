package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/platform/ollama"
	"github.com/orio/graphbook-backend/internal/types"
)

// SimilarityScorer scores a batch of chunks against one concept. A chunk
// whose oracle response cannot be parsed is logged and skipped, so the output
// may be shorter than the input; its order always matches the input order.
type SimilarityScorer interface {
	CalculateScores(ctx context.Context, chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error)
}

type similarityScorer struct {
	log     *logger.Logger
	oracle  ollama.Client
	workers int
}

// NewSimilarityScorer builds a scorer over the given oracle. workers <= 1
// keeps the original strictly sequential behavior; higher values fan the
// oracle calls out over a bounded pool while preserving output order and
// per-item failure isolation.
func NewSimilarityScorer(log *logger.Logger, oracle ollama.Client, workers int) SimilarityScorer {
	if workers < 1 {
		workers = 1
	}
	return &similarityScorer{
		log:     log.With("service", "SimilarityScorer"),
		oracle:  oracle,
		workers: workers,
	}
}

func (s *similarityScorer) CalculateScores(ctx context.Context, chunks []types.TextChunk, concept string) ([]types.SimilarityRecord, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunks must not be empty", errs.ErrInvalidArgument)
	}
	if concept == "" {
		return nil, fmt.Errorf("%w: concept must not be empty", errs.ErrInvalidArgument)
	}
	s.log.Info("Calculating similarity scores", "concept", concept, "chunk_count", len(chunks))

	// Nothing is checkpointed mid-batch; a failure loses every score computed
	// so far for this concept and the caller decides what to persist.
	slots := make([]*types.SimilarityRecord, len(chunks))

	if s.workers == 1 {
		for i, chunk := range chunks {
			rec, err := s.scoreOne(ctx, chunk, concept)
			if err != nil {
				return nil, err
			}
			slots[i] = rec
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i, chunk := range chunks {
			g.Go(func() error {
				rec, err := s.scoreOne(gctx, chunk, concept)
				if err != nil {
					return err
				}
				slots[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	records := make([]types.SimilarityRecord, 0, len(chunks))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	s.log.Info("Similarity scoring complete", "concept", concept, "scored", len(records), "skipped", len(chunks)-len(records))
	return records, nil
}

// scoreOne returns (nil, nil) for a chunk whose response failed to parse.
func (s *similarityScorer) scoreOne(ctx context.Context, chunk types.TextChunk, concept string) (*types.SimilarityRecord, error) {
	result, err := s.oracle.Score(ctx, chunk.Text, concept)
	if err != nil {
		var parseErr *errs.ParseError
		if errors.As(err, &parseErr) {
			s.log.Warn("Skipping chunk with unparseable oracle response",
				"concept", concept, "chunk_label", chunk.ChunkLabel, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("score chunk %q: %w", chunk.ChunkLabel, err)
	}
	return &types.SimilarityRecord{Chunk: chunk, Concept: concept, Score: result.Score}, nil
}

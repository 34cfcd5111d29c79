package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/platform/ollama"
	"github.com/orio/graphbook-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

type fakeOracle struct {
	mu    sync.Mutex
	calls []string
	score func(text, concept string) (ollama.ScoreResult, error)
}

func (f *fakeOracle) Score(ctx context.Context, text, concept string) (ollama.ScoreResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	return f.score(text, concept)
}

func testChunks(texts ...string) []types.TextChunk {
	chunks := make([]types.TextChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, types.TextChunk{
			Text:        text,
			SourceLabel: "doc",
			ChunkLabel:  fmt.Sprintf("doc%d", i+1),
		})
	}
	return chunks
}

func TestCalculateScoresSequential(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		return ollama.ScoreResult{Analysis: "ok", Score: float64(len(text))}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 1)

	chunks := testChunks("a", "bb", "ccc")
	records, err := scorer.CalculateScores(context.Background(), chunks, "gravity")
	if err != nil {
		t.Fatalf("CalculateScores: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Chunk.ChunkLabel != chunks[i].ChunkLabel {
			t.Errorf("record %d out of order: got %q want %q", i, rec.Chunk.ChunkLabel, chunks[i].ChunkLabel)
		}
		if rec.Concept != "gravity" {
			t.Errorf("record %d concept = %q", i, rec.Concept)
		}
		if rec.Score != float64(len(chunks[i].Text)) {
			t.Errorf("record %d score = %v", i, rec.Score)
		}
	}
	if len(oracle.calls) != 3 {
		t.Errorf("expected 3 oracle calls, got %d", len(oracle.calls))
	}
}

func TestCalculateScoresSkipsUnparseableResponses(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		if text == "bad" {
			return ollama.ScoreResult{}, &errs.ParseError{Raw: "not json", Err: errors.New("invalid character")}
		}
		return ollama.ScoreResult{Score: 50}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 1)

	records, err := scorer.CalculateScores(context.Background(), testChunks("good", "bad", "good"), "gravity")
	if err != nil {
		t.Fatalf("CalculateScores: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the bad chunk skipped, got %d records", len(records))
	}
	if records[0].Chunk.ChunkLabel != "doc1" || records[1].Chunk.ChunkLabel != "doc3" {
		t.Errorf("unexpected surviving chunks: %q, %q", records[0].Chunk.ChunkLabel, records[1].Chunk.ChunkLabel)
	}
}

func TestCalculateScoresAbortsOnOracleFailure(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		if text == "boom" {
			return ollama.ScoreResult{}, errors.New("connection refused")
		}
		return ollama.ScoreResult{Score: 10}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 1)

	_, err := scorer.CalculateScores(context.Background(), testChunks("ok", "boom", "never"), "gravity")
	if err == nil {
		t.Fatal("expected an error for a failing oracle call")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should wrap the oracle failure: %v", err)
	}
}

func TestCalculateScoresInputValidation(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		return ollama.ScoreResult{}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 1)

	if _, err := scorer.CalculateScores(context.Background(), nil, "gravity"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("empty chunks: got %v, want ErrInvalidArgument", err)
	}
	if _, err := scorer.CalculateScores(context.Background(), testChunks("text"), ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("empty concept: got %v, want ErrInvalidArgument", err)
	}
	if len(oracle.calls) != 0 {
		t.Errorf("oracle should not be called on invalid input, saw %d calls", len(oracle.calls))
	}
}

func TestCalculateScoresWorkerPoolPreservesOrder(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		return ollama.ScoreResult{Score: float64(len(text))}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 4)

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	chunks := testChunks(texts...)

	records, err := scorer.CalculateScores(context.Background(), chunks, "gravity")
	if err != nil {
		t.Fatalf("CalculateScores: %v", err)
	}
	if len(records) != len(chunks) {
		t.Fatalf("expected %d records, got %d", len(chunks), len(records))
	}
	for i, rec := range records {
		if rec.Chunk.ChunkLabel != chunks[i].ChunkLabel {
			t.Fatalf("record %d out of order: got %q want %q", i, rec.Chunk.ChunkLabel, chunks[i].ChunkLabel)
		}
	}
}

func TestCalculateScoresWorkerPoolSkipsParseFailures(t *testing.T) {
	oracle := &fakeOracle{score: func(text, concept string) (ollama.ScoreResult, error) {
		if text == "bad" {
			return ollama.ScoreResult{}, &errs.ParseError{Raw: "{", Err: errors.New("unexpected EOF")}
		}
		return ollama.ScoreResult{Score: 1}, nil
	}}
	scorer := NewSimilarityScorer(newTestLogger(t), oracle, 3)

	records, err := scorer.CalculateScores(context.Background(), testChunks("a", "bad", "c", "bad", "e"), "gravity")
	if err != nil {
		t.Fatalf("CalculateScores: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 surviving records, got %d", len(records))
	}
}

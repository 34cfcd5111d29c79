package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/types"
)

func newTestDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormDB.AutoMigrate(&types.DocumentFile{}, &types.ChartSnapshot{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return gormDB, log
}

func TestDocumentFileRepoRoundTrip(t *testing.T) {
	gormDB, log := newTestDB(t)
	repo := NewDocumentFileRepo(gormDB, log)
	ctx := context.Background()

	created, err := repo.Create(ctx, nil, &types.DocumentFile{
		Title: "physics-notes",
		Data:  []byte("%PDF-1.4 fake"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByTitle(ctx, nil, "physics-notes")
	if err != nil {
		t.Fatalf("get by title: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("id mismatch: want=%s got=%s", created.ID, got.ID)
	}
	if string(got.Data) != "%PDF-1.4 fake" {
		t.Fatalf("data mismatch: got=%q", got.Data)
	}

	all, err := repo.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("get all: want=1 got=%d", len(all))
	}

	if err := repo.DeleteByTitle(ctx, nil, "physics-notes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByTitle(ctx, nil, "physics-notes"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete: want ErrNotFound, got=%v", err)
	}
}

func TestDocumentFileRepoMissingTitle(t *testing.T) {
	gormDB, log := newTestDB(t)
	repo := NewDocumentFileRepo(gormDB, log)
	ctx := context.Background()

	if _, err := repo.GetByTitle(ctx, nil, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get missing: want ErrNotFound, got=%v", err)
	}
	if err := repo.DeleteByTitle(ctx, nil, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete missing: want ErrNotFound, got=%v", err)
	}
}

func TestChartSnapshotRepoRoundTrip(t *testing.T) {
	gormDB, log := newTestDB(t)
	repo := NewChartSnapshotRepo(gormDB, log)
	ctx := context.Background()

	matrix := types.ChartMatrix{
		Label: "q3-review",
		Data: map[string][]types.SimilarityRecord{
			"gravity": {{
				Chunk:   types.TextChunk{Text: "page text", SourceLabel: "bookA", ChunkLabel: "bookA1"},
				Concept: "gravity",
				Score:   61.5,
			}},
		},
	}
	blob, err := json.Marshal(matrix)
	if err != nil {
		t.Fatalf("marshal matrix: %v", err)
	}

	if _, err := repo.Create(ctx, nil, &types.ChartSnapshot{Label: "q3-review", Data: blob}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByLabel(ctx, nil, "q3-review")
	if err != nil {
		t.Fatalf("get by label: %v", err)
	}

	var roundTripped types.ChartMatrix
	if err := json.Unmarshal(got.Data, &roundTripped); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(roundTripped.Data["gravity"]) != 1 {
		t.Fatalf("records for gravity: want=1 got=%d", len(roundTripped.Data["gravity"]))
	}
	if roundTripped.Data["gravity"][0].Score != 61.5 {
		t.Fatalf("score: want=61.5 got=%v", roundTripped.Data["gravity"][0].Score)
	}

	if err := repo.DeleteByLabel(ctx, nil, "q3-review"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByLabel(ctx, nil, "q3-review"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete: want ErrNotFound, got=%v", err)
	}
}

func TestChartSnapshotRepoMissingLabel(t *testing.T) {
	gormDB, log := newTestDB(t)
	repo := NewChartSnapshotRepo(gormDB, log)

	if _, err := repo.GetByLabel(context.Background(), nil, "absent"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get missing: want ErrNotFound, got=%v", err)
	}
	if err := repo.DeleteByLabel(context.Background(), nil, "absent"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete missing: want ErrNotFound, got=%v", err)
	}
}

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TextChunk is one page-scoped unit of extracted document text. ChunkLabel is
// derived from the source title plus the page index and is unique within a
// source; SourceLabel groups all chunks extracted from the same document.
type TextChunk struct {
	Text        string `json:"text"`
	SourceLabel string `json:"sourceLabel"`
	ChunkLabel  string `json:"chunkLabel"`
}

// SimilarityRecord is the scored pairing of one chunk with one concept.
// Scores are expected in [0.0, 100.0] but the oracle is untrusted; values
// outside the range are passed through unmodified.
type SimilarityRecord struct {
	Chunk   TextChunk `json:"-"`
	Concept string    `json:"concept"`
	Score   float64   `json:"score"`
}

// Records serialize flat, by chunk label, without the page text. Persisted
// charts and API responses carry the labels only; the text stays in the
// document store.
type similarityRecordJSON struct {
	ChunkLabel  string  `json:"chunkLabel"`
	SourceLabel string  `json:"sourceLabel"`
	Concept     string  `json:"concept"`
	Score       float64 `json:"score"`
}

func (r SimilarityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(similarityRecordJSON{
		ChunkLabel:  r.Chunk.ChunkLabel,
		SourceLabel: r.Chunk.SourceLabel,
		Concept:     r.Concept,
		Score:       r.Score,
	})
}

func (r *SimilarityRecord) UnmarshalJSON(b []byte) error {
	var raw similarityRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Chunk = TextChunk{SourceLabel: raw.SourceLabel, ChunkLabel: raw.ChunkLabel}
	r.Concept = raw.Concept
	r.Score = raw.Score
	return nil
}

// Concept is one graph concept node together with the chunk labels of the
// text nodes it has scored edges to.
type Concept struct {
	Name             string   `json:"name"`
	AssociatedChunks []string `json:"associatedChunks"`
}

// ChartMatrix is the concept x document score table produced by one
// chart-build request. Data maps concept name to the records produced for
// that concept, in chunk input order.
type ChartMatrix struct {
	Label string                        `json:"label"`
	Data  map[string][]SimilarityRecord `json:"data"`
}

// ChunkSearchResult is the outcome of resolving a batch of document titles to
// chunks: Found holds the chunks of every resolved title, NotFound the titles
// that did not resolve.
type ChunkSearchResult struct {
	Found    []TextChunk
	NotFound []string
}

// DocumentFile is a raw uploaded document, stored as a blob keyed by title.
type DocumentFile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"uniqueIndex;not null" json:"title"`
	Data      []byte    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DocumentFile) TableName() string { return "document_file" }

func (f *DocumentFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ChartSnapshot is a persisted ChartMatrix, serialized as an opaque JSON
// blob. Label uniqueness is enforced at the lookup layer, not here.
type ChartSnapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string         `gorm:"index;not null" json:"label"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ChartSnapshot) TableName() string { return "chart_snapshot" }

func (s *ChartSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

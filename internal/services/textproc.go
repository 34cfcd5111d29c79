package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/types"
)

// Pages shorter than this carry too little signal to score and are dropped.
const minChunkLength = 200

// TextProcessor splits a stored document into page-level text chunks.
type TextProcessor interface {
	ChunkDocument(file *types.DocumentFile) ([]types.TextChunk, error)
}

type textProcessor struct {
	log *logger.Logger
}

func NewTextProcessor(log *logger.Logger) TextProcessor {
	return &textProcessor{log: log.With("service", "TextProcessor")}
}

func (p *textProcessor) ChunkDocument(file *types.DocumentFile) ([]types.TextChunk, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: file must not be nil", errs.ErrInvalidArgument)
	}
	p.log.Debug("Extracting text", "title", file.Title, "size_bytes", len(file.Data))

	reader, err := pdf.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", file.Title, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %q: %w", pageNum, file.Title, err)
		}
		pages = append(pages, text)
	}

	chunks := buildChunks(pages, file.Title)
	p.log.Debug("Text extraction complete", "title", file.Title, "pages", len(pages), "chunks", len(chunks))
	return chunks, nil
}

// buildChunks turns per-page text into labeled chunks, dropping pages below
// the minimum length. Chunk labels are the source title plus the 1-based
// page number, matching the join key the graph store ingests under.
func buildChunks(pages []string, title string) []types.TextChunk {
	chunks := make([]types.TextChunk, 0, len(pages))
	for i, pageText := range pages {
		text := strings.TrimSpace(pageText)
		if len(text) < minChunkLength {
			continue
		}
		chunks = append(chunks, types.TextChunk{
			Text:        text,
			SourceLabel: title,
			ChunkLabel:  title + strconv.Itoa(i+1),
		})
	}
	return chunks
}

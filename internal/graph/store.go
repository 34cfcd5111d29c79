package graph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/platform/neo4jdb"
	"github.com/orio/graphbook-backend/internal/types"
)

// QueryRunner is the slice of the Neo4j client the store needs. Satisfied by
// *neo4jdb.Client; faked in tests.
type QueryRunner interface {
	ReadQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	WriteQuery(ctx context.Context, cypher string, params map[string]any) (neo4jdb.Counters, error)
}

// MergeStrategy selects the identity key used when merging text nodes during
// concept upserts. Merging by content collapses chunks with identical text
// into one node even across sources; that is the documented default policy,
// not an accident. Merging by label keeps one node per chunk label instead.
type MergeStrategy string

const (
	MergeByContent MergeStrategy = "content"
	MergeByLabel   MergeStrategy = "label"
)

const (
	ingestQueryTemplate      = "UNWIND $chunks AS chunk CREATE (n:`%s` {content: chunk.content, name: chunk.name})"
	existsQueryTemplate      = "MATCH (n:`%s`) RETURN n LIMIT 1"
	removeTextsQueryTemplate = "MATCH (n:`%s`) DELETE n"

	listConceptsQuery = "MATCH (c:Concept)-[r:SIMILARITY]->(t:TextNode) " +
		"RETURN c.name AS name, collect(t.name) AS associatedChunks"

	upsertConceptByContentQuery = "MERGE (c:Concept {name: $concept}) " +
		"WITH c " +
		"UNWIND $records AS rec " +
		"MERGE (n:TextNode {content: rec.content}) " +
		"ON CREATE SET n.name = rec.name " +
		"MERGE (c)-[r:SIMILARITY]->(n) " +
		"ON CREATE SET r.score = rec.score " +
		"ON MATCH SET r.score = rec.score"

	upsertConceptByLabelQuery = "MERGE (c:Concept {name: $concept}) " +
		"WITH c " +
		"UNWIND $records AS rec " +
		"MERGE (n:TextNode {name: rec.name}) " +
		"ON CREATE SET n.content = rec.content " +
		"MERGE (c)-[r:SIMILARITY]->(n) " +
		"ON CREATE SET r.score = rec.score " +
		"ON MATCH SET r.score = rec.score"

	countConceptsQuery = "MATCH (c:Concept) RETURN count(c) AS count"
	deleteConceptQuery = "MATCH (c:Concept {name: $concept}) DETACH DELETE c"
)

// Labels are interpolated into Cypher as node labels, so only a conservative
// identifier shape is accepted.
var labelPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Store maintains the property graph of text nodes, concept nodes, and
// scored SIMILARITY edges between them.
type Store struct {
	db    QueryRunner
	log   *logger.Logger
	merge MergeStrategy
}

func NewStore(db QueryRunner, log *logger.Logger, merge MergeStrategy) *Store {
	if merge != MergeByLabel {
		merge = MergeByContent
	}
	return &Store{
		db:    db,
		log:   log.With("store", "ConceptGraph"),
		merge: merge,
	}
}

// Ingest creates one text node per chunk under the given label. It refuses
// with ErrAlreadyExists if any node already carries the label; a failure
// partway through the write surfaces as IngestFailedError and leaves any
// already-created nodes in place.
func (s *Store) Ingest(ctx context.Context, chunks []types.TextChunk, label string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: chunks must not be empty", errs.ErrInvalidArgument)
	}
	if err := validateLabel(label); err != nil {
		return err
	}
	s.log.Info("Ingesting text chunks", "label", label, "chunk_count", len(chunks))

	exists, err := s.existsLabel(ctx, label)
	if err != nil {
		return fmt.Errorf("check label existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: text with label %q is already in the database", errs.ErrAlreadyExists, label)
	}

	params := make([]map[string]any, 0, len(chunks))
	for _, chunk := range chunks {
		params = append(params, map[string]any{
			"content": chunk.Text,
			"name":    chunk.ChunkLabel,
		})
	}

	cypher := fmt.Sprintf(ingestQueryTemplate, label)
	if _, err := s.db.WriteQuery(ctx, cypher, map[string]any{"chunks": params}); err != nil {
		return &errs.IngestFailedError{Label: label, Err: err}
	}
	s.log.Info("Ingest complete", "label", label)
	return nil
}

// RemoveTexts deletes every node carrying the label and verifies the
// operation through the summary's deleted-node count. Zero deletions means
// the label was absent.
func (s *Store) RemoveTexts(ctx context.Context, label string) error {
	if err := validateLabel(label); err != nil {
		return err
	}

	counters, err := s.db.WriteQuery(ctx, fmt.Sprintf(removeTextsQueryTemplate, label), nil)
	if err != nil {
		return fmt.Errorf("remove texts for label %q: %w", label, err)
	}
	s.log.Info("Removed text nodes", "label", label, "deleted", counters.NodesDeleted)

	if counters.NodesDeleted == 0 {
		return fmt.Errorf("%w: no nodes found with label %q", errs.ErrNotFound, label)
	}
	return nil
}

// ListConcepts returns one entry per concept with the names of its scored
// text nodes. Every call re-queries the backend; nothing is cached.
func (s *Store) ListConcepts(ctx context.Context) ([]types.Concept, error) {
	rows, err := s.db.ReadQuery(ctx, listConceptsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}

	concepts := make([]types.Concept, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		var chunks []string
		if rawList, ok := row["associatedChunks"].([]any); ok {
			chunks = make([]string, 0, len(rawList))
			for _, v := range rawList {
				if s, ok := v.(string); ok {
					chunks = append(chunks, s)
				}
			}
		}
		concepts = append(concepts, types.Concept{Name: name, AssociatedChunks: chunks})
	}
	return concepts, nil
}

// UpsertConcept merges the concept node, each referenced text node, and the
// edge between them, always overwriting the edge score with the record's
// score. Re-upserting the same (concept, chunk) pair therefore never creates
// a second edge.
func (s *Store) UpsertConcept(ctx context.Context, records []types.SimilarityRecord, concept string) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: records must not be empty", errs.ErrInvalidArgument)
	}
	if concept == "" {
		return fmt.Errorf("%w: concept must not be empty", errs.ErrInvalidArgument)
	}
	s.log.Info("Upserting concept", "concept", concept, "record_count", len(records))

	params := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		params = append(params, map[string]any{
			"content": rec.Chunk.Text,
			"name":    rec.Chunk.SourceLabel,
			"score":   rec.Score,
		})
	}

	cypher := upsertConceptByContentQuery
	if s.merge == MergeByLabel {
		cypher = upsertConceptByLabelQuery
	}

	if _, err := s.db.WriteQuery(ctx, cypher, map[string]any{
		"concept": concept,
		"records": params,
	}); err != nil {
		return fmt.Errorf("upsert concept %q: %w", concept, err)
	}
	return nil
}

// RemoveConcept counts concept nodes, issues a detach-delete for the named
// concept, counts again, and succeeds only when the count dropped by exactly
// one. The count-then-delete-then-count sequence is not serialized against
// other writers, so concurrent mutation of the concept set can skew the
// verification; that contract is kept as-is.
func (s *Store) RemoveConcept(ctx context.Context, concept string) (bool, error) {
	if concept == "" {
		return false, fmt.Errorf("%w: concept must not be empty", errs.ErrInvalidArgument)
	}

	before, err := s.conceptCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count concepts before removal: %w", err)
	}
	s.log.Debug("Concept count before removal", "concept", concept, "count", before)

	if _, err := s.db.WriteQuery(ctx, deleteConceptQuery, map[string]any{"concept": concept}); err != nil {
		return false, fmt.Errorf("delete concept %q: %w", concept, err)
	}

	after, err := s.conceptCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count concepts after removal: %w", err)
	}
	s.log.Debug("Concept count after removal", "concept", concept, "count", after)

	if after != before-1 {
		s.log.Warn("Concept count did not decrement as expected", "concept", concept, "before", before, "after", after)
		return false, &errs.ConceptNotRemovedError{Before: before, After: after}
	}
	return true, nil
}

func (s *Store) existsLabel(ctx context.Context, label string) (bool, error) {
	rows, err := s.db.ReadQuery(ctx, fmt.Sprintf(existsQueryTemplate, label), nil)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *Store) conceptCount(ctx context.Context) (int, error) {
	rows, err := s.db.ReadQuery(ctx, countConceptsQuery, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("concept count query returned no rows")
	}
	switch v := rows[0]["count"].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("concept count has unexpected type %T", rows[0]["count"])
	}
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: label must not be empty", errs.ErrInvalidArgument)
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w: label %q must match %s", errs.ErrInvalidArgument, label, labelPattern.String())
	}
	return nil
}

// Package store holds the run-scoped candidate index: an in-memory
// SQLite database combining an FTS5 full-text index with a sqlite-vec
// vector table. Nothing persists beyond the run.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Candidate kinds.
const (
	KindSection    = "section"
	KindSubsection = "subsection"
)

// Candidate is one scorable unit: a section or a sub-section.
// Content is the scoring text (for sections the heading plus a body
// preview, for sub-sections the full passage).
type Candidate struct {
	ID       int64
	Document string
	Kind     string
	Heading  string
	Content  string
	Page     int
	Seq      int
}

// SearchResult pairs a candidate ID with a backend-specific score.
// Higher is better for both search methods.
type SearchResult struct {
	CandidateID int64
	Score       float64
}

// Store wraps the in-memory SQLite database for one run.
type Store struct {
	db *sql.DB
}

// New opens a fresh in-memory candidate index with the given embedding
// dimension. The connection pool is pinned to a single connection so
// every query sees the same :memory: database.
func New(embeddingDim int) (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database. All run data is discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertCandidates stores all candidates in one transaction, preserving
// input order, and returns their assigned IDs in the same order.
func (s *Store) InsertCandidates(ctx context.Context, cands []Candidate) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (document, kind, heading, content, page, seq)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(cands))
	for _, c := range cands {
		res, err := stmt.ExecContext(ctx, c.Document, c.Kind, c.Heading, c.Content, c.Page, c.Seq)
		if err != nil {
			return nil, fmt.Errorf("inserting candidate %q/%q: %w", c.Document, c.Heading, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertEmbedding stores the vector embedding for a candidate.
func (s *Store) InsertEmbedding(ctx context.Context, candidateID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_candidates (candidate_id, embedding) VALUES (?, ?)",
		candidateID, serializeFloat32(embedding))
	return err
}

// FTSSearch runs an FTS5 BM25 search over candidates of one kind.
// Results are ordered best-first with candidate ID as the final
// tie-break, so the ordering is total.
func (s *Store) FTSSearch(ctx context.Context, kind, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank
		FROM candidates_fts f
		JOIN candidates c ON c.id = f.rowid
		WHERE candidates_fts MATCH ? AND c.kind = ?
		ORDER BY f.rank, f.rowid
		LIMIT ?
	`, query, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		if err := rows.Scan(&r.CandidateID, &rank); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better); flip to positive.
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// VectorSearch performs a KNN search over candidates of one kind.
// k bounds the vec0 scan; it must cover the whole index when a full
// ranking is wanted, since the kind filter applies after the scan.
// k <= 0 scans every stored embedding.
func (s *Store) VectorSearch(ctx context.Context, kind string, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		var err error
		if k, err = s.count(ctx, ""); err != nil {
			return nil, err
		}
		if k == 0 {
			return nil, nil
		}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.candidate_id, v.distance
		FROM vec_candidates v
		JOIN candidates c ON c.id = v.candidate_id
		WHERE v.embedding MATCH ? AND k = ? AND c.kind = ?
		ORDER BY v.distance, v.candidate_id
	`, serializeFloat32(queryEmbedding), k, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(&r.CandidateID, &distance); err != nil {
			return nil, err
		}
		// Cosine distance to similarity.
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// count returns the number of stored candidates, restricted to one
// kind when kind is non-empty.
func (s *Store) count(ctx context.Context, kind string) (int, error) {
	var n int
	if kind == "" {
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM candidates").Scan(&n)
		return n, err
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM candidates WHERE kind = ?", kind).Scan(&n)
	return n, err
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

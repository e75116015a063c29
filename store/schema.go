package store

import "fmt"

// schemaSQL returns the DDL for the run-scoped candidate index.
// embeddingDim controls the vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Scoring candidates: sections and sub-sections of one run
CREATE TABLE IF NOT EXISTS candidates (
    id INTEGER PRIMARY KEY,
    document TEXT NOT NULL,
    kind TEXT NOT NULL,
    heading TEXT,
    content TEXT NOT NULL,
    page INTEGER NOT NULL,
    seq INTEGER NOT NULL
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS candidates_fts USING fts5(
    content,
    heading,
    content='candidates',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- Candidates are write-once within a run, so only the insert trigger
-- is needed to keep the FTS index in sync.
CREATE TRIGGER IF NOT EXISTS candidates_ai AFTER INSERT ON candidates BEGIN
    INSERT INTO candidates_fts(rowid, content, heading) VALUES (new.id, new.content, new.heading);
END;

-- Vector embeddings via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_candidates USING vec0(
    candidate_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);

CREATE INDEX IF NOT EXISTS idx_candidates_kind ON candidates(kind);
CREATE INDEX IF NOT EXISTS idx_candidates_document ON candidates(document);
`, embeddingDim)
}

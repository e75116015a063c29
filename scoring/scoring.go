// Package scoring ranks indexed candidates against a persona and job
// description. Three independent rankings are fused with weighted
// reciprocal rank fusion: direct lexical overlap with the query terms,
// SQLite FTS5 BM25 full-text relevance, and cosine similarity over
// hashed token embeddings. All three are deterministic, so equal
// inputs always produce equal scores.
package scoring

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/brunobiangulo/docrank/store"
)

// Query carries the two free-text inputs every score derives from.
type Query struct {
	Persona string
	Job     string
}

// Text joins the persona and job into the combined query text.
func (q Query) Text() string {
	return strings.TrimSpace(q.Persona + " " + q.Job)
}

// Strategy computes a relevance score in [0,1] for one candidate text.
// It seams in alternative scorers without touching the fusion logic.
type Strategy interface {
	Score(text string, q Query) float64
}

// Config holds the fusion weights and embedding shape.
type Config struct {
	WeightLexical float64
	WeightFTS     float64
	WeightVector  float64
	EmbeddingDim  int
}

// Scored pairs a candidate with its fused relevance score.
type Scored struct {
	Candidate store.Candidate
	Score     float64
}

// Engine scores candidates held in a run index.
type Engine struct {
	store    *store.Store
	strategy Strategy
	cfg      Config
	log      *slog.Logger
}

// New builds an engine over the given store. A nil strategy falls back
// to plain lexical overlap.
func New(s *store.Store, strategy Strategy, cfg Config, log *slog.Logger) *Engine {
	if strategy == nil {
		strategy = Lexical{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: s, strategy: strategy, cfg: cfg, log: log}
}

// ScoreAll fuses the lexical, full-text and vector rankings of the
// given candidates for one kind. The returned slice preserves the
// input order; callers sort it as they need. A failed full-text or
// vector search degrades to the remaining rankings with a warning
// rather than failing the run.
func (e *Engine) ScoreAll(ctx context.Context, q Query, kind string, cands []store.Candidate) ([]Scored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	lists := make([]rankedList, 0, 3)
	if e.cfg.WeightLexical > 0 {
		lists = append(lists, rankedList{ids: e.lexicalRanking(q, cands), weight: e.cfg.WeightLexical})
	}
	if e.cfg.WeightFTS > 0 {
		if ids := e.ftsRanking(ctx, q, kind, len(cands)); len(ids) > 0 {
			lists = append(lists, rankedList{ids: ids, weight: e.cfg.WeightFTS})
		}
	}
	if e.cfg.WeightVector > 0 {
		if ids := e.vectorRanking(ctx, q, kind); len(ids) > 0 {
			lists = append(lists, rankedList{ids: ids, weight: e.cfg.WeightVector})
		}
	}

	fused := fuseRRF(lists)
	out := make([]Scored, len(cands))
	for i, c := range cands {
		out[i] = Scored{Candidate: c, Score: fused[c.ID]}
	}
	return out, nil
}

// lexicalRanking orders candidates by strategy score. Ties fall back
// to document, page, then sequence so the ranking is total.
func (e *Engine) lexicalRanking(q Query, cands []store.Candidate) []int64 {
	type lexScored struct {
		cand  store.Candidate
		score float64
	}
	scored := make([]lexScored, len(cands))
	for i, c := range cands {
		scored[i] = lexScored{cand: c, score: e.strategy.Score(c.Heading+" "+c.Content, q)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.cand.Document != b.cand.Document {
			return a.cand.Document < b.cand.Document
		}
		if a.cand.Page != b.cand.Page {
			return a.cand.Page < b.cand.Page
		}
		return a.cand.Seq < b.cand.Seq
	})
	ids := make([]int64, len(scored))
	for i, s := range scored {
		ids[i] = s.cand.ID
	}
	return ids
}

func (e *Engine) ftsRanking(ctx context.Context, q Query, kind string, limit int) []int64 {
	query := sanitizeFTSQuery(q.Text())
	if query == "" {
		return nil
	}
	results, err := e.store.FTSSearch(ctx, kind, query, limit)
	if err != nil {
		e.log.Warn("full-text ranking skipped", "kind", kind, "error", err)
		return nil
	}
	return resultIDs(results)
}

func (e *Engine) vectorRanking(ctx context.Context, q Query, kind string) []int64 {
	embedding := EmbedText(q.Text(), e.cfg.EmbeddingDim)
	results, err := e.store.VectorSearch(ctx, kind, embedding, 0)
	if err != nil {
		e.log.Warn("vector ranking skipped", "kind", kind, "error", err)
		return nil
	}
	return resultIDs(results)
}

func resultIDs(results []store.SearchResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.CandidateID
	}
	return ids
}

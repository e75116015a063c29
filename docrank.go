// Package docrank extracts sections from a collection of PDF documents
// and ranks them by relevance to a persona and a job to be done. A run
// decodes every PDF concurrently, detects headings from typography,
// splits section bodies into refined passages, indexes everything in
// an in-memory SQLite run index, and fuses lexical, full-text and
// vector rankings into one importance ordering.
package docrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brunobiangulo/docrank/chunker"
	"github.com/brunobiangulo/docrank/outline"
	"github.com/brunobiangulo/docrank/parser"
	"github.com/brunobiangulo/docrank/ranking"
	"github.com/brunobiangulo/docrank/scoring"
	"github.com/brunobiangulo/docrank/store"
)

// Query names the persona and job driving a run.
type Query = scoring.Query

// Engine runs the extraction and ranking pipeline.
type Engine struct {
	cfg      Config
	decoder  parser.Decoder
	strategy scoring.Strategy
	log      *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithDecoder replaces the PDF decoder, mainly for tests.
func WithDecoder(d parser.Decoder) Option {
	return func(e *Engine) { e.decoder = d }
}

// WithStrategy replaces the per-candidate lexical scoring strategy.
func WithStrategy(s scoring.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithLogger sets the logger used for run progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New validates the configuration and builds an engine. Zero-value
// config fields take their defaults first.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		decoder: parser.NewPDFDecoder(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// docOutcome is the per-document product of the decode stage.
type docOutcome struct {
	name     string
	title    string
	sections []outline.Section
	passages []chunker.Subsection
	err      error
}

// Run processes every PDF under inputDir and returns the ranked
// result. Individual documents that fail to decode are skipped and
// reported in Result.Warnings; the run fails only when the inputs are
// invalid or no document yields a single section.
func (e *Engine) Run(ctx context.Context, inputDir string, q Query) (*Result, error) {
	if strings.TrimSpace(q.Persona) == "" {
		return nil, fmt.Errorf("%w: persona must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(q.Job) == "" {
		return nil, fmt.Errorf("%w: job to be done must not be empty", ErrInvalidConfig)
	}

	names, err := listPDFs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: input directory: %v", ErrInvalidConfig, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no PDF files in %s", ErrNoCandidates, inputDir)
	}

	start := time.Now()
	e.log.Info("run started", "documents", len(names), "workers", e.cfg.Workers)

	outcomes := e.processDocuments(ctx, inputDir, names)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		processed []string
		warnings  []string
	)
	titles := make(map[string]string)
	for _, o := range outcomes {
		if o.err != nil {
			e.log.Warn("document skipped", "document", o.name, "error", o.err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", o.name, o.err))
			continue
		}
		processed = append(processed, o.name)
		if o.title != "" {
			titles[o.name] = o.title
		}
	}

	sections, passages := collectCandidates(outcomes, e.cfg.SectionPreviewWords)
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: across %d documents", ErrNoCandidates, len(names))
	}
	e.log.Info("candidates collected",
		"documents", len(processed), "sections", len(sections), "passages", len(passages))

	rankedSections, rankedPassages, err := e.scoreAndRank(ctx, q, sections, passages)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Metadata: Metadata{
			InputDocuments:      processed,
			Persona:             q.Persona,
			JobToBeDone:         q.Job,
			ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Warnings:       warnings,
		DocumentTitles: titles,
	}
	for _, entry := range rankedSections {
		res.ExtractedSections = append(res.ExtractedSections, SectionEntry{
			Document:       entry.Candidate.Document,
			SectionTitle:   entry.Candidate.Heading,
			ImportanceRank: entry.Rank,
			PageNumber:     entry.Candidate.Page,
		})
	}
	for _, entry := range rankedPassages {
		res.SubSectionAnalysis = append(res.SubSectionAnalysis, SubsectionEntry{
			Document:       entry.Candidate.Document,
			RefinedText:    entry.Candidate.Content,
			PageNumber:     entry.Candidate.Page,
			ImportanceRank: entry.Rank,
		})
	}

	e.log.Info("run finished",
		"sections", len(res.ExtractedSections),
		"passages", len(res.SubSectionAnalysis),
		"skipped", len(warnings),
		"elapsed", time.Since(start))
	return res, nil
}

// processDocuments decodes and segments every document with a bounded
// worker pool. Outcomes come back in input order regardless of which
// worker finished first.
func (e *Engine) processDocuments(ctx context.Context, dir string, names []string) []docOutcome {
	outcomes := make([]docOutcome, len(names))
	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = e.processDocument(ctx, filepath.Join(dir, name), name)
		}()
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) processDocument(ctx context.Context, path, name string) docOutcome {
	decodeCtx, cancel := context.WithTimeout(ctx, e.cfg.DecodeTimeout)
	defer cancel()

	doc, err := e.decoder.Decode(decodeCtx, path)
	if err != nil {
		return docOutcome{name: name, err: mapDecodeError(err)}
	}
	doc.ID = name

	sections := outline.DetectSections(doc, outline.Config{
		MaxHeadingWords: e.cfg.HeadingMaxWords,
		H1Ratio:         e.cfg.HeadingH1Ratio,
		H2Ratio:         e.cfg.HeadingH2Ratio,
		H3Ratio:         e.cfg.HeadingH3Ratio,
	})

	// Headings with no body carry no rankable content.
	kept := sections[:0]
	for _, sec := range sections {
		if strings.TrimSpace(sec.BodyText()) == "" {
			continue
		}
		kept = append(kept, sec)
	}
	if len(kept) == 0 {
		return docOutcome{name: name, err: ErrEmptyDocument}
	}

	var passages []chunker.Subsection
	for _, sec := range kept {
		passages = append(passages, chunker.Split(sec, chunker.Config{
			MinChars:  e.cfg.MinSubsectionChars,
			MaxChars:  e.cfg.MaxSubsectionChars,
			GapFactor: e.cfg.ParagraphGapFactor,
		})...)
	}
	return docOutcome{name: name, title: doc.Title, sections: kept, passages: passages}
}

func mapDecodeError(err error) error {
	if errors.Is(err, parser.ErrNoText) {
		return fmt.Errorf("%w: %v", ErrEmptyDocument, err)
	}
	return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
}

// collectCandidates flattens per-document outcomes into store
// candidates. Sections score on their heading plus a body preview;
// passages score on their full refined text. Seq numbers restart per
// document and order candidates within it.
func collectCandidates(outcomes []docOutcome, previewWords int) (sections, passages []store.Candidate) {
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		seq := 0
		for _, sec := range o.sections {
			seq++
			sections = append(sections, store.Candidate{
				Document: o.name,
				Kind:     store.KindSection,
				Heading:  sec.Heading,
				Content:  previewText(sec.BodyText(), previewWords),
				Page:     sec.Page,
				Seq:      seq,
			})
		}
		for _, p := range o.passages {
			seq++
			passages = append(passages, store.Candidate{
				Document: o.name,
				Kind:     store.KindSubsection,
				Heading:  p.Heading,
				Content:  p.Text,
				Page:     p.Page,
				Seq:      seq,
			})
		}
	}
	return sections, passages
}

func (e *Engine) scoreAndRank(ctx context.Context, q Query, sections, passages []store.Candidate) ([]ranking.Entry, []ranking.Entry, error) {
	idx, err := store.New(e.cfg.EmbeddingDim)
	if err != nil {
		return nil, nil, fmt.Errorf("open run index: %w", err)
	}
	defer idx.Close()

	all := make([]store.Candidate, 0, len(sections)+len(passages))
	all = append(all, sections...)
	all = append(all, passages...)
	ids, err := idx.InsertCandidates(ctx, all)
	if err != nil {
		return nil, nil, fmt.Errorf("index candidates: %w", err)
	}
	for i := range all {
		all[i].ID = ids[i]
		emb := scoring.EmbedText(all[i].Heading+" "+all[i].Content, e.cfg.EmbeddingDim)
		if err := idx.InsertEmbedding(ctx, ids[i], emb); err != nil {
			return nil, nil, fmt.Errorf("index embeddings: %w", err)
		}
	}
	sections = all[:len(sections)]
	passages = all[len(sections):]

	eng := scoring.New(idx, e.strategy, scoring.Config{
		WeightLexical: e.cfg.WeightLexical,
		WeightFTS:     e.cfg.WeightFTS,
		WeightVector:  e.cfg.WeightVector,
		EmbeddingDim:  e.cfg.EmbeddingDim,
	}, e.log)

	scoredSections, err := eng.ScoreAll(ctx, q, store.KindSection, sections)
	if err != nil {
		return nil, nil, fmt.Errorf("score sections: %w", err)
	}
	scoredPassages, err := eng.ScoreAll(ctx, q, store.KindSubsection, passages)
	if err != nil {
		return nil, nil, fmt.Errorf("score passages: %w", err)
	}

	return ranking.Rank(scoredSections, e.cfg.TopK, ranking.SectionKey),
		ranking.Rank(scoredPassages, e.cfg.TopK, ranking.PassageKey), nil
}

// previewText keeps the first n whitespace-separated words of text.
func previewText(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// listPDFs returns the PDF file names under dir in lexical order.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(ent.Name()), ".pdf") {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Package ranking turns fused relevance scores into a final ordered
// list. Ordering is total: equal scores fall back to document name,
// page, then sequence, so identical inputs always rank identically.
package ranking

import (
	"fmt"
	"sort"

	"github.com/brunobiangulo/docrank/scoring"
	"github.com/brunobiangulo/docrank/store"
)

// Entry is one ranked candidate. Ranks start at one and are
// contiguous after deduplication and truncation.
type Entry struct {
	Candidate store.Candidate
	Score     float64
	Rank      int
}

// SectionKey collapses repeated headings within a document, keeping
// the best-scoring occurrence.
func SectionKey(c store.Candidate) string {
	return c.Document + "\x00" + c.Heading
}

// PassageKey collapses identical passage text repeated on one page.
func PassageKey(c store.Candidate) string {
	return fmt.Sprintf("%s\x00%d\x00%s", c.Document, c.Page, c.Content)
}

// Rank orders scored candidates best-first, drops duplicates sharing a
// key, keeps the top k, and assigns contiguous one-based ranks. k <= 0
// keeps everything.
func Rank(scored []scoring.Scored, k int, key func(store.Candidate) string) []Entry {
	sorted := make([]scoring.Scored, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Candidate.Document != b.Candidate.Document {
			return a.Candidate.Document < b.Candidate.Document
		}
		if a.Candidate.Page != b.Candidate.Page {
			return a.Candidate.Page < b.Candidate.Page
		}
		return a.Candidate.Seq < b.Candidate.Seq
	})

	seen := make(map[string]struct{})
	var out []Entry
	for _, s := range sorted {
		if key != nil {
			id := key(s.Candidate)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, Entry{Candidate: s.Candidate, Score: s.Score, Rank: len(out) + 1})
		if k > 0 && len(out) == k {
			break
		}
	}
	return out
}

// Package outline recovers a logical section structure from the
// typographic fragment stream of a decoded document.
//
// Heading detection is heuristic: there is no semantic markup in PDF
// text, so candidates are classified from the document-wide font-size
// distribution and font weight. DetectSections is a pure function over
// an immutable fragment sequence.
package outline

import (
	"sort"
	"strings"

	"github.com/brunobiangulo/docrank/parser"
)

// PlaceholderHeading is the synthesized heading for text that precedes
// the first detected heading, and for documents with no headings at all.
const PlaceholderHeading = "Document body"

// Config controls heading classification.
type Config struct {
	// MaxHeadingWords rejects long lines as headings.
	MaxHeadingWords int

	// H1Ratio, H2Ratio and H3Ratio bin heading levels by the line's
	// font size relative to the document's largest font size.
	H1Ratio float64
	H2Ratio float64
	H3Ratio float64
}

// Section is a document region introduced by one detected heading.
type Section struct {
	Document string
	Heading  string
	Level    int // 1 = top
	Page     int // page the heading appears on, 1-based
	Body     []parser.Fragment
	Seq      int // position in document order
}

// BodyText returns the section body joined into running text, one line
// per text line.
func (s Section) BodyText() string {
	lines := parser.GroupLines(s.Body)
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := l.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// DetectSections partitions a document's fragments into sections.
// Every document yields at least one section: when no heading is
// detected, a single placeholder section holds all fragments.
// Heading sections with no following body text are emitted with an
// empty Body and are expected to be filtered by the caller.
func DetectSections(doc parser.Document, cfg Config) []Section {
	lines := parser.GroupLines(doc.Fragments)
	if len(lines) == 0 {
		return nil
	}

	maxFont := maxFontSize(doc.Fragments)
	median := bodyMedianFontSize(doc.Fragments)

	var sections []Section
	open := func(heading string, level, page, seq int) {
		sections = append(sections, Section{
			Document: doc.ID,
			Heading:  heading,
			Level:    level,
			Page:     page,
			Seq:      seq,
		})
	}

	seq := 0
	for _, line := range lines {
		text := line.Text()
		if text == "" {
			continue
		}
		if level := headingLevel(line, maxFont, median, cfg); level > 0 {
			open(text, level, line.Page, seq)
			seq++
			continue
		}
		if len(sections) == 0 {
			// Body text before the first heading.
			open(PlaceholderHeading, 1, line.Page, seq)
			seq++
		}
		cur := &sections[len(sections)-1]
		cur.Body = append(cur.Body, line.Fragments...)
	}

	normalizeLevels(sections)
	return sections
}

// headingLevel classifies a line, returning its heading level or 0 for
// body text. A line qualifies by font size (binned against the largest
// document font) or by being uniformly bold above the body median; long
// lines never qualify.
func headingLevel(line parser.Line, maxFont, median float64, cfg Config) int {
	words := len(strings.Fields(line.Text()))
	if words == 0 || words > cfg.MaxHeadingWords {
		return 0
	}
	// Size binning only means something for text above the body-text
	// median; otherwise every short body line would land in a bin.
	if line.FontSize > median && maxFont > median {
		switch {
		case line.FontSize >= maxFont*cfg.H1Ratio:
			return 1
		case line.FontSize >= maxFont*cfg.H2Ratio:
			return 2
		case line.FontSize >= maxFont*cfg.H3Ratio:
			return 3
		}
	}
	// Same-size documents mark headings by weight alone.
	if line.Bold && line.FontSize > median {
		return 3
	}
	return 0
}

// normalizeLevels clamps heading levels so nesting is consistent with
// document order: a section can be at most one level deeper than the
// section before it, and the first section is always level 1.
func normalizeLevels(sections []Section) {
	prev := 0
	for i := range sections {
		if sections[i].Level > prev+1 {
			sections[i].Level = prev + 1
		}
		prev = sections[i].Level
	}
}

func maxFontSize(frags []parser.Fragment) float64 {
	m := 0.0
	for _, f := range frags {
		if f.FontSize > m {
			m = f.FontSize
		}
	}
	return m
}

// bodyMedianFontSize returns the median fragment font size, a proxy for
// the document's body-text size.
func bodyMedianFontSize(frags []parser.Fragment) float64 {
	if len(frags) == 0 {
		return 0
	}
	sizes := make([]float64, len(frags))
	for i, f := range frags {
		sizes[i] = f.FontSize
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

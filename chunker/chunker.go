// Package chunker divides section bodies into paragraph-scale
// sub-sections suitable for fine-grained relevance scoring.
package chunker

import (
	"strings"

	"github.com/brunobiangulo/docrank/outline"
	"github.com/brunobiangulo/docrank/parser"
)

// Config controls the splitting behaviour.
type Config struct {
	// MinChars discards shorter paragraphs as noise (stray page
	// numbers, running headers).
	MinChars int

	// MaxChars splits longer paragraphs at sentence boundaries.
	MaxChars int

	// GapFactor is the vertical gap between consecutive lines, as a
	// multiple of the font size, that starts a new paragraph.
	GapFactor float64
}

// Subsection is one paragraph-scale unit of a section body. The slice
// returned by Split preserves body order.
type Subsection struct {
	Document string
	Heading  string // parent section heading
	Text     string
	Page     int
}

// Split divides a section's body into sub-sections at paragraph
// boundaries. Every returned sub-section has non-empty text and a
// valid page number.
func Split(sec outline.Section, cfg Config) []Subsection {
	paragraphs := splitParagraphs(sec.Body, cfg.GapFactor)

	var subs []Subsection
	for _, p := range paragraphs {
		text := p.text()
		if len(text) < cfg.MinChars {
			continue
		}
		for _, piece := range fitToCeiling(text, cfg.MaxChars) {
			if len(piece) < cfg.MinChars {
				continue
			}
			subs = append(subs, Subsection{
				Document: sec.Document,
				Heading:  sec.Heading,
				Text:     piece,
				Page:     p.page,
			})
		}
	}
	return subs
}

// paragraph is a run of lines with no large vertical gap between them.
type paragraph struct {
	page  int
	lines []parser.Line
}

func (p paragraph) text() string {
	parts := make([]string, 0, len(p.lines))
	for _, l := range p.lines {
		if t := l.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// splitParagraphs groups body fragments into paragraphs. A new
// paragraph starts on a page change or when the baseline gap to the
// previous line exceeds gapFactor times its font size.
func splitParagraphs(body []parser.Fragment, gapFactor float64) []paragraph {
	lines := parser.GroupLines(body)
	var paras []paragraph
	for _, line := range lines {
		if len(paras) > 0 {
			cur := &paras[len(paras)-1]
			last := cur.lines[len(cur.lines)-1]
			if line.Page == last.Page && last.Y-line.Y <= gapFactor*lineSpacing(last) {
				cur.lines = append(cur.lines, line)
				continue
			}
		}
		paras = append(paras, paragraph{page: line.Page, lines: []parser.Line{line}})
	}
	return paras
}

// lineSpacing estimates the expected baseline distance for a line.
func lineSpacing(l parser.Line) float64 {
	if l.FontSize > 0 {
		return l.FontSize
	}
	return 12
}

// fitToCeiling returns text unchanged when it fits within maxChars,
// otherwise splits it at sentence boundaries into pieces that each fit.
// A single sentence longer than the ceiling is kept whole rather than
// cut mid-sentence.
func fitToCeiling(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var pieces []string
	var cur strings.Builder
	for _, sent := range splitSentences(text) {
		if cur.Len() > 0 && cur.Len()+1+len(sent) > maxChars {
			pieces = append(pieces, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sent)
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// splitSentences is a simple sentence tokeniser. It splits on
// period/question-mark/exclamation followed by whitespace or end of
// string.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

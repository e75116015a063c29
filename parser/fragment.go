package parser

import (
	"math"
	"sort"
	"strings"
)

// Fragment is a single positioned text run from a decoded document page.
// Fragments are immutable once produced by the decoder.
type Fragment struct {
	Text     string
	Page     int // 1-based
	FontSize float64
	Bold     bool
	X        float64
	Y        float64 // PDF coordinates: larger Y is higher on the page
}

// Document is the decoded fragment stream of one input file.
type Document struct {
	ID        string // file base name
	Title     string // largest-font text on the first page, if any
	Fragments []Fragment
}

// Line groups the fragments sharing one visual text line.
type Line struct {
	Page      int
	Y         float64
	FontSize  float64 // largest font size on the line
	Bold      bool    // true when every fragment on the line is bold
	Fragments []Fragment
}

// Text returns the line content with fragments joined by single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Fragments))
	for _, f := range l.Fragments {
		if s := strings.TrimSpace(f.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// yLineTolerance is the maximum Y difference (in points) for two
// fragments to be considered part of the same line.
const yLineTolerance = 2.0

// SortReadingOrder orders fragments page-ascending, then top-to-bottom,
// then left-to-right. PDF Y grows upward, so top-to-bottom is descending Y.
// Y compares by tolerance-sized buckets: pairwise |ΔY| comparisons are
// not transitive over chains of near-tolerance offsets, buckets are.
func SortReadingOrder(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		a, b := frags[i], frags[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if ba, bb := yBucket(a.Y), yBucket(b.Y); ba != bb {
			return ba > bb
		}
		return a.X < b.X
	})
}

func yBucket(y float64) int {
	return int(math.Round(y / yLineTolerance))
}

// GroupLines assembles fragments (already in reading order) into lines.
// Fragments on the same page whose Y positions differ by at most the
// line tolerance share a line.
func GroupLines(frags []Fragment) []Line {
	var lines []Line
	for _, f := range frags {
		if len(lines) > 0 {
			cur := &lines[len(lines)-1]
			diff := cur.Y - f.Y
			if f.Page == cur.Page && diff <= yLineTolerance && diff >= -yLineTolerance {
				cur.Fragments = append(cur.Fragments, f)
				if f.FontSize > cur.FontSize {
					cur.FontSize = f.FontSize
				}
				cur.Bold = cur.Bold && f.Bold
				continue
			}
		}
		lines = append(lines, Line{
			Page:      f.Page,
			Y:         f.Y,
			FontSize:  f.FontSize,
			Bold:      f.Bold,
			Fragments: []Fragment{f},
		})
	}
	return lines
}

// boldMarkers are font-name substrings that indicate a bold weight.
var boldMarkers = []string{"bold", "black", "heavy", "semibold", "demibold"}

// IsBoldFont reports whether a PDF font name denotes a bold weight,
// e.g. "Helvetica-Bold" or "ArialMT-Black".
func IsBoldFont(fontName string) bool {
	lower := strings.ToLower(fontName)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

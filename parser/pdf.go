package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document decodes but contains no
// extractable text runs.
var ErrNoText = errors.New("parser: no text content")

// Decoder produces the fragment stream of a document file.
type Decoder interface {
	Decode(ctx context.Context, path string) (Document, error)
}

// PDFDecoder decodes PDF files into Fragment streams.
type PDFDecoder struct{}

// NewPDFDecoder returns a Decoder for PDF files.
func NewPDFDecoder() *PDFDecoder { return &PDFDecoder{} }

// Decode reads every page of the PDF at path and returns its fragments
// in reading order. Pages that fail to extract are skipped; a document
// with no usable text returns ErrNoText.
func (d *PDFDecoder) Decode(ctx context.Context, path string) (doc Document, err error) {
	// The underlying decoder panics on some malformed content streams;
	// convert that into a decode error so one bad file cannot take down
	// the whole run.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoding %s: %v", filepath.Base(path), r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	doc.ID = filepath.Base(path)
	totalPages := reader.NumPage()

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		doc.Fragments = append(doc.Fragments, pageFragments(page, i)...)
	}

	if len(doc.Fragments) == 0 {
		return Document{}, ErrNoText
	}

	SortReadingOrder(doc.Fragments)
	doc.Title = detectTitle(doc.Fragments)
	return doc, nil
}

// wordGapFactor is the horizontal gap, as a fraction of font size,
// beyond which two runs on a line are separated by a space.
const wordGapFactor = 0.3

// pageFragments extracts the text runs of one page and merges adjacent
// same-style runs into word-level fragments.
func pageFragments(page pdf.Page, pageNum int) []Fragment {
	content := page.Content()
	var frags []Fragment
	var cur *Fragment
	var curEnd float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			frags = append(frags, *cur)
		}
		cur = nil
	}

	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		bold := IsBoldFont(t.Font)

		sameLine := cur != nil &&
			cur.FontSize == t.FontSize && cur.Bold == bold &&
			abs(cur.Y-t.Y) <= yLineTolerance

		if sameLine {
			if t.X-curEnd > wordGapFactor*t.FontSize {
				cur.Text += " "
			}
			cur.Text += t.S
			curEnd = t.X + t.W
			continue
		}

		flush()
		cur = &Fragment{
			Text:     t.S,
			Page:     pageNum,
			FontSize: t.FontSize,
			Bold:     bold,
			X:        t.X,
			Y:        t.Y,
		}
		curEnd = t.X + t.W
	}
	flush()
	return frags
}

// titleRatio matches the heading detector's level-1 threshold: the
// title is the level-1 sized text of the first page.
const titleRatio = 0.95

// detectTitle returns the concatenated largest-font text on the first
// page, or "" when the first page has no such text.
func detectTitle(frags []Fragment) string {
	maxFont := 0.0
	for _, f := range frags {
		if f.FontSize > maxFont {
			maxFont = f.FontSize
		}
	}
	if maxFont == 0 {
		return ""
	}

	var parts []string
	for _, f := range frags {
		if f.Page != 1 {
			break
		}
		if f.FontSize >= maxFont*titleRatio {
			parts = append(parts, f.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package outline

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/docrank/parser"
)

func testConfig() Config {
	return Config{
		MaxHeadingWords: 15,
		H1Ratio:         0.95,
		H2Ratio:         0.75,
		H3Ratio:         0.55,
	}
}

// doc builds a synthetic single-page document from (text, fontSize, bold)
// triples, laying lines out top to bottom.
func doc(id string, lines ...parser.Fragment) parser.Document {
	y := 800.0
	frags := make([]parser.Fragment, 0, len(lines))
	for _, l := range lines {
		l.Page = max(l.Page, 1)
		l.X = 72
		l.Y = y
		y -= 20
		frags = append(frags, l)
	}
	return parser.Document{ID: id, Fragments: frags}
}

func TestDetectSectionsBySize(t *testing.T) {
	d := doc("report.pdf",
		parser.Fragment{Text: "Annual Report", FontSize: 20},
		parser.Fragment{Text: "Revenue grew steadily through the year.", FontSize: 10},
		parser.Fragment{Text: "Financial Overview", FontSize: 16},
		parser.Fragment{Text: "Operating costs were flat compared to last year.", FontSize: 10},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2: %+v", len(sections), sections)
	}

	if sections[0].Heading != "Annual Report" {
		t.Errorf("sections[0].Heading = %q", sections[0].Heading)
	}
	if sections[0].Level != 1 {
		t.Errorf("sections[0].Level = %d, want 1", sections[0].Level)
	}
	if got := sections[0].BodyText(); !strings.Contains(got, "Revenue grew") {
		t.Errorf("sections[0] body = %q, missing revenue line", got)
	}

	if sections[1].Heading != "Financial Overview" {
		t.Errorf("sections[1].Heading = %q", sections[1].Heading)
	}
	if sections[1].Level != 2 {
		t.Errorf("sections[1].Level = %d, want 2 (16pt of 20pt max)", sections[1].Level)
	}
}

func TestDetectSectionsBoldHeading(t *testing.T) {
	// Headings marked purely by weight: sizes are uniform except for
	// slightly larger bold lines.
	d := doc("memo.pdf",
		parser.Fragment{Text: "Background", FontSize: 12, Bold: true},
		parser.Fragment{Text: "The committee met twice during the quarter.", FontSize: 10},
		parser.Fragment{Text: "Decision", FontSize: 12, Bold: true},
		parser.Fragment{Text: "The proposal was approved without changes.", FontSize: 10},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2: %+v", len(sections), sections)
	}
	if sections[0].Heading != "Background" || sections[1].Heading != "Decision" {
		t.Errorf("headings = %q, %q", sections[0].Heading, sections[1].Heading)
	}
}

func TestDetectSectionsNoHeadings(t *testing.T) {
	d := doc("plain.pdf",
		parser.Fragment{Text: "Just a paragraph of uniform body text that keeps going on.", FontSize: 10},
		parser.Fragment{Text: "And another one following it with the same size and weight.", FontSize: 10},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 1 {
		t.Fatalf("len(sections) = %d, want 1", len(sections))
	}
	if sections[0].Heading != PlaceholderHeading {
		t.Errorf("Heading = %q, want placeholder", sections[0].Heading)
	}
	if len(sections[0].Body) != 2 {
		t.Errorf("placeholder body has %d fragments, want 2", len(sections[0].Body))
	}
}

func TestDetectSectionsLongLineIsNotHeading(t *testing.T) {
	long := strings.Repeat("word ", 20)
	d := doc("long.pdf",
		parser.Fragment{Text: long, FontSize: 20},
		parser.Fragment{Text: "body text follows here", FontSize: 10},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 1 || sections[0].Heading != PlaceholderHeading {
		t.Fatalf("long large-font line must not become a heading: %+v", sections)
	}
}

func TestDetectSectionsEmptyBodyHeading(t *testing.T) {
	d := doc("tail.pdf",
		parser.Fragment{Text: "Introduction", FontSize: 20},
		parser.Fragment{Text: "Some introductory prose.", FontSize: 10},
		parser.Fragment{Text: "More prose keeping the body median honest.", FontSize: 10},
		parser.Fragment{Text: "Trailing Heading", FontSize: 20},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	if len(sections[1].Body) != 0 {
		t.Errorf("trailing heading body = %d fragments, want 0", len(sections[1].Body))
	}
	if sections[1].BodyText() != "" {
		t.Errorf("trailing heading BodyText() = %q, want empty", sections[1].BodyText())
	}
}

func TestDetectSectionsLevelNormalization(t *testing.T) {
	// Document opens with an H3-sized heading: it must still be level 1,
	// and no section may be more than one level deeper than its predecessor.
	d := doc("deep.pdf",
		parser.Fragment{Text: "Small opener", FontSize: 12},
		parser.Fragment{Text: "opener body text", FontSize: 10},
		parser.Fragment{Text: "Big Heading", FontSize: 20},
		parser.Fragment{Text: "big body text", FontSize: 10},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	if sections[0].Level != 1 {
		t.Errorf("first section level = %d, want 1", sections[0].Level)
	}
	prev := 0
	for i, s := range sections {
		if s.Level > prev+1 {
			t.Errorf("section %d level %d jumps more than one past %d", i, s.Level, prev)
		}
		prev = s.Level
	}
}

func TestDetectSectionsSeqAndPage(t *testing.T) {
	d := doc("pages.pdf",
		parser.Fragment{Text: "First", FontSize: 20, Page: 1},
		parser.Fragment{Text: "first body", FontSize: 10, Page: 1},
		parser.Fragment{Text: "Second", FontSize: 20, Page: 3},
		parser.Fragment{Text: "second body", FontSize: 10, Page: 3},
	)

	sections := DetectSections(d, testConfig())
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	if sections[0].Seq != 0 || sections[1].Seq != 1 {
		t.Errorf("seqs = %d,%d want 0,1", sections[0].Seq, sections[1].Seq)
	}
	if sections[1].Page != 3 {
		t.Errorf("sections[1].Page = %d, want 3", sections[1].Page)
	}
}

func TestDetectSectionsEmptyDocument(t *testing.T) {
	sections := DetectSections(parser.Document{ID: "empty.pdf"}, testConfig())
	if sections != nil {
		t.Errorf("sections = %+v, want nil", sections)
	}
}

package docrank

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/docrank/parser"
)

// stubDecoder serves canned documents by file base name.
type stubDecoder struct {
	docs map[string]parser.Document
	errs map[string]error
}

func (d *stubDecoder) Decode(_ context.Context, path string) (parser.Document, error) {
	name := filepath.Base(path)
	if err, ok := d.errs[name]; ok {
		return parser.Document{}, err
	}
	doc, ok := d.docs[name]
	if !ok {
		return parser.Document{}, fmt.Errorf("no fixture for %s", name)
	}
	return doc, nil
}

// fixtureDoc lays out alternating heading and body lines in reading
// order. Headings use a 24pt font, body text 10pt, so heading
// detection sees a clear size contrast.
func fixtureDoc(headingBodies ...[2]string) parser.Document {
	var doc parser.Document
	y := 800.0
	page := 1
	for _, hb := range headingBodies {
		doc.Fragments = append(doc.Fragments, parser.Fragment{
			Text: hb[0], Page: page, FontSize: 24, X: 50, Y: y,
		})
		y -= 30
		for _, sentence := range strings.Split(hb[1], "\n") {
			doc.Fragments = append(doc.Fragments, parser.Fragment{
				Text: sentence, Page: page, FontSize: 10, X: 50, Y: y,
			})
			y -= 12
		}
		y -= 12
	}
	return doc
}

func writeInputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func testEngine(t *testing.T, dec parser.Decoder) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.EmbeddingDim = 64
	cfg.Workers = 2
	e, err := New(cfg, WithDecoder(dec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func travelQuery() Query {
	return Query{
		Persona: "Travel Planner",
		Job:     "Plan a four day trip with local cuisine and coastal adventures",
	}
}

func TestRunRanksRelevantSectionsFirst(t *testing.T) {
	dec := &stubDecoder{docs: map[string]parser.Document{
		"guide.pdf": fixtureDoc(
			[2]string{"Coastal Adventures", "Plan a coastal trip with beaches and water sports along the shore.\nThe coast offers adventures for every traveler on a day trip."},
			[2]string{"Printing Troubleshooting", "Reset the printer firmware before replacing any toner cartridge units."},
		),
		"food.pdf": fixtureDoc(
			[2]string{"Local Cuisine", "Local cuisine pairs fresh seafood with regional wine and olive oil."},
		),
	}}
	dir := writeInputDir(t, "guide.pdf", "food.pdf")

	res, err := testEngine(t, dec).Run(context.Background(), dir, travelQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.ExtractedSections) != 3 {
		t.Fatalf("got %d sections, want 3", len(res.ExtractedSections))
	}
	if res.ExtractedSections[0].ImportanceRank != 1 {
		t.Fatalf("first section rank = %d, want 1", res.ExtractedSections[0].ImportanceRank)
	}
	for i, sec := range res.ExtractedSections {
		if sec.ImportanceRank != i+1 {
			t.Fatalf("ranks not contiguous at %d: %d", i, sec.ImportanceRank)
		}
		if sec.SectionTitle == "" || sec.Document == "" || sec.PageNumber < 1 {
			t.Fatalf("incomplete entry: %+v", sec)
		}
	}
	if last := res.ExtractedSections[len(res.ExtractedSections)-1]; last.SectionTitle != "Printing Troubleshooting" {
		t.Fatalf("irrelevant section ranked %d with title %q, want it last",
			last.ImportanceRank, last.SectionTitle)
	}
	if len(res.SubSectionAnalysis) == 0 {
		t.Fatal("no refined passages in result")
	}
	for i, sub := range res.SubSectionAnalysis {
		if sub.ImportanceRank != i+1 {
			t.Fatalf("passage ranks not contiguous at %d: %d", i, sub.ImportanceRank)
		}
		if strings.TrimSpace(sub.RefinedText) == "" {
			t.Fatalf("empty refined text at rank %d", sub.ImportanceRank)
		}
	}
	if len(res.Metadata.InputDocuments) != 2 {
		t.Fatalf("metadata documents = %v, want both inputs", res.Metadata.InputDocuments)
	}
}

func TestRunDeterministic(t *testing.T) {
	dec := &stubDecoder{docs: map[string]parser.Document{
		"a.pdf": fixtureDoc([2]string{"Nightlife", "Bars and clubs along the promenade stay open until early morning."}),
		"b.pdf": fixtureDoc([2]string{"Cuisine", "Local cuisine pairs seafood with regional wine in harbor towns."}),
	}}
	dir := writeInputDir(t, "a.pdf", "b.pdf")
	e := testEngine(t, dec)

	first, err := e.Run(context.Background(), dir, travelQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := e.Run(context.Background(), dir, travelQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	first.Metadata.ProcessingTimestamp = ""
	second.Metadata.ProcessingTimestamp = ""

	var a, b strings.Builder
	if err := first.WriteJSON(&a); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := second.WriteJSON(&b); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("runs differ:\n%s\nvs\n%s", a.String(), b.String())
	}
}

func TestRunZeroPassagesStillWritesArrays(t *testing.T) {
	// A terse body survives as a section but falls below the passage
	// minimum, so the passage list must serialize as an empty array.
	dec := &stubDecoder{docs: map[string]parser.Document{
		"terse.pdf": fixtureDoc([2]string{"Coastal Notes", "Plan a coastal trip."}),
	}}
	dir := writeInputDir(t, "terse.pdf")

	res, err := testEngine(t, dec).Run(context.Background(), dir, travelQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.ExtractedSections) == 0 {
		t.Fatal("no sections extracted")
	}
	if len(res.SubSectionAnalysis) != 0 {
		t.Fatalf("got %d passages, want 0", len(res.SubSectionAnalysis))
	}

	var sb strings.Builder
	if err := res.WriteJSON(&sb); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.Contains(sb.String(), "null") {
		t.Fatalf("output contains null, want empty arrays:\n%s", sb.String())
	}
	if !strings.Contains(sb.String(), `"sub_section_analysis": []`) {
		t.Fatalf("output is missing the empty passage array:\n%s", sb.String())
	}
}

func TestRunSkipsFailingDocument(t *testing.T) {
	dec := &stubDecoder{
		docs: map[string]parser.Document{
			"good.pdf": fixtureDoc([2]string{"Coastal Adventures", "Plan a coastal trip with beaches and adventures for every traveler."}),
		},
		errs: map[string]error{
			"bad.pdf":   errors.New("malformed xref table"),
			"empty.pdf": parser.ErrNoText,
		},
	}
	dir := writeInputDir(t, "good.pdf", "bad.pdf", "empty.pdf")

	res, err := testEngine(t, dec).Run(context.Background(), dir, travelQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(res.Warnings), res.Warnings)
	}
	if len(res.Metadata.InputDocuments) != 1 || res.Metadata.InputDocuments[0] != "good.pdf" {
		t.Fatalf("metadata documents = %v, want only good.pdf", res.Metadata.InputDocuments)
	}
	for _, sec := range res.ExtractedSections {
		if sec.Document != "good.pdf" {
			t.Fatalf("section from skipped document: %+v", sec)
		}
	}
}

func TestRunAllDocumentsFail(t *testing.T) {
	dec := &stubDecoder{errs: map[string]error{
		"bad.pdf": errors.New("malformed xref table"),
	}}
	dir := writeInputDir(t, "bad.pdf")

	_, err := testEngine(t, dec).Run(context.Background(), dir, travelQuery())
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("got %v, want ErrNoCandidates", err)
	}
}

func TestRunEmptyInputs(t *testing.T) {
	dec := &stubDecoder{}
	e := testEngine(t, dec)

	if _, err := e.Run(context.Background(), t.TempDir(), travelQuery()); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("empty dir: got %v, want ErrNoCandidates", err)
	}
	if _, err := e.Run(context.Background(), t.TempDir(), Query{Job: "plan"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing persona: got %v, want ErrInvalidConfig", err)
	}
	if _, err := e.Run(context.Background(), t.TempDir(), Query{Persona: "Planner"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing job: got %v, want ErrInvalidConfig", err)
	}
	if _, err := e.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), travelQuery()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing dir: got %v, want ErrInvalidConfig", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = -1
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

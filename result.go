package docrank

import (
	"encoding/json"
	"io"
)

// Metadata records the inputs a result was produced from.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// SectionEntry is one ranked section in the output.
type SectionEntry struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionEntry is one ranked refined passage in the output.
type SubsectionEntry struct {
	Document       string `json:"document"`
	RefinedText    string `json:"refined_text"`
	PageNumber     int    `json:"page_number"`
	ImportanceRank int    `json:"importance_rank"`
}

// Result is the full outcome of a run. Warnings collect per-document
// failures that did not abort the run; they are reported out of band,
// not in the JSON payload.
type Result struct {
	Metadata           Metadata          `json:"metadata"`
	ExtractedSections  []SectionEntry    `json:"extracted_sections"`
	SubSectionAnalysis []SubsectionEntry `json:"sub_section_analysis"`

	Warnings []string `json:"-"`

	// DocumentTitles maps processed document names to their detected
	// titles. Reporting-only, like Warnings.
	DocumentTitles map[string]string `json:"-"`
}

// WriteJSON writes the result as indented JSON. Field order is fixed
// by the struct definitions, so equal results serialize identically.
// Absent lists serialize as empty arrays, never null.
func (r *Result) WriteJSON(w io.Writer) error {
	out := *r
	if out.Metadata.InputDocuments == nil {
		out.Metadata.InputDocuments = []string{}
	}
	if out.ExtractedSections == nil {
		out.ExtractedSections = []SectionEntry{}
	}
	if out.SubSectionAnalysis == nil {
		out.SubSectionAnalysis = []SubsectionEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(&out)
}

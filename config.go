package docrank

import (
	"fmt"
	"time"
)

// Config holds all configuration for the docrank engine.
type Config struct {
	// TopK is the number of ranked entries kept per result list.
	TopK int `json:"top_k" yaml:"top_k"`

	// SectionPreviewWords is how many leading body words join the
	// heading when scoring a section.
	SectionPreviewWords int `json:"section_preview_words" yaml:"section_preview_words"`

	// Heading detection
	HeadingMaxWords int     `json:"heading_max_words" yaml:"heading_max_words"`
	HeadingH1Ratio  float64 `json:"heading_h1_ratio" yaml:"heading_h1_ratio"`
	HeadingH2Ratio  float64 `json:"heading_h2_ratio" yaml:"heading_h2_ratio"`
	HeadingH3Ratio  float64 `json:"heading_h3_ratio" yaml:"heading_h3_ratio"`

	// Sub-section splitting
	MinSubsectionChars int     `json:"min_subsection_chars" yaml:"min_subsection_chars"`
	MaxSubsectionChars int     `json:"max_subsection_chars" yaml:"max_subsection_chars"`
	ParagraphGapFactor float64 `json:"paragraph_gap_factor" yaml:"paragraph_gap_factor"`

	// Scoring fusion weights
	WeightLexical float64 `json:"weight_lexical" yaml:"weight_lexical"`
	WeightFTS     float64 `json:"weight_fts" yaml:"weight_fts"`
	WeightVector  float64 `json:"weight_vector" yaml:"weight_vector"`

	// EmbeddingDim is the dimension of the hashed term-frequency
	// embeddings stored in the run index.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// Workers is the number of documents processed concurrently.
	Workers int `json:"workers" yaml:"workers"`

	// DecodeTimeout bounds the PDF decode of a single document.
	// A document that exceeds it is skipped with a warning.
	DecodeTimeout time.Duration `json:"decode_timeout" yaml:"decode_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopK:                25,
		SectionPreviewWords: 40,
		HeadingMaxWords:     15,
		HeadingH1Ratio:      0.95,
		HeadingH2Ratio:      0.75,
		HeadingH3Ratio:      0.55,
		MinSubsectionChars:  30,
		MaxSubsectionChars:  1200,
		ParagraphGapFactor:  1.8,
		WeightLexical:       1.0,
		WeightFTS:           1.0,
		WeightVector:        0.5,
		EmbeddingDim:        256,
		Workers:             4,
		DecodeTimeout:       30 * time.Second,
	}
}

// withDefaults fills zero-value fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TopK == 0 {
		c.TopK = def.TopK
	}
	if c.SectionPreviewWords == 0 {
		c.SectionPreviewWords = def.SectionPreviewWords
	}
	if c.HeadingMaxWords == 0 {
		c.HeadingMaxWords = def.HeadingMaxWords
	}
	if c.HeadingH1Ratio == 0 {
		c.HeadingH1Ratio = def.HeadingH1Ratio
	}
	if c.HeadingH2Ratio == 0 {
		c.HeadingH2Ratio = def.HeadingH2Ratio
	}
	if c.HeadingH3Ratio == 0 {
		c.HeadingH3Ratio = def.HeadingH3Ratio
	}
	if c.MinSubsectionChars == 0 {
		c.MinSubsectionChars = def.MinSubsectionChars
	}
	if c.MaxSubsectionChars == 0 {
		c.MaxSubsectionChars = def.MaxSubsectionChars
	}
	if c.ParagraphGapFactor == 0 {
		c.ParagraphGapFactor = def.ParagraphGapFactor
	}
	if c.WeightLexical == 0 && c.WeightFTS == 0 && c.WeightVector == 0 {
		c.WeightLexical = def.WeightLexical
		c.WeightFTS = def.WeightFTS
		c.WeightVector = def.WeightVector
	}
	if c.EmbeddingDim == 0 {
		c.EmbeddingDim = def.EmbeddingDim
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.DecodeTimeout == 0 {
		c.DecodeTimeout = def.DecodeTimeout
	}
	return c
}

// Validate reports configuration values that cannot produce a valid run.
func (c Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.EmbeddingDim < 8 {
		return fmt.Errorf("%w: embedding_dim must be >= 8, got %d", ErrInvalidConfig, c.EmbeddingDim)
	}
	if c.MinSubsectionChars >= c.MaxSubsectionChars {
		return fmt.Errorf("%w: min_subsection_chars (%d) must be below max_subsection_chars (%d)",
			ErrInvalidConfig, c.MinSubsectionChars, c.MaxSubsectionChars)
	}
	if !(c.HeadingH1Ratio > c.HeadingH2Ratio && c.HeadingH2Ratio > c.HeadingH3Ratio && c.HeadingH3Ratio > 0) {
		return fmt.Errorf("%w: heading ratios must satisfy h1 > h2 > h3 > 0", ErrInvalidConfig)
	}
	if c.WeightLexical < 0 || c.WeightFTS < 0 || c.WeightVector < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidConfig)
	}
	if c.WeightLexical+c.WeightFTS+c.WeightVector == 0 {
		return fmt.Errorf("%w: at least one fusion weight must be positive", ErrInvalidConfig)
	}
	return nil
}

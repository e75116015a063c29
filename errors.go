package docrank

import "errors"

var (
	// ErrInvalidConfig is returned for invalid configuration or run inputs:
	// missing input directory, empty persona or job, unwritable output path.
	ErrInvalidConfig = errors.New("docrank: invalid configuration")

	// ErrDecodeFailed is returned when a PDF cannot be decoded
	// (corrupt, encrypted, or unsupported).
	ErrDecodeFailed = errors.New("docrank: decode failed")

	// ErrEmptyDocument is returned when a document decodes but yields
	// no usable text.
	ErrEmptyDocument = errors.New("docrank: document has no usable text")

	// ErrNoCandidates is returned when no sections survived across all
	// documents and no meaningful result can be produced.
	ErrNoCandidates = errors.New("docrank: no candidate sections found")
)

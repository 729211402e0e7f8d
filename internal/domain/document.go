package domain

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// Source records where the paper text of a GeneratedDocument came from.
type Source string

// Possible document sources
const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceProvided Source = "provided"
)

// GeneratedDocument is the paper and optional answer key produced for one
// request. It is never cached across requests.
type GeneratedDocument struct {
	ID        uuid.UUID `json:"id"`
	PaperText string    `json:"paper"`
	KeyText   string    `json:"answer_key,omitempty"`
	Source    Source    `json:"source"`
	ModelUsed string    `json:"model,omitempty"`
}

// NewGeneratedDocument creates a validated document with a fresh ID.
func NewGeneratedDocument(paper, key string, source Source, model string) (*GeneratedDocument, error) {
	doc := &GeneratedDocument{
		ID:        uuid.New(),
		PaperText: paper,
		KeyText:   key,
		Source:    source,
		ModelUsed: model,
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks that the document has paper text and a known source.
func (d *GeneratedDocument) Validate() error {
	if strings.TrimSpace(d.PaperText) == "" {
		return ErrEmptyPaper
	}

	switch d.Source {
	case SourceRemote, SourceFallback, SourceProvided:
		return nil
	default:
		return ErrInvalidSource
	}
}

// HasKey reports whether the document carries a non-blank answer key.
func (d *GeneratedDocument) HasKey() bool {
	return strings.TrimSpace(d.KeyText) != ""
}

// PaperHeader is the display metadata printed above the paper body.
type PaperHeader struct {
	ExamType    ExamType
	Board       string
	Class       string
	Subject     string
	Chapter     string
	Marks       int
	TeacherName string
	SchoolName  string
}

// ContentTypePDF is the media type of rendered documents.
const ContentTypePDF = "application/pdf"

// RenderedDocument is a paginated binary document ready for transport.
type RenderedDocument struct {
	Content []byte
	Pages   int

	// KeyStartPage is the 1-based page the answer key starts on, or 0 when
	// no key was rendered.
	KeyStartPage int

	// Typeface is the font family used for the body text.
	Typeface string

	// Encoding is "utf-8" for Unicode typefaces and "cp1252" for the core
	// fallback face.
	Encoding string
}

// Base64 returns the document encoded for JSON transport.
func (r *RenderedDocument) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Content)
}

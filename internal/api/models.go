package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/service/paper"
)

// flexString accepts a JSON string or number, so that "marks": 100 and
// "marks": "100" decode the same way.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = flexString(n.String())
		return nil
	}
}

// flexBool accepts JSON booleans and the string spellings HTML forms send.
type flexBool struct {
	set   bool
	value bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = flexBool{}
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = flexBool{set: true, value: v}
	case string:
		parsed, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*b = flexBool{set: true, value: parsed}
	case float64:
		*b = flexBool{set: true, value: v != 0}
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

func (b flexBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// parseBool reads the spellings browsers and scripts use for flags.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "y":
		return true, true
	case "off", "no", "n", "":
		return false, true
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return v, err == nil
}

// GenerateRequest is the body of POST /generate. Alternative field names
// used by older clients are accepted alongside the primary ones.
type GenerateRequest struct {
	ExamType     string     `json:"examType"`
	Class        flexString `json:"class"`
	Grade        flexString `json:"grade"`
	Board        string     `json:"board"`
	Subject      string     `json:"subject"`
	Chapter      string     `json:"chapter"`
	Marks        flexString `json:"marks"`
	Difficulty   string     `json:"difficulty"`
	Instructions string     `json:"instructions"`
	Suggestions  string     `json:"suggestions"`
	IncludeKey   flexBool   `json:"includeKey"`
	IncludeKeyV1 flexBool   `json:"include_key"`
	UserName     string     `json:"userName"`
	SchoolName   string     `json:"schoolName"`

	// Render-only mode.
	PDFOnly   flexBool `json:"pdf_only"`
	Paper     string   `json:"paper"`
	AnswerKey string   `json:"answer_key"`
}

// toInput resolves aliases into the raw domain input.
func (r GenerateRequest) toInput() domain.RequestInput {
	class := string(r.Class)
	if strings.TrimSpace(class) == "" {
		class = string(r.Grade)
	}
	instructions := r.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = r.Suggestions
	}
	includeKey := r.IncludeKey.ptr()
	if includeKey == nil {
		includeKey = r.IncludeKeyV1.ptr()
	}

	return domain.RequestInput{
		ExamType:     r.ExamType,
		Class:        class,
		Board:        r.Board,
		Subject:      r.Subject,
		Chapter:      r.Chapter,
		Marks:        string(r.Marks),
		Difficulty:   r.Difficulty,
		Instructions: instructions,
		IncludeKey:   includeKey,
		TeacherName:  r.UserName,
		SchoolName:   r.SchoolName,
	}
}

// pdfOnly reports whether the request asks for render-only mode.
func (r GenerateRequest) pdfOnly() bool {
	return r.PDFOnly.set && r.PDFOnly.value
}

func (r GenerateRequest) toProvided() paper.ProvidedInput {
	in := r.toInput()
	return paper.ProvidedInput{
		Header:     in,
		Paper:      r.Paper,
		Key:        r.AnswerKey,
		IncludeKey: in.IncludeKey,
	}
}

// GenerateResponse is the JSON body returned by POST /generate on success.
// AnswerKey is null when no key was produced.
type GenerateResponse struct {
	Success   bool     `json:"success"`
	Paper     string   `json:"paper"`
	AnswerKey *string  `json:"answer_key"`
	PDF       string   `json:"pdf"`
	Source    string   `json:"source"`
	Model     string   `json:"model,omitempty"`
	Pages     int      `json:"pages"`
	Notices   []string `json:"notices"`
	TraceID   string   `json:"trace_id,omitempty"`
}

// outcomeToResponse transforms a pipeline outcome into a response DTO.
func outcomeToResponse(out *paper.Outcome, traceID string) GenerateResponse {
	notices := out.Notices
	if notices == nil {
		notices = []string{}
	}
	var key *string
	if out.Document.HasKey() {
		k := out.Document.KeyText
		key = &k
	}
	return GenerateResponse{
		Success:   true,
		Paper:     out.Document.PaperText,
		AnswerKey: key,
		PDF:       out.Rendered.Base64(),
		Source:    string(out.Document.Source),
		Model:     out.Document.ModelUsed,
		Pages:     out.Rendered.Pages,
		Notices:   notices,
		TraceID:   traceID,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

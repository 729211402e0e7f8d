package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode"

	"github.com/examgen/examgen-api/internal/api/shared"
	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/platform/logger"
	"github.com/examgen/examgen-api/internal/service/paper"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxMultipartMemory = 1 << 20

// PaperHandler handles exam-paper HTTP requests.
type PaperHandler struct {
	service      paper.Service
	maxBodyBytes int64
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(service paper.Service, maxBodyBytes int64) *PaperHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &PaperHandler{service: service, maxBodyBytes: maxBodyBytes}
}

// Generate handles POST /generate requests.
//
// JSON bodies receive a JSON response unless the client asks for a PDF with
// "Accept: application/pdf" or "?format=pdf". Form posts receive the PDF as
// an attachment unless "?format=json" is given, and an unchecked includeKey
// checkbox turns the key off. With pdf_only set, the supplied paper and
// answer_key are rendered without generation.
func (h *PaperHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	req, isForm, err := decodeGenerateRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var out *paper.Outcome
	if req.pdfOnly() {
		out, err = h.service.RenderProvided(r.Context(), req.toProvided())
	} else {
		out, err = h.service.Generate(r.Context(), req.toInput())
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate paper")
		return
	}

	log.Debug("paper request completed",
		slog.String("state", string(out.State())),
		slog.Any("states", out.States),
		slog.Int("notices", len(out.Notices)))

	if wantsPDF(r, isForm) {
		writePDF(w, out)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, outcomeToResponse(out, shared.GetTraceID(r.Context())))
}

// decodeGenerateRequest reads a JSON, urlencoded or multipart body.
func decodeGenerateRequest(r *http.Request) (GenerateRequest, bool, error) {
	var req GenerateRequest

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		mediaType, _, err = mime.ParseMediaType(ct)
		if err != nil {
			return req, false, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
		}
	}

	switch mediaType {
	case "", "application/json", "text/plain":
		if err := shared.DecodeJSON(r, &req); err != nil {
			return req, false, bodyError(err)
		}
		return req, false, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, true, bodyError(err)
		}
		return formRequest(r), true, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return req, true, bodyError(err)
		}
		return formRequest(r), true, nil

	default:
		return req, false, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mediaType)
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequestFormat, err)
}

// formRequest maps form values, including their aliases, onto a request.
// includeKey follows checkbox semantics: absent means false. Render-only
// forms keep the default so a supplied answer_key is rendered.
func formRequest(r *http.Request) GenerateRequest {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(r.PostFormValue(k)); v != "" {
				return v
			}
		}
		return ""
	}
	flag := func(keys ...string) flexBool {
		for _, k := range keys {
			if _, present := r.PostForm[k]; present {
				v, ok := parseBool(r.PostFormValue(k))
				return flexBool{set: true, value: ok && v}
			}
		}
		return flexBool{}
	}

	req := GenerateRequest{
		ExamType:     get("examType", "exam_type"),
		Class:        flexString(get("class", "grade")),
		Board:        get("board"),
		Subject:      get("subject"),
		Chapter:      get("chapter"),
		Marks:        flexString(get("marks")),
		Difficulty:   get("difficulty"),
		Instructions: get("instructions", "suggestions"),
		IncludeKey:   flag("includeKey", "include_key"),
		UserName:     get("userName", "user_name", "teacherName"),
		SchoolName:   get("schoolName", "school_name"),
		PDFOnly:      flag("pdf_only"),
		Paper:        r.PostFormValue("paper"),
		AnswerKey:    r.PostFormValue("answer_key"),
	}

	// Browsers omit unchecked checkboxes, so a generation form without the
	// field asks for no key.
	if !req.pdfOnly() && !req.IncludeKey.set {
		req.IncludeKey = flexBool{set: true, value: false}
	}
	return req
}

// wantsPDF decides the response representation.
func wantsPDF(r *http.Request, isForm bool) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "pdf":
		return true
	case "json":
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), domain.ContentTypePDF) {
		return true
	}
	return isForm
}

func writePDF(w http.ResponseWriter, out *paper.Outcome) {
	h := w.Header()
	h.Set("Content-Type", domain.ContentTypePDF)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": attachmentName(out.Header),
	}))
	h.Set("X-Paper-Source", string(out.Document.Source))
	h.Set("X-Paper-Pages", fmt.Sprint(out.Rendered.Pages))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Rendered.Content)
}

// attachmentName builds "<board>_<subject>_<chapter|full>.pdf". Empty parts
// are skipped and "paper.pdf" is used when nothing identifies the paper.
func attachmentName(header domain.PaperHeader) string {
	var parts []string
	for _, p := range []string{header.Board, header.Subject} {
		if s := sanitizeFilePart(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 && sanitizeFilePart(header.Chapter) == "" {
		return "paper.pdf"
	}

	chapter := sanitizeFilePart(header.Chapter)
	if chapter == "" {
		chapter = "full"
	}
	parts = append(parts, chapter)
	return strings.Join(parts, "_") + ".pdf"
}

// sanitizeFilePart strips accents, turns spaces into underscores and drops
// anything outside [A-Za-z0-9._-].
func sanitizeFilePart(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	for _, r := range folded {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == '_'):
			sb.WriteRune(r)
		}
	}
	return strings.Trim(sb.String(), "._")
}

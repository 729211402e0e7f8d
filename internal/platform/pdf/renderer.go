package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/domain"
	"github.com/go-pdf/fpdf"
)

// Render failures. Both are fatal for the request.
var (
	ErrNoTypeface = errors.New("no usable typeface")
	ErrRender     = errors.New("document rendering failed")
)

const (
	margin        = 15.0
	footerOffset  = -12.0
	coreFamily    = "Helvetica"
	unicodeFamily = "body"

	encodingUTF8   = "utf-8"
	encodingCP1252 = "cp1252"
)

// typeface is a TrueType face loaded at startup.
type typeface struct {
	name    string
	regular []byte
	bold    []byte
}

// face describes how a document registers and encodes its body font.
type face struct {
	name     string
	family   string
	encoding string
	register func(pdf *fpdf.Fpdf)
	encode   func(s string) string
}

// Renderer lays out paper and key text into PDF documents. It holds only
// read-only font data and is safe for concurrent use.
type Renderer struct {
	logger     *slog.Logger
	faces      []typeface
	allowCore  bool
	fontSize   float64
	lineHeight float64
}

// NewRenderer loads the configured TrueType faces. Unreadable or invalid font
// files are skipped; a renderer with no faces and no core fallback still
// constructs but every Render fails with ErrNoTypeface.
func NewRenderer(logger *slog.Logger, cfg config.RenderConfig) (*Renderer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.FontSize <= 0 || cfg.LineHeight <= 0 {
		return nil, errors.New("font size and line height must be positive")
	}

	faces := loadTypefaces(logger, cfg.FontPaths)
	if len(faces) == 0 && !cfg.AllowCoreFont {
		logger.Warn("no TrueType font found and core font disabled; rendering will fail",
			"font_paths", cfg.FontPaths)
	}

	return &Renderer{
		logger:     logger,
		faces:      faces,
		allowCore:  cfg.AllowCoreFont,
		fontSize:   cfg.FontSize,
		lineHeight: cfg.LineHeight,
	}, nil
}

func loadTypefaces(logger *slog.Logger, paths []string) []typeface {
	var faces []typeface
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("font not available", "path", path, "error", err)
			continue
		}
		if !isTrueType(data) {
			logger.Warn("font file is not TrueType, skipping", "path", path)
			continue
		}

		tf := typeface{
			name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			regular: data,
			bold:    data,
		}
		if bold, err := os.ReadFile(boldVariant(path)); err == nil && isTrueType(bold) {
			tf.bold = bold
		}
		faces = append(faces, tf)
	}
	return faces
}

// isTrueType checks the sfnt version tag. fpdf only reports a bad font
// when it is first used, so files are screened up front.
func isTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	tag := data[:4]
	return bytes.Equal(tag, []byte{0x00, 0x01, 0x00, 0x00}) || bytes.Equal(tag, []byte("true"))
}

// boldVariant maps DejaVuSans.ttf to DejaVuSans-Bold.ttf.
func boldVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-Bold" + ext
}

// Render produces a PDF containing a header block, the paper and, when key is
// not blank, the answer key starting on a fresh page.
func (r *Renderer) Render(
	ctx context.Context,
	header domain.PaperHeader,
	paper, key string,
) (*domain.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(paper) == "" {
		return nil, fmt.Errorf("%w: paper text is empty", ErrRender)
	}

	for _, f := range r.faces {
		doc, err := r.render(r.unicodeFace(f), header, paper, key)
		if err == nil {
			return doc, nil
		}
		r.logger.WarnContext(ctx, "typeface failed, trying next",
			"typeface", f.name,
			"error", err)
	}

	if !r.allowCore {
		return nil, ErrNoTypeface
	}

	doc, err := r.render(coreFace(), header, paper, key)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Renderer) unicodeFace(tf typeface) face {
	return face{
		name:     tf.name,
		family:   unicodeFamily,
		encoding: encodingUTF8,
		register: func(pdf *fpdf.Fpdf) {
			pdf.AddUTF8FontFromBytes(unicodeFamily, "", tf.regular)
			pdf.AddUTF8FontFromBytes(unicodeFamily, "B", tf.bold)
		},
		encode: foldBMP,
	}
}

func coreFace() face {
	return face{
		name:     coreFamily,
		family:   coreFamily,
		encoding: encodingCP1252,
		register: func(*fpdf.Fpdf) {},
		encode:   foldCP1252,
	}
}

func (r *Renderer) render(f face, header domain.PaperHeader, paper, key string) (doc *domain.RenderedDocument, err error) {
	// fpdf panics on some malformed font tables.
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrRender, rec)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("examgen", false)
	pdf.SetTitle(title(header), true)

	f.register(pdf)
	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRender, pdf.Error())
	}

	w := &writer{pdf: pdf, face: f, size: r.fontSize, lineHeight: r.lineHeight}
	pdf.SetFooterFunc(w.footer)

	pdf.AddPage()
	w.header(header)
	w.body(paper)

	keyStart := 0
	if strings.TrimSpace(key) != "" {
		pdf.AddPage()
		keyStart = pdf.PageNo()
		w.title("Answer Key")
		pdf.Ln(r.lineHeight / 2)
		w.body(key)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	return &domain.RenderedDocument{
		Content:      buf.Bytes(),
		Pages:        pdf.PageCount(),
		KeyStartPage: keyStart,
		Typeface:     f.name,
		Encoding:     f.encoding,
	}, nil
}

func title(h domain.PaperHeader) string {
	if h.ExamType == domain.ExamTypeCompetitive {
		return "Competitive Examination Practice Paper"
	}
	return "Question Paper"
}

// writer holds the per-document layout state.
type writer struct {
	pdf        *fpdf.Fpdf
	face       face
	size       float64
	lineHeight float64
}

func (w *writer) setFont(bold bool, delta float64) {
	style := ""
	if bold {
		style = "B"
	}
	w.pdf.SetFont(w.face.family, style, w.size+delta)
}

func (w *writer) centered(text string, bold bool, delta float64) {
	w.setFont(bold, delta)
	w.pdf.MultiCell(0, w.lineHeight+delta/2, w.face.encode(text), "", "C", false)
}

func (w *writer) title(text string) {
	w.centered(text, true, 2)
}

func (w *writer) header(h domain.PaperHeader) {
	if s := strings.TrimSpace(h.SchoolName); s != "" {
		w.centered(s, true, 4)
	}
	w.title(title(h))

	var parts []string
	if h.Board != "" {
		parts = append(parts, "Board: "+h.Board)
	}
	if h.Class != "" {
		parts = append(parts, "Class: "+h.Class)
	}
	if h.Subject != "" {
		parts = append(parts, "Subject: "+h.Subject)
	}
	if h.Chapter != "" {
		parts = append(parts, "Chapter: "+h.Chapter)
	} else {
		parts = append(parts, "Full syllabus")
	}
	w.centered(strings.Join(parts, " | "), false, 0)

	if h.Marks > 0 {
		w.centered(fmt.Sprintf("Maximum Marks: %d", h.Marks), false, 0)
	}
	if t := strings.TrimSpace(h.TeacherName); t != "" {
		w.centered("Prepared by: "+t, false, 0)
	}

	w.pdf.Ln(2)
	w.rule()
	w.pdf.Ln(4)
}

func (w *writer) rule() {
	pageWidth, _ := w.pdf.GetPageSize()
	y := w.pdf.GetY()
	w.pdf.SetLineWidth(0.3)
	w.pdf.Line(margin, y, pageWidth-margin, y)
}

func (w *writer) footer() {
	w.pdf.SetY(footerOffset)
	w.pdf.SetFont(w.face.family, "", 8)
	w.pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", w.pdf.PageNo()), "", 0, "C", false, 0, "")
}

// body writes text line by line. Markdown headings and fully emphasised
// lines are set in bold; emphasis markers are dropped.
func (w *writer) body(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(strings.ReplaceAll(raw, "\t", "    "), " \r")
		if strings.TrimSpace(line) == "" {
			w.pdf.Ln(w.lineHeight / 2)
			continue
		}
		if isRule(line) {
			w.pdf.Ln(1)
			w.rule()
			w.pdf.Ln(2)
			continue
		}

		content, bold := classifyLine(line)
		if bold {
			w.pdf.Ln(1)
			w.setFont(true, 1)
		} else {
			w.setFont(false, 0)
		}
		w.pdf.MultiCell(0, w.lineHeight, w.face.encode(content), "", "L", false)
	}
}

func classifyLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "#") {
		return stripEmphasis(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))), true
	}
	if len(trimmed) > 4 &&
		(strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**") ||
			strings.HasPrefix(trimmed, "__") && strings.HasSuffix(trimmed, "__")) {
		return stripEmphasis(trimmed), true
	}
	return stripEmphasis(line), false
}

func stripEmphasis(s string) string {
	return strings.NewReplacer("**", "", "__", "").Replace(s)
}

func isRule(line string) bool {
	t := strings.ReplaceAll(strings.TrimSpace(line), " ", "")
	if len(t) < 3 {
		return false
	}
	for _, c := range []string{"-", "*", "_", "="} {
		if strings.Trim(t, c) == "" {
			return true
		}
	}
	return false
}

package paper

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/generation/answerkey"
	"github.com/examgen/examgen-api/internal/platform/logger"
	"github.com/examgen/examgen-api/internal/redact"
)

// Verify interface compliance at compile time
var _ Service = (*paperService)(nil)

type paperService struct {
	logger   *slog.Logger
	text     TextGenerator
	prompts  PromptBuilder
	fallback FallbackGenerator
	renderer Renderer
	recorder Recorder
	now      func() time.Time
}

// NewService creates a Service from its pipeline stages.
func NewService(
	logger *slog.Logger,
	text TextGenerator,
	prompts PromptBuilder,
	fallback FallbackGenerator,
	renderer Renderer,
	opts ...Option,
) (Service, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if text == nil {
		return nil, errors.New("text generator cannot be nil")
	}
	if prompts == nil {
		return nil, errors.New("prompt builder cannot be nil")
	}
	if fallback == nil {
		return nil, errors.New("fallback generator cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}

	s := &paperService{
		logger:   logger.With(slog.String("component", "paper_service")),
		text:     text,
		prompts:  prompts,
		fallback: fallback,
		renderer: renderer,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate implements Service.Generate.
func (s *paperService) Generate(ctx context.Context, in domain.RequestInput) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	out := &Outcome{}

	out.enter(StateValidating)
	req, err := domain.NewGenerationRequest(in)
	if err != nil {
		out.enter(StateRejected)
		log.InfoContext(ctx, "paper request rejected", slog.String("error", err.Error()))
		s.recorder.ObserveGeneration("none", "rejected")
		return out, err
	}
	out.Request = req
	out.Header = req.Header()

	log.InfoContext(ctx, "generating paper",
		slog.String("exam_type", string(req.ExamType)),
		slog.String("class", req.Class),
		slog.String("subject", req.Subject),
		slog.Int("marks", req.Marks),
		slog.String("difficulty", string(req.Difficulty)),
		slog.Bool("include_key", req.IncludeKey),
		slog.Bool("has_instructions", req.Instructions != ""))

	out.enter(StateSelectingModel)
	outcome := s.generateRemote(ctx, log, req, out)
	if out.Document == nil {
		out.enter(StateFallbackGenerating)
		out.Document = s.fallback.Generate(req)
		out.Notices = append(out.Notices, NoticeFallback)
		log.InfoContext(ctx, "template paper produced",
			slog.String("reason", outcome),
			slog.String("document_id", out.Document.ID.String()))
	}

	if err := s.render(ctx, log, out.Header, out); err != nil {
		s.recorder.ObserveGeneration(string(out.Document.Source), "render_failed")
		return out, err
	}

	s.recorder.ObserveGeneration(string(out.Document.Source), outcome)
	return out, nil
}

// generateRemote runs prompt building, the generation client and the
// splitter. On success it sets out.Document. It returns the outcome label of
// the generation step.
func (s *paperService) generateRemote(
	ctx context.Context,
	log *slog.Logger,
	req domain.GenerationRequest,
	out *Outcome,
) string {
	prompt, err := s.prompts.Build(req)
	if err != nil {
		log.ErrorContext(ctx, "failed to build prompt", slog.String("error", err.Error()))
		return "prompt_failed"
	}

	res, err := s.text.Generate(ctx, prompt)
	out.Notices = append(out.Notices, res.Notices...)
	if len(res.Selected) > 0 {
		out.enter(StateGenerating)
	}
	if err != nil {
		log.WarnContext(ctx, "remote generation failed, using template generator",
			slog.String("reason", generation.Outcome(err)),
			slog.Int("failed_candidates", len(res.Attempts)),
			slog.String("error", redact.Error(err)))
		return generation.Outcome(err)
	}

	out.enter(StateSplitting)
	split := answerkey.Split(res.Text, req.IncludeKey)
	if notice := split.Notice(req.IncludeKey); notice != "" {
		out.Notices = append(out.Notices, notice)
		log.WarnContext(ctx, "requested answer key missing from response",
			slog.String("reason", notice),
			slog.String("model", res.Candidate.String()),
			slog.Int("response_length", len(res.Text)))
	}

	doc, err := domain.NewGeneratedDocument(split.Paper, split.Key, domain.SourceRemote, res.Candidate.String())
	if err != nil {
		log.WarnContext(ctx, "remote response unusable", slog.String("error", err.Error()))
		return generation.Outcome(generation.ErrInvalidResponse)
	}

	out.Document = doc
	log.InfoContext(ctx, "paper generated",
		slog.String("model", doc.ModelUsed),
		slog.String("document_id", doc.ID.String()),
		slog.Bool("has_key", doc.HasKey()))
	return generation.Outcome(nil)
}

// RenderProvided implements Service.RenderProvided.
func (s *paperService) RenderProvided(ctx context.Context, in ProvidedInput) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	out := &Outcome{}

	out.enter(StateValidating)
	header, err := providedHeader(in.Header)
	if err != nil {
		out.enter(StateRejected)
		s.recorder.ObserveGeneration("none", "rejected")
		return out, err
	}
	out.Header = header

	key := in.Key
	if in.IncludeKey != nil && !*in.IncludeKey {
		key = ""
	}

	doc, err := domain.NewGeneratedDocument(in.Paper, key, domain.SourceProvided, "")
	if err != nil {
		out.enter(StateRejected)
		s.recorder.ObserveGeneration("none", "rejected")
		return out, domain.NewValidationError("paper", "is required", err)
	}
	out.Document = doc

	if err := s.render(ctx, log, header, out); err != nil {
		s.recorder.ObserveGeneration(string(doc.Source), "render_failed")
		return out, err
	}

	s.recorder.ObserveGeneration(string(doc.Source), generation.Outcome(nil))
	return out, nil
}

// providedHeader validates display metadata only. Marks are optional here and
// only printed when they parse.
func providedHeader(in domain.RequestInput) (domain.PaperHeader, error) {
	examType, ok := domain.ParseExamType(in.ExamType)
	if !ok {
		return domain.PaperHeader{}, domain.NewValidationError("examType", "must be one of state-board, competitive", nil)
	}

	h := domain.PaperHeader{
		ExamType:    examType,
		Board:       strings.TrimSpace(in.Board),
		Class:       strings.TrimSpace(in.Class),
		Subject:     strings.TrimSpace(in.Subject),
		Chapter:     strings.TrimSpace(in.Chapter),
		TeacherName: strings.TrimSpace(in.TeacherName),
		SchoolName:  strings.TrimSpace(in.SchoolName),
	}
	if m, err := strconv.Atoi(strings.TrimSpace(in.Marks)); err == nil && m > 0 {
		h.Marks = m
	}
	return h, nil
}

// render lays out out.Document. It runs even when the request context expired
// during generation.
func (s *paperService) render(ctx context.Context, log *slog.Logger, header domain.PaperHeader, out *Outcome) error {
	out.enter(StateRendering)

	start := s.now()
	rendered, err := s.renderer.Render(context.WithoutCancel(ctx), header, out.Document.PaperText, out.Document.KeyText)
	if err != nil {
		out.enter(StateRenderFailed)
		log.ErrorContext(ctx, "failed to render document",
			slog.String("document_id", out.Document.ID.String()),
			slog.String("error", err.Error()))
		return renderError(err)
	}

	s.recorder.ObserveRender(s.now().Sub(start), rendered.Pages)
	out.Rendered = rendered
	out.enter(StateDelivered)

	log.InfoContext(ctx, "document rendered",
		slog.String("document_id", out.Document.ID.String()),
		slog.String("source", string(out.Document.Source)),
		slog.Int("pages", rendered.Pages),
		slog.String("typeface", rendered.Typeface),
		slog.Int("bytes", len(rendered.Content)))
	return nil
}

// Package prompt assembles the single deterministic prompt sent to the
// generative service for an exam-paper request.
//
// Sections always appear in the same order: role and scope framing, the
// marks-to-structure rule, the difficulty descriptor, the user override block
// and the output-format contract. The output contract is the only place the
// answer-key delimiter is introduced.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/generation/answerkey"
)

//go:embed templates/exam_paper.tmpl
var defaultTemplate string

var difficultyDescriptors = map[domain.Difficulty]string{
	domain.DifficultyEasy: "Easy: direct recall and single-step application of textbook concepts.",
	domain.DifficultyMedium: "Medium: a balanced mix of recall, application and a few multi-step " +
		"problems.",
	domain.DifficultyHard: "Hard: predominantly multi-step application, analysis and " +
		"higher-order thinking questions.",
	domain.DifficultyMixed: "Mixed: roughly 30% easy, 50% medium and 20% hard questions, spread " +
		"across every section.",
}

// data is the template input.
type data struct {
	Competitive          bool
	Class                string
	Board                string
	Subject              string
	Chapter              string
	Marks                int
	Duration             string
	Questions            int
	Sections             []Section
	DifficultyDescriptor string
	Instructions         string
	IncludeKey           bool
	Delimiter            string
}

// Builder renders prompts from a parsed template. It is safe for concurrent
// use.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder parses the template at path, or the embedded default when path
// is empty. The template is executed once against a sample request so that
// broken overrides fail at startup rather than per request.
func NewBuilder(path string) (*Builder, error) {
	text := defaultTemplate
	name := "exam_paper"
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	b := &Builder{tmpl: tmpl}
	sample := domain.GenerationRequest{
		ExamType:   domain.ExamTypeStateBoard,
		Class:      "10",
		Board:      "CBSE",
		Subject:    "Mathematics",
		Marks:      domain.AllowedMarks[0],
		Difficulty: domain.DifficultyMedium,
		IncludeKey: true,
	}
	if _, err := b.Build(sample); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}
	return b, nil
}

// Build renders the prompt for req. The same request always yields the same
// prompt.
func (b *Builder) Build(req domain.GenerationRequest) (string, error) {
	scheme, err := SchemeFor(req.ExamType, req.Marks)
	if err != nil {
		return "", err
	}

	d := data{
		Competitive:          req.ExamType == domain.ExamTypeCompetitive,
		Class:                req.Class,
		Board:                req.Board,
		Subject:              req.Subject,
		Chapter:              req.Chapter,
		Marks:                req.Marks,
		Duration:             FormatDuration(scheme.Duration),
		Questions:            scheme.Questions(),
		Sections:             scheme.Sections,
		DifficultyDescriptor: DescribeDifficulty(req.Difficulty),
		Instructions:         req.Instructions,
		IncludeKey:           req.IncludeKey,
		Delimiter:            answerkey.Delimiter,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// DescribeDifficulty returns the prompt wording for d.
func DescribeDifficulty(d domain.Difficulty) string {
	if s, ok := difficultyDescriptors[d]; ok {
		return s
	}
	return difficultyDescriptors[domain.DifficultyMedium]
}

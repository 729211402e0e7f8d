package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/generation/answerkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func algebraRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		ExamType:     domain.ExamTypeStateBoard,
		Class:        "10",
		Board:        "CBSE",
		Subject:      "Maths",
		Chapter:      "Algebra",
		Marks:        100,
		Difficulty:   domain.DifficultyMedium,
		Instructions: "Include solutions",
		IncludeKey:   true,
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder("")
	require.NoError(t, err)
	return b
}

func TestBuild_SectionOrder(t *testing.T) {
	t.Parallel()

	out, err := newTestBuilder(t).Build(algebraRequest())
	require.NoError(t, err)

	markers := []string{
		"Class 10, CBSE board, subject Maths",
		"STRUCTURE",
		"DIFFICULTY",
		"USER INSTRUCTIONS (HIGHEST PRIORITY)",
		"OUTPUT FORMAT",
		answerkey.Delimiter,
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(out, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}

	assert.Contains(t, out, `chapter "Algebra" only`)
	assert.Contains(t, out, "exactly 43 questions")
	assert.Contains(t, out, "Time allowed: 3 hours")
	assert.Contains(t, out, "Include solutions")
	assert.Contains(t, out, "take precedence over every default rule")
}

func TestBuild_IsDeterministic(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)
	first, err := b.Build(algebraRequest())
	require.NoError(t, err)
	second, err := b.Build(algebraRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_NoKeyOmitsDelimiter(t *testing.T) {
	t.Parallel()

	req := algebraRequest()
	req.IncludeKey = false

	out, err := newTestBuilder(t).Build(req)
	require.NoError(t, err)
	assert.NotContains(t, out, answerkey.Delimiter)
	assert.Contains(t, out, "Do not include answers")
}

func TestBuild_FullSyllabusAndNoInstructions(t *testing.T) {
	t.Parallel()

	req := algebraRequest()
	req.Chapter = ""
	req.Instructions = ""

	out, err := newTestBuilder(t).Build(req)
	require.NoError(t, err)
	assert.Contains(t, out, "Scope: full syllabus.")
	assert.Contains(t, out, "None. Apply the default rules above.")
}

func TestBuild_Competitive(t *testing.T) {
	t.Parallel()

	req := domain.GenerationRequest{
		ExamType:   domain.ExamTypeCompetitive,
		Class:      "12",
		Marks:      50,
		Difficulty: domain.DifficultyHard,
		IncludeKey: true,
	}

	out, err := newTestBuilder(t).Build(req)
	require.NoError(t, err)
	assert.Contains(t, out, "competitive examination practice paper for Class 12.")
	assert.Contains(t, out, "single-correct multiple choice")
	assert.Contains(t, out, "short explanation for every answer")
	assert.Contains(t, out, DescribeDifficulty(domain.DifficultyHard))
}

func TestBuild_UnknownMarks(t *testing.T) {
	t.Parallel()

	req := algebraRequest()
	req.Marks = 999
	_, err := newTestBuilder(t).Build(req)
	assert.Error(t, err)
}

func TestNewBuilder_Override(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "good.tmpl")
	require.NoError(t, os.WriteFile(good, []byte("Paper for {{.Class}} worth {{.Marks}}"), 0o600))
	b, err := NewBuilder(good)
	require.NoError(t, err)
	out, err := b.Build(algebraRequest())
	require.NoError(t, err)
	assert.Equal(t, "Paper for 10 worth 100", out)

	broken := filepath.Join(dir, "broken.tmpl")
	require.NoError(t, os.WriteFile(broken, []byte("{{.Class"), 0o600))
	_, err = NewBuilder(broken)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	unknownField := filepath.Join(dir, "field.tmpl")
	require.NoError(t, os.WriteFile(unknownField, []byte("{{.Nope}}"), 0o600))
	_, err = NewBuilder(unknownField)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewBuilder(filepath.Join(dir, "missing.tmpl"))
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestSchemeFor(t *testing.T) {
	t.Parallel()

	prevQuestions := 0
	prevLongShare := -1.0
	for _, marks := range domain.AllowedMarks {
		s, err := SchemeFor(domain.ExamTypeStateBoard, marks)
		require.NoError(t, err, "marks %d", marks)

		assert.Equal(t, marks, s.Marks(), "sections must sum to total for %d", marks)
		assert.GreaterOrEqual(t, s.Questions(), prevQuestions, "question count decreased at %d", marks)
		prevQuestions = s.Questions()

		long := 0
		for _, sec := range s.Sections {
			if sec.MarksEach == 5 {
				long = sec.Marks()
			}
			assert.Positive(t, sec.Count)
		}
		share := float64(long) / float64(marks)
		assert.GreaterOrEqual(t, share, prevLongShare-0.06, "long-answer share fell sharply at %d", marks)
		prevLongShare = share

		assert.Positive(t, s.Duration)
	}

	_, err := SchemeFor(domain.ExamTypeStateBoard, 999)
	assert.Error(t, err)
}

func TestSchemeFor_SectionNames(t *testing.T) {
	t.Parallel()

	s, err := SchemeFor(domain.ExamTypeStateBoard, 20)
	require.NoError(t, err)
	require.Len(t, s.Sections, 3, "20-mark papers have no long-answer section")
	assert.Equal(t, "A", s.Sections[0].Name)
	assert.Equal(t, "C", s.Sections[2].Name)
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45 minutes", FormatDuration(45*time.Minute))
	assert.Equal(t, "1 hour", FormatDuration(time.Hour))
	assert.Equal(t, "1 hour 30 minutes", FormatDuration(90*time.Minute))
	assert.Equal(t, "2 hours 30 minutes", FormatDuration(150*time.Minute))
	assert.Equal(t, "3 hours", FormatDuration(3*time.Hour))
}

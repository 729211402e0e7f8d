package domain

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Difficulty is the closed set of paper difficulty levels.
type Difficulty string

// Supported difficulty levels
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	DifficultyMixed  Difficulty = "Mixed"
)

// Difficulties lists every valid Difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed}

// ParseDifficulty matches s case-insensitively. An empty string yields
// DifficultyMedium.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DifficultyMedium, true
	}
	for _, d := range Difficulties {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return Difficulty(s), false
}

// ExamType selects the family of paper to produce.
type ExamType string

// Supported exam types
const (
	ExamTypeStateBoard  ExamType = "state-board"
	ExamTypeCompetitive ExamType = "competitive"
)

// ParseExamType normalises the accepted spellings of an exam type. An empty
// string yields ExamTypeStateBoard.
func ParseExamType(s string) (ExamType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "state-board", "state_board", "stateboard", "board":
		return ExamTypeStateBoard, true
	case "competitive":
		return ExamTypeCompetitive, true
	default:
		return ExamType(s), false
	}
}

// AllowedMarks is the closed set of paper totals.
var AllowedMarks = []int{20, 25, 30, 40, 50, 60, 70, 80, 90, 100}

// IsAllowedMarks reports whether m is a supported paper total.
func IsAllowedMarks(m int) bool {
	return slices.Contains(AllowedMarks, m)
}

// RequestInput carries raw, unvalidated request fields as received from the
// transport layer.
type RequestInput struct {
	ExamType     string
	Class        string
	Board        string
	Subject      string
	Chapter      string
	Marks        string
	Difficulty   string
	Instructions string
	IncludeKey   *bool
	TeacherName  string
	SchoolName   string
}

// GenerationRequest is a validated exam-paper request. It lives for a single
// HTTP call.
type GenerationRequest struct {
	ExamType     ExamType   `json:"examType"     validate:"examtype"`
	Class        string     `json:"class"        validate:"required,max=40"`
	Board        string     `json:"board"        validate:"required_if=ExamType state-board,max=80"`
	Subject      string     `json:"subject"      validate:"required_if=ExamType state-board,max=80"`
	Chapter      string     `json:"chapter"      validate:"max=160"`
	Marks        int        `json:"marks"        validate:"marks"`
	Difficulty   Difficulty `json:"difficulty"   validate:"difficulty"`
	Instructions string     `json:"instructions" validate:"max=2000"`
	IncludeKey   bool       `json:"includeKey"`
	TeacherName  string     `json:"userName"     validate:"max=120"`
	SchoolName   string     `json:"schoolName"   validate:"max=160"`
}

// FullSyllabus reports whether the request covers the whole syllabus rather
// than a single chapter.
func (r GenerationRequest) FullSyllabus() bool {
	return r.Chapter == ""
}

// Header returns the display metadata printed on the rendered paper.
func (r GenerationRequest) Header() PaperHeader {
	return PaperHeader{
		ExamType:    r.ExamType,
		Board:       r.Board,
		Class:       r.Class,
		Subject:     r.Subject,
		Chapter:     r.Chapter,
		Marks:       r.Marks,
		TeacherName: r.TeacherName,
		SchoolName:  r.SchoolName,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json names so field names in errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("marks", func(fl validator.FieldLevel) bool {
		return IsAllowedMarks(int(fl.Field().Int()))
	})
	must("difficulty", func(fl validator.FieldLevel) bool {
		_, ok := ParseDifficulty(fl.Field().String())
		return ok && fl.Field().String() != ""
	})
	must("examtype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == string(ExamTypeStateBoard) || s == string(ExamTypeCompetitive)
	})

	return v
}

// NewGenerationRequest normalises and validates raw input. It fails with a
// *ValidationError naming the first offending field.
func NewGenerationRequest(in RequestInput) (GenerationRequest, error) {
	examType, _ := ParseExamType(in.ExamType)
	difficulty, _ := ParseDifficulty(in.Difficulty)

	req := GenerationRequest{
		ExamType:     examType,
		Class:        strings.TrimSpace(in.Class),
		Board:        strings.TrimSpace(in.Board),
		Subject:      strings.TrimSpace(in.Subject),
		Chapter:      strings.TrimSpace(in.Chapter),
		Difficulty:   difficulty,
		Instructions: strings.TrimSpace(in.Instructions),
		IncludeKey:   in.IncludeKey == nil || *in.IncludeKey,
		TeacherName:  strings.TrimSpace(in.TeacherName),
		SchoolName:   strings.TrimSpace(in.SchoolName),
	}

	marks, err := parseMarks(in.Marks)
	if err != nil {
		return GenerationRequest{}, err
	}
	req.Marks = marks

	if err := req.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

// Validate checks the closed sets and required fields of the request.
func (r GenerationRequest) Validate() error {
	return translate(validate.Struct(r))
}

func parseMarks(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, NewValidationError("marks", "is required", nil)
	}
	m, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError("marks", "must be a whole number", nil)
	}
	return m, nil
}

// translate converts validator output into a *ValidationError.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("request", "is invalid", err)
	}

	fe := verrs[0]
	return NewValidationError(fe.Field(), reasonFor(fe), nil)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "max":
		return "is too long"
	case "marks":
		return "must be one of " + joinInts(AllowedMarks)
	case "difficulty":
		names := make([]string, len(Difficulties))
		for i, d := range Difficulties {
			names[i] = string(d)
		}
		return "must be one of " + strings.Join(names, ", ")
	case "examtype":
		return "must be one of state-board, competitive"
	default:
		return "is invalid"
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// Package fallback produces template exam papers offline. It is used whenever
// no generative model can serve a request, so it must never fail and never
// touch the network.
package fallback

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/generation/prompt"
	"github.com/google/uuid"
)

// stems are indexed by section weight; %s is replaced by the topic.
var stems = map[int][]string{
	1: {
		"Define a key term from %s.",
		"State one important rule or formula used in %s.",
		"Fill in the blank: the basic principle of %s is ______.",
		"True or False: every result in %s holds only in special cases.",
	},
	2: {
		"Explain briefly, with one example, a basic idea from %s.",
		"List two differences between two related concepts in %s.",
		"Give two real-life applications of %s.",
	},
	3: {
		"Solve a typical problem from %s, showing each step.",
		"Describe the steps of a standard method used in %s.",
		"Compare two approaches used in %s with a suitable example.",
	},
	5: {
		"Explain %s in detail with a labelled diagram or worked example.",
		"Discuss the most important results of %s and their uses.",
		"Solve a multi-part problem from %s and justify every step.",
	},
}

var keyHints = map[int]string{
	1: "One correct term, rule or value from %s (1 mark).",
	2: "Two correct points with an example from %s (1 mark each).",
	3: "Correct method (1), working (1) and final answer or conclusion (1) for %s.",
	5: "Introduction (1), core explanation or derivation (2), example or diagram (1) and conclusion (1) on %s.",
}

// Generator builds deterministic template papers. The zero value is ready to
// use.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// Generate returns a fallback document for req. The same request always
// yields the same paper and key text. The key is already separated and is
// empty when req.IncludeKey is false.
func (g *Generator) Generate(req domain.GenerationRequest) *domain.GeneratedDocument {
	scheme, err := prompt.SchemeFor(req.ExamType, req.Marks)
	if err != nil {
		// Unvalidated totals get the smallest scheme rather than an error.
		scheme, _ = prompt.SchemeFor(req.ExamType, domain.AllowedMarks[0])
	}

	topic := topicOf(req)
	offset := seedOf(req)

	var paper, key strings.Builder
	writeTitle(&paper, req, scheme)

	n := 0
	for _, sec := range scheme.Sections {
		fmt.Fprintf(&paper, "\n# Section %s: %s (%d x %d = %d marks)\n",
			sec.Name, sec.Label, sec.Count, sec.MarksEach, sec.Marks())

		pool := stems[sec.MarksEach]
		for i := 0; i < sec.Count; i++ {
			n++
			stem := pool[(offset+i)%len(pool)]
			fmt.Fprintf(&paper, "%d. %s [%d]\n", n, fmt.Sprintf(stem, topic), sec.MarksEach)
			if req.IncludeKey {
				fmt.Fprintf(&key, "%d. %s\n", n, fmt.Sprintf(keyHints[sec.MarksEach], topic))
			}
		}
	}

	return &domain.GeneratedDocument{
		ID:        uuid.New(),
		PaperText: strings.TrimSpace(paper.String()),
		KeyText:   strings.TrimSpace(key.String()),
		Source:    domain.SourceFallback,
	}
}

func writeTitle(b *strings.Builder, req domain.GenerationRequest, scheme prompt.Scheme) {
	var parts []string
	if req.Board != "" {
		parts = append(parts, req.Board)
	}
	parts = append(parts, "Class "+req.Class)
	if req.Subject != "" {
		parts = append(parts, req.Subject)
	}

	fmt.Fprintf(b, "# %s\n", strings.Join(parts, " - "))
	if req.FullSyllabus() {
		b.WriteString("Full syllabus\n")
	} else {
		fmt.Fprintf(b, "Chapter: %s\n", req.Chapter)
	}
	fmt.Fprintf(b, "Time allowed: %s    Maximum marks: %d\n", prompt.FormatDuration(scheme.Duration), scheme.Total)
	fmt.Fprintf(b, "Difficulty: %s\n", req.Difficulty)
	b.WriteString("\nGeneral instructions:\n")
	b.WriteString("1. All questions are compulsory.\n")
	b.WriteString("2. Marks for each question are shown in brackets.\n")
	if req.Instructions != "" {
		fmt.Fprintf(b, "3. %s\n", req.Instructions)
	}
}

func topicOf(req domain.GenerationRequest) string {
	switch {
	case req.Chapter != "":
		return req.Chapter
	case req.Subject != "":
		return req.Subject
	default:
		return "the syllabus"
	}
}

// seedOf maps the request to a stable stem rotation offset.
func seedOf(req domain.GenerationRequest) int {
	h := sha256.Sum256([]byte(strings.Join([]string{
		string(req.ExamType), req.Board, req.Class, req.Subject, req.Chapter,
		fmt.Sprint(req.Marks), string(req.Difficulty),
	}, "|")))
	return int(binary.LittleEndian.Uint64(h[:8]) % 1024)
}

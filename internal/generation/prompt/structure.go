package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/examgen/examgen-api/internal/domain"
)

// Section is one block of equally weighted questions.
type Section struct {
	Name      string
	Label     string
	MarksEach int
	Count     int
}

// Marks returns the section total.
func (s Section) Marks() int {
	return s.MarksEach * s.Count
}

// Scheme maps a paper total to its question-type distribution.
type Scheme struct {
	Total    int
	Duration time.Duration
	Sections []Section
}

// Questions returns the number of questions across all sections.
func (s Scheme) Questions() int {
	n := 0
	for _, sec := range s.Sections {
		n += sec.Count
	}
	return n
}

// Marks returns the sum of section totals. It always equals Total.
func (s Scheme) Marks() int {
	n := 0
	for _, sec := range s.Sections {
		n += sec.Marks()
	}
	return n
}

// counts per total: 1-mark, 2-mark, 3-mark, 5-mark questions. Question counts
// never decrease as the total grows and the long-answer share increases.
var schemeTable = map[int]struct {
	counts   [4]int
	duration time.Duration
}{
	20:  {[4]int{6, 4, 2, 0}, 45 * time.Minute},
	25:  {[4]int{6, 4, 2, 1}, 60 * time.Minute},
	30:  {[4]int{8, 4, 3, 1}, 60 * time.Minute},
	40:  {[4]int{10, 5, 5, 1}, 90 * time.Minute},
	50:  {[4]int{10, 5, 5, 3}, 2 * time.Hour},
	60:  {[4]int{12, 6, 7, 3}, 150 * time.Minute},
	70:  {[4]int{15, 6, 6, 5}, 150 * time.Minute},
	80:  {[4]int{16, 6, 9, 5}, 3 * time.Hour},
	90:  {[4]int{20, 5, 10, 6}, 3 * time.Hour},
	100: {[4]int{20, 5, 10, 8}, 3 * time.Hour},
}

var sectionWeights = [4]int{1, 2, 3, 5}

var sectionLabels = map[domain.ExamType][4]string{
	domain.ExamTypeStateBoard: {
		"objective / multiple choice",
		"very short answer",
		"short answer",
		"long answer",
	},
	domain.ExamTypeCompetitive: {
		"single-correct multiple choice",
		"multiple-correct or assertion-reason",
		"numerical answer",
		"descriptive / essay",
	},
}

// SchemeFor returns the structure for a paper of the given total. Totals
// outside domain.AllowedMarks are rejected.
func SchemeFor(examType domain.ExamType, marks int) (Scheme, error) {
	row, ok := schemeTable[marks]
	if !ok {
		return Scheme{}, fmt.Errorf("no mark scheme for %d marks", marks)
	}

	labels, ok := sectionLabels[examType]
	if !ok {
		labels = sectionLabels[domain.ExamTypeStateBoard]
	}

	scheme := Scheme{Total: marks, Duration: row.duration}
	for i, count := range row.counts {
		if count == 0 {
			continue
		}
		scheme.Sections = append(scheme.Sections, Section{
			Name:      string(rune('A' + len(scheme.Sections))),
			Label:     labels[i],
			MarksEach: sectionWeights[i],
			Count:     count,
		})
	}
	return scheme, nil
}

// FormatDuration renders d as "1 hour 30 minutes", "45 minutes" or "3 hours".
func FormatDuration(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)

	var parts []string
	switch {
	case h == 1:
		parts = append(parts, "1 hour")
	case h > 1:
		parts = append(parts, fmt.Sprintf("%d hours", h))
	}
	switch {
	case m == 1:
		parts = append(parts, "1 minute")
	case m > 1 || h == 0:
		parts = append(parts, fmt.Sprintf("%d minutes", m))
	}
	return strings.Join(parts, " ")
}

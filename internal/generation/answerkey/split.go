// Package answerkey splits a combined model response into question paper and
// answer key using the delimiter line the prompt asks the model to emit.
//
// The delimiter is a soft protocol: models decorate it with markdown, change
// its case or forget it entirely. A missing delimiter is reported through
// Result.Found rather than as an error; the paper is still usable.
package answerkey

import (
	"regexp"
	"strings"
)

// Delimiter is the line the prompt instructs the model to emit between the
// paper and the key.
const Delimiter = "ANSWER KEY:"

// NoticeNotFound is reported to callers when a key was requested but the
// response carried no delimiter.
const NoticeNotFound = "answer key delimiter not found"

// NoticeEmpty is reported when the delimiter was found but nothing follows it.
const NoticeEmpty = "answer key section is empty"

// delimiterPattern matches a line that starts with "answer key", optionally
// wrapped in markdown heading, emphasis, quote or bullet markers and followed
// by a colon. Key text may continue on the same line.
var delimiterPattern = regexp.MustCompile(`(?im)^[ \t#*_>\-]*answer[ \t]+key[ \t]*[*_]*[ \t]*(?:[:：][ \t]*)?[*_]*[ \t]*`)

// Result is the outcome of Split.
type Result struct {
	Paper string
	Key   string

	// Found reports whether a delimiter was located. It is always false when
	// no key was requested.
	Found bool
}

// Notice returns the soft notice for a requested key that did not arrive, or
// "" when the key is present or was not requested.
func (r Result) Notice(includeKey bool) string {
	switch {
	case !includeKey || r.Key != "":
		return ""
	case !r.Found:
		return NoticeNotFound
	default:
		return NoticeEmpty
	}
}

// Split separates text into paper and key. When includeKey is false the text
// is returned unmodified and no key is produced. When the delimiter is absent
// the whole trimmed text becomes the paper.
func Split(text string, includeKey bool) Result {
	if !includeKey {
		return Result{Paper: text}
	}

	for _, loc := range delimiterPattern.FindAllStringIndex(text, -1) {
		if !endsLine(text, loc[1]) && !hasColon(text[loc[0]:loc[1]]) {
			// "Answer key points" inside a question is not a delimiter.
			continue
		}

		paper := strings.TrimSpace(text[:loc[0]])
		if paper == "" {
			continue
		}
		return Result{
			Paper: paper,
			Key:   strings.TrimSpace(text[loc[1]:]),
			Found: true,
		}
	}

	return Result{Paper: strings.TrimSpace(text)}
}

// endsLine reports whether only trailing markup or whitespace separates pos
// from the next newline.
func endsLine(text string, pos int) bool {
	rest := text[pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.Trim(rest, " \t\r*_") == ""
}

func hasColon(s string) bool {
	return strings.ContainsAny(s, ":：")
}

package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// substitutes covers symbols common in exam papers that Windows-1252 lacks.
var substitutes = map[rune]string{
	'≤': "<=",
	'≥': ">=",
	'≠': "!=",
	'≈': "~",
	'√': "sqrt",
	'∞': "infinity",
	'−': "-",
	'→': "->",
	'⇒': "=>",
	'↔': "<->",
	'∴': "therefore",
	'∠': "angle ",
	'△': "triangle ",
	'∆': "Delta",
	'Δ': "Delta",
	'π': "pi",
	'θ': "theta",
	'α': "alpha",
	'β': "beta",
	'γ': "gamma",
	'λ': "lambda",
	'σ': "sigma",
	'Ω': "Ohm",
	'ω': "omega",
	'₹': "Rs.",
	'✓': "v",
}

// foldCP1252 converts s to Windows-1252 bytes for the core font. Runes the
// code page lacks are replaced from substitutes, then by their NFKD base
// letters, and finally by '?'.
func foldCP1252(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			sb.WriteByte(b)
			continue
		}
		if sub, ok := substitutes[r]; ok {
			sb.WriteString(sub)
			continue
		}
		sb.WriteString(decompose(r))
	}

	return sb.String()
}

// decompose strips combining marks from the compatibility decomposition of r.
func decompose(r rune) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	base, _, err := transform.String(t, string(r))
	if err != nil || base == "" {
		return "?"
	}

	var sb strings.Builder
	for _, br := range base {
		if b, ok := charmap.Windows1252.EncodeRune(br); ok {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// foldBMP replaces runes above U+FFFF, which fpdf's UTF-8 fonts cannot
// encode. Mathematical alphanumerics fold to their NFKC letters; anything
// else goes through substitutes or becomes '?'.
func foldBMP(s string) string {
	if !hasAstral(s) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			sb.WriteRune(r)
			continue
		}
		if sub, ok := substitutes[r]; ok {
			sb.WriteString(sub)
			continue
		}
		if base := norm.NFKC.String(string(r)); !hasAstral(base) {
			sb.WriteString(base)
			continue
		}
		sb.WriteByte('?')
	}
	return sb.String()
}

func hasAstral(s string) bool {
	for _, r := range s {
		if r > 0xFFFF {
			return true
		}
	}
	return false
}

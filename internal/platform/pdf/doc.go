// Package pdf renders exam papers and answer keys into paginated A4
// documents using github.com/go-pdf/fpdf.
//
// Typefaces are resolved in order: each configured TrueType file, then the
// built-in Helvetica face when permitted. Text set in the built-in face is
// folded to Windows-1252 so unsupported glyphs degrade to close substitutes
// or '?'. When no face is usable, Render fails with ErrNoTypeface.
package pdf

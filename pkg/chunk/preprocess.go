package chunk

import (
	"regexp"
	"strings"
)

var (
	// blankRunRe matches a run of two or more newline-separated blank lines.
	blankRunRe = regexp.MustCompile(`\n\s*\n+`)

	// gluedSectionRe matches a bill section header glued to preceding text.
	gluedSectionRe = regexp.MustCompile(`([^\n])(SEC\. \d+\.)`)
)

// Preprocessor normalizes raw document text before chunking. It is pure and
// idempotent: Preprocess(Preprocess(x)) == Preprocess(x).
type Preprocessor struct {
	// NormalizeSectionHeaders forces "SEC. <n>." headers onto their own
	// line when they appear glued to preceding text. Useful for
	// congressional bills; harmless for other document types.
	NormalizeSectionHeaders bool
}

// Preprocess cleans and normalizes raw document text.
func (p Preprocessor) Preprocess(raw string) string {
	// Form feeds show up in plain-text renderings of bills as page breaks.
	text := strings.ReplaceAll(raw, "\f", " ")

	// Normalize paragraph separators to exactly one blank line.
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	if p.NormalizeSectionHeaders {
		text = gluedSectionRe.ReplaceAllString(text, "$1\n$2")
	}

	return strings.TrimSpace(text)
}

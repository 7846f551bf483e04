package retrieve

import (
	"fmt"
	"regexp"
)

var sectionRe = regexp.MustCompile(`(?i)\bsection\s+(\d+)`)

// SectionReference extracts the first explicit section reference from a
// query, normalized to "Section <n>". The second return is false when the
// query names no section.
func SectionReference(query string) (string, bool) {
	m := sectionRe.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("Section %s", m[1]), true
}

package suggest

import (
	"regexp"
	"strings"
)

var (
	numbered     = regexp.MustCompile(`^[0-9]+\.`)
	numberMarker = regexp.MustCompile(`^\d+\.\s?`)
)

// ParseResponse extracts the numbered items of a provider reply.
// Escaped line continuations are joined first; unnumbered lines are dropped.
func ParseResponse(raw string) []string {
	raw = strings.ReplaceAll(raw, "\\\n", "")

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !numbered.MatchString(line) {
			continue
		}
		out = append(out, numberMarker.ReplaceAllString(line, ""))
	}
	return out
}

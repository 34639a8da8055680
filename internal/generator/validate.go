package generator

import (
	"regexp"
	"strings"
)

var quotedContentRe = regexp.MustCompile(`"[^"]+?"`)

const (
	minPatternLength = 10
	maxPatternLength = 500
)

// Plausible is the cheap structural check applied to statistical output
// before the full rule registry sees it.
func Plausible(pattern string) bool {
	if pattern == "" {
		return false
	}
	if !strings.Contains(pattern, "sound") && !strings.Contains(pattern, "note") {
		return false
	}
	if strings.Count(pattern, `"`)%2 != 0 {
		return false
	}
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}} {
		if strings.Count(pattern, pair[0]) != strings.Count(pattern, pair[1]) {
			return false
		}
	}
	if !quotedContentRe.MatchString(pattern) {
		return false
	}
	if strings.ContainsAny(pattern, `@&|;\`) {
		return false
	}
	return len(pattern) >= minPatternLength && len(pattern) <= maxPatternLength
}

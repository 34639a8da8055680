package evolution

import (
	"regexp"
	"strings"
)

var (
	eventRe       = regexp.MustCompile(`[a-z0-9]+`)
	advancedFuncs = []string{"every", "fast", "slow", "jux", "iter", "rev", "palindrome", "struct"}
)

const (
	rejectScore = -100
	silentScore = -50
)

// Score rates a candidate. Broken syntax is rejected outright; otherwise
// points come from event density, token variety, use of higher-order
// functions and euclidean rhythms, each scaled by its weight.
func Score(pattern string, w Weights) float64 {
	if len(pattern) < 5 || strings.Count(pattern, `"`)%2 != 0 || strings.Contains(pattern, "NaN") {
		return rejectScore
	}
	events := len(eventRe.FindAllString(pattern, -1))
	if events == 0 {
		return silentScore
	}

	total := 0.0

	ratio := float64(events) / (float64(len(pattern)) / 3)
	if ratio >= 0.3 && ratio <= 0.8 {
		total += 20 * w.Density
	} else {
		total -= 10 * w.Density
	}

	tokens := strings.Fields(pattern)
	unique := map[string]bool{}
	for _, t := range tokens {
		unique[t] = true
	}
	variety := float64(len(unique)) / float64(len(tokens))
	switch {
	case variety > 0.5:
		total += 15 * w.Variety
	case variety < 0.2:
		total -= 20 * w.Variety
	}

	for _, fn := range advancedFuncs {
		if strings.Contains(pattern, fn) {
			total += 10 * w.Complexity
		}
	}

	if strings.Contains(pattern, "(") && strings.Contains(pattern, ",") {
		total += 15 * w.Euclidean
	}
	return total
}

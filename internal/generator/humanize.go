package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

var humanizeRe = regexp.MustCompile(`(#\s*(?:gain|speed|pan|room|size|resonance|cutoff|lpf|hpf))\s+(\d+\.?\d*)`)

const humanizeJitter = 0.02

// Humanize jitters numeric values of level and filter effects by up to 2%.
func Humanize(src random.Source, pattern string) string {
	return humanizeRe.ReplaceAllStringFunc(pattern, func(match string) string {
		m := humanizeRe.FindStringSubmatch(match)
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return match
		}
		deviation := random.Between(src, -humanizeJitter, humanizeJitter)
		return fmt.Sprintf("%s %.3f", m[1], val+val*deviation)
	})
}

// Similarity is the Jaccard index of the whitespace token sets of a and b.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for tok := range setA {
		if setB[tok] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

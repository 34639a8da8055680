package theory

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	brokenDecimalRe = regexp.MustCompile(`\d+\.\d+(\.\d+)+`)
	restAfterQuote  = regexp.MustCompile(`"~\s+`)
)

// Sanitize repairs numeric literals with more than one decimal point by
// keeping the first dot, so "0.1.86" becomes "0.186".
func Sanitize(pattern string) string {
	return brokenDecimalRe.ReplaceAllStringFunc(pattern, func(num string) string {
		parts := strings.Split(num, ".")
		return parts[0] + "." + strings.Join(parts[1:], "")
	})
}

// Syncopation scores rhythmic displacement in [0, 1].
func Syncopation(pattern string) float64 {
	score := 0.0
	if restAfterQuote.MatchString(pattern) {
		score += 0.3
	}
	if strings.Contains(pattern, "[") {
		score += 0.2
	}
	if strings.Contains(pattern, "(") {
		score += 0.2
	}
	if strings.Contains(pattern, "~") {
		score += 0.1
	}
	if strings.Count(pattern, "~") > 2 {
		score += 0.2
	}
	return min(1.0, score)
}

// Variety is the ratio of distinct to total whitespace-separated tokens.
func Variety(pattern string) float64 {
	tokens := strings.Fields(pattern)
	if len(tokens) == 0 {
		return 0
	}
	unique := map[string]bool{}
	for _, t := range tokens {
		unique[t] = true
	}
	return min(1.0, float64(len(unique))/float64(len(tokens)))
}

var styleInsights = map[string]string{
	"glitch":        "The signal is fragmented into the micro-artifacts typical of glitch.",
	"ambient":       "The focus is on negative space and ethereal textures, keeping direct percussion to a minimum.",
	"trap":          "High-frequency hi-hat rolls give the pattern its urgency.",
	"drum_and_bass": "The base is a deconstructed breakbeat with heavy syncopation, a nod to classic jungle.",
	"cyberpunk":     "An aggressive, industrial aesthetic with the emphasis on digital processing.",
	"industrial":    "Saturation and metallic noise lead the sound design.",
}

var insightEffects = []string{"gain", "delay", "room", "size", "cutoff", "hpf", "lpf", "crush"}

// Insight describes the musical intent of pattern in plain language.
func Insight(pattern, style string) string {
	var out []string
	lower := strings.ToLower(pattern)

	score := Syncopation(pattern)
	switch {
	case score > 0.6:
		out = append(out, fmt.Sprintf("Syncopation is high (%d%%), adding an aggressive, dynamic groove.", int(score*100)))
	case score < 0.2 && strings.Contains(lower, "bd"):
		out = append(out, "The rhythm is stable and centered, built to hold the pulse on the floor.")
	}
	if Variety(pattern) > 0.7 {
		out = append(out, "Token variety is high, giving a nuanced pattern with little repetition.")
	}

	switch {
	case strings.Contains(lower, "bd*4") || strings.Contains(lower, "bd * 4"):
		out = append(out, "A four-on-the-floor kick anchors the groove.")
	case strings.Contains(lower, "bd") && strings.Contains(lower, "("):
		out = append(out, "Euclidean distribution brings a natural mathematical complexity to the rhythm.")
	}

	if strings.Contains(lower, "sn") || strings.Contains(lower, "cp") {
		if strings.Contains(lower, "every") {
			out = append(out, "Conditional snare variations add an organic swing that breathes.")
		} else {
			out = append(out, "The backbeat is aligned for maximum rhythmic impact.")
		}
	}

	var fx []string
	for _, name := range insightEffects {
		if strings.Contains(lower, name) {
			fx = append(fx, name)
		}
	}
	if len(fx) > 2 {
		out = append(out, fmt.Sprintf("The effect chain (%s) adds spatial depth.", strings.Join(fx[:2], ", ")))
	}

	if text, ok := styleInsights[normalizeStyle(style)]; ok {
		out = append(out, text)
	}

	if len(out) == 0 {
		return "All parameters are balanced for overall musical coherence."
	}
	return strings.Join(out, " ")
}

// Package minilang holds the lexical helpers shared by generation, mutation and
// validation of mini-notation patterns.
package minilang

import (
	"fmt"
	"regexp"
	"strings"
)

// EffectJoin separates the source of a pattern from its effect chain.
const EffectJoin = "#"

var (
	channelPrefixRe = regexp.MustCompile(`^d\d+\s*\$\s*`)
	sourceRe        = regexp.MustCompile(`^(sound|s|note|n|midinote|drum|kick|snare|hihat|clap|tabla)\b`)
	modifierRe      = regexp.MustCompile(`^(lpf|hpf|room|size|delay|gain|pan|orbit|crush|shape|speed|accelerate|vowel|cutoff|resonance)\b`)
	firstWordRe     = regexp.MustCompile(`^\w+`)

	dollarSpacingRe = regexp.MustCompile(`\$([^\s)])`)
	zeroSpeedRe     = regexp.MustCompile(`#\s*speed\s+0(?:\.0+)?([^\d.]|$)`)
	looseOperandRe  = regexp.MustCompile(`([*/])\s+(\d)`)
)

// StripChannel removes a leading "dN $" channel selector.
func StripChannel(pattern string) string {
	return channelPrefixRe.ReplaceAllString(strings.TrimSpace(pattern), "")
}

// WithChannel prefixes pattern with the "dN $" selector for channel n.
func WithChannel(n int, pattern string) string {
	return fmt.Sprintf("d%d $ %s", n, StripChannel(pattern))
}

// Segments splits a pattern on the effect join operator, dropping empty parts.
func Segments(pattern string) []string {
	raw := strings.Split(pattern, EffectJoin)
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsSource reports whether a segment starts with a sound source keyword.
func IsSource(segment string) bool {
	return sourceRe.MatchString(strings.TrimSpace(segment))
}

// IsModifier reports whether a segment starts with a common effect parameter.
func IsModifier(segment string) bool {
	return modifierRe.MatchString(strings.TrimSpace(segment))
}

// ParamName returns the leading word of a segment, used as the effect key.
func ParamName(segment string) string {
	return firstWordRe.FindString(strings.TrimSpace(segment))
}

// Normalize repairs spacing and value mistakes that statistical generation
// produces: "$" glued to its operand, "speed 0" (which silences a voice) and
// repetition or slow-down operators separated from their number.
func Normalize(pattern string) string {
	out := dollarSpacingRe.ReplaceAllString(pattern, "$$ $1")
	out = zeroSpeedRe.ReplaceAllString(out, "# speed 0.1$1")
	out = looseOperandRe.ReplaceAllString(out, "$1$2")
	return out
}

// Dedupe keeps the first occurrence of each effect parameter and rejoins the
// chain with " # ". The leading segment is kept as the source.
func Dedupe(pattern string) string {
	segments := Segments(pattern)
	if len(segments) == 0 {
		return strings.TrimSpace(pattern)
	}

	seen := map[string]bool{}
	kept := []string{segments[0]}
	if name := ParamName(segments[0]); name != "" {
		seen[name] = true
	}
	for _, seg := range segments[1:] {
		name := ParamName(seg)
		if name == "" {
			kept = append(kept, seg)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		kept = append(kept, seg)
	}
	return strings.Join(kept, " "+EffectJoin+" ")
}

// HasEffect reports whether the effect chain already carries param.
func HasEffect(pattern, param string) bool {
	segments := Segments(pattern)
	for i := 1; i < len(segments); i++ {
		if ParamName(segments[i]) == param {
			return true
		}
	}
	return false
}

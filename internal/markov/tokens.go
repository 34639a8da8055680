package markov

import (
	"regexp"
	"strings"
)

var (
	lineCommentRe = regexp.MustCompile(`(?m)--.*$`)
	// Decimal literals stay whole so a round trip never splits "0.25" into "0 25".
	tokenRe = regexp.MustCompile(`\d+(?:\.\d+)+|\w+|[*+\-/()\[\]{}$#"<>~,]`)
)

var (
	noSpaceBefore = map[string]bool{")": true, "]": true, "}": true, ",": true, "*": true, "+": true, "-": true, "/": true}
	noSpaceAfter  = map[string]bool{"(": true, "[": true, "{": true, "$": true, "#": true}
)

// Tokenize strips "--" line comments and splits text into words, decimal
// literals and mini-notation punctuation. Anything else is dropped.
func Tokenize(text string) []string {
	clean := lineCommentRe.ReplaceAllString(text, "")
	return tokenRe.FindAllString(clean, -1)
}

// Reconstruct joins tokens back into a pattern. Quotes alternate between
// opening (glued to what follows) and closing (glued to what precedes), so
// `sound "bd sn"` survives a Tokenize/Reconstruct round trip unchanged.
func Reconstruct(tokens []string) string {
	var b strings.Builder
	inQuote := false
	prev := ""
	prevOpened := false

	for i, tok := range tokens {
		closing := tok == `"` && inQuote
		if i > 0 {
			glued := noSpaceBefore[tok] || closing || noSpaceAfter[prev] || prevOpened
			if !glued {
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok)

		prevOpened = false
		if tok == `"` {
			prevOpened = !inQuote
			inQuote = !inQuote
		}
		prev = tok
	}
	return b.String()
}

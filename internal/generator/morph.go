package generator

import (
	"sort"

	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// MorphResult is an interpolated pattern plus the ratio that produced it.
type MorphResult struct {
	models.GenerationResult
	Ratio float64 `json:"ratio"`
}

const (
	morphLowerBound = 0.2
	morphUpperBound = 0.8
)

// Morph interpolates between a and b. Ratios at or below 0.2 return a
// verbatim and at or above 0.8 return b; in between, two order-1 tables
// are blended with weights 1-ratio and ratio.
func (o *Orchestrator) Morph(a, b string, ratio float64) MorphResult {
	ratio = clamp01(ratio)
	switch {
	case ratio <= morphLowerBound:
		return MorphResult{GenerationResult: models.GenerationResult{Pattern: a, Thoughts: []models.Thought{}}, Ratio: ratio}
	case ratio >= morphUpperBound:
		return MorphResult{GenerationResult: models.GenerationResult{Pattern: b, Thoughts: []models.Thought{}}, Ratio: ratio}
	}
	return MorphResult{GenerationResult: morph(o.src, a, b, ratio), Ratio: ratio}
}

type bigrams map[string]map[string]int

func buildBigrams(tokens []string) bigrams {
	t := bigrams{}
	for i := 0; i+1 < len(tokens); i++ {
		if t[tokens[i]] == nil {
			t[tokens[i]] = map[string]int{}
		}
		t[tokens[i]][tokens[i+1]]++
	}
	return t
}

func morph(src random.Source, a, b string, ratio float64) models.GenerationResult {
	tokensA := markov.Tokenize(a)
	tokensB := markov.Tokenize(b)
	tableA := buildBigrams(tokensA)
	tableB := buildBigrams(tokensB)

	var current string
	switch {
	case len(tokensA) == 0 && len(tokensB) == 0:
		return models.GenerationResult{Thoughts: []models.Thought{}}
	case len(tokensB) == 0:
		current = tokensA[0]
	case len(tokensA) == 0:
		current = tokensB[0]
	case random.Chance(src, ratio):
		current = tokensB[0]
	default:
		current = tokensA[0]
	}

	result := []string{current}
	thoughts := []models.Thought{}
	steps := int(float64(len(tokensA))*(1-ratio) + float64(len(tokensB))*ratio)

	for range steps {
		combined := map[string]float64{}
		addWeighted(combined, tableA[current], 1-ratio)
		addWeighted(combined, tableB[current], ratio)
		if len(combined) == 0 {
			break
		}

		candidates := make([]string, 0, len(combined))
		for tok := range combined {
			candidates = append(candidates, tok)
		}
		sort.Strings(candidates)
		total := 0.0
		for _, tok := range candidates {
			total += combined[tok]
		}
		if total <= 0 {
			break
		}
		weights := make([]float64, len(candidates))
		for i, tok := range candidates {
			weights[i] = combined[tok] / total
		}

		idx := random.Weighted(src, weights)
		current = candidates[idx]
		result = append(result, current)
		thoughts = append(thoughts, models.Thought{
			Token:        current,
			Prob:         weights[idx],
			Alternatives: topAlternatives(candidates, weights, 2),
		})
	}

	return models.GenerationResult{Pattern: markov.Reconstruct(result), Thoughts: thoughts}
}

func addWeighted(dst map[string]float64, counts map[string]int, weight float64) {
	if len(counts) == 0 || weight <= 0 {
		return
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	for tok, c := range counts {
		dst[tok] += float64(c) / float64(total) * weight
	}
}

func topAlternatives(candidates []string, probs []float64, k int) []models.Alternative {
	alts := make([]models.Alternative, len(candidates))
	for i := range candidates {
		alts[i] = models.Alternative{Token: candidates[i], Prob: probs[i]}
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Prob > alts[j].Prob })
	if len(alts) > k {
		alts = alts[:k]
	}
	return alts
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

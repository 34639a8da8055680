package generator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/tidal-companion/internal/minilang"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// ErrEmptyPattern is returned when an operator receives no pattern.
var ErrEmptyPattern = errors.New("empty pattern")

var (
	// Quoted spans stay atomic so whole sample sequences can be rotated.
	mutateTokenRe = regexp.MustCompile(`"[^"]*"|\d+(?:\.\d+)?|\w+|\S`)
	numberRe      = regexp.MustCompile(`^\d+(\.\d+)?$`)
	wordRe        = regexp.MustCompile(`^\w+$`)
)

// Sample names that identify a drum role inside a single-word quote.
var mutateRoles = map[string]string{
	"bd": RoleKick, "kick": RoleKick, "bass": RoleKick,
	"sn": RoleSnare, "sd": RoleSnare, "snare": RoleSnare,
	"hh": RoleHihat, "hat": RoleHihat, "hc": RoleHihat,
}

const maxMutatedValue = 32

var (
	forcedEffects = []string{
		"# speed 1.5", "# lpf 1000", `# vowel "a"`, "# crush 3",
		"# coarse 4", "# shape 0.3", "# pan 0.25", "# delay 0.25",
	}
	extraEffects = []string{"# lpf 2000", "# crush 4", "# room 0.3", "# speed 1.2"}
)

// Mutate perturbs numbers, samples, sequences and join operators with
// probabilities scaled by strength. Any strength above 0.1 is guaranteed
// to change the pattern.
func (o *Orchestrator) Mutate(pattern string, strength float64) (models.GenerationResult, error) {
	if strings.TrimSpace(pattern) == "" {
		return models.GenerationResult{}, ErrEmptyPattern
	}
	return mutate(o.src, o.rules.Library(), pattern, strength), nil
}

func mutate(src random.Source, lib *Library, pattern string, strength float64) models.GenerationResult {
	core := minilang.StripChannel(pattern)
	tokens := mutateTokenRe.FindAllString(core, -1)
	thoughts := []models.Thought{}
	changed := false

	for i, tok := range tokens {
		seed := src.Float64()
		switch {
		case numberRe.MatchString(tok) && seed < strength*0.4:
			val, _ := strconv.ParseFloat(tok, 64)
			next := 1.0
			if val > 0 {
				next = val * 2
				if random.Chance(src, 0.5) {
					next = val * 0.5
				}
			}
			next = min(next, maxMutatedValue)
			repl := formatMutated(next)
			if repl != tok {
				tokens[i] = repl
				changed = true
				thoughts = append(thoughts, thought("NUM_MUT", strength, tok+" -> "+repl))
			}

		case len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && seed < strength*0.3:
			content := tok[1 : len(tok)-1]
			if wordRe.MatchString(content) {
				role, ok := mutateRoles[content]
				if !ok || len(lib.Drums[role]) == 0 {
					continue
				}
				sample := random.Pick(src, lib.Drums[role])
				if sample != content {
					tokens[i] = `"` + sample + `"`
					changed = true
					thoughts = append(thoughts, thought("SMP_MUT", strength, content+" -> "+sample))
				}
			} else if parts := strings.Fields(content); len(parts) > 1 {
				rotated := append(append([]string{}, parts[1:]...), parts[0])
				repl := `"` + strings.Join(rotated, " ") + `"`
				if repl != tok {
					tokens[i] = repl
					changed = true
					thoughts = append(thoughts, thought("ROT_MUT", strength, "Rhythmic rotation"))
				}
			}

		case tok == minilang.EffectJoin && seed < strength*0.1:
			tokens[i] = "|"
			changed = true
			thoughts = append(thoughts, thought("OP_MUT", strength, "# -> |"))
		}
	}

	out := strings.Join(tokens, " ")

	if !changed && strength > 0.1 {
		fx := forcedEffect(src, out)
		out += " " + fx
		thoughts = append(thoughts, thought("FORCE_MUT", 1, "Forced change: "+fx))
	}
	if strength > 0.6 && !strings.Contains(out, minilang.EffectJoin) {
		fx := random.Pick(src, extraEffects)
		out += " " + fx
		thoughts = append(thoughts, thought("FX_ADD", strength, fx))
	}

	out = minilang.Dedupe(minilang.Normalize(out))

	if strength > 0.1 && out == strings.TrimSpace(pattern) {
		out = "every 2 (fast 2) $ " + out
		thoughts = append(thoughts, thought("FORCE_MUT", 1, "Forced change: every 2 (fast 2)"))
	}
	return models.GenerationResult{Pattern: out, Thoughts: thoughts}
}

// forcedEffect picks an effect whose parameter is not already in the
// chain, so deduplication cannot swallow it.
func forcedEffect(src random.Source, pattern string) string {
	var fresh []string
	for _, fx := range forcedEffects {
		if !minilang.HasEffect(pattern, minilang.ParamName(strings.TrimPrefix(fx, "#"))) {
			fresh = append(fresh, fx)
		}
	}
	if len(fresh) == 0 {
		return random.Pick(src, forcedEffects)
	}
	return random.Pick(src, fresh)
}

func formatMutated(v float64) string {
	if v == float64(int(v)) {
		return strconv.Itoa(int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

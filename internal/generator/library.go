package generator

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// Drum sub-roles.
const (
	RoleKick   = "kick"
	RoleSnare  = "snare"
	RoleHihat  = "hihat"
	RoleClap   = "clap"
	RoleTom    = "tom"
	RoleCymbal = "cymbal"
)

// Non-drum sample categories.
const (
	CategoryBass       = "bass"
	CategoryMelody     = "melody"
	CategoryPercussion = "percussion"
	CategoryFX         = "fx"
)

var drumRoles = []string{RoleKick, RoleSnare, RoleHihat, RoleClap, RoleTom, RoleCymbal}

// Library is the sample pool the template generators draw from.
type Library struct {
	Drums      map[string][]string `yaml:"drums" json:"drums"`
	Bass       []string            `yaml:"bass" json:"bass"`
	Melody     []string            `yaml:"melody" json:"melody"`
	Percussion []string            `yaml:"percussion" json:"percussion"`
	FX         []string            `yaml:"fx" json:"fx"`
}

// LoadLibrary parses a YAML sample library. Kick, snare, hihat and every
// non-drum pool must be non-empty.
func LoadLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse sample library: %w", err)
	}
	if lib.Drums == nil {
		lib.Drums = map[string][]string{}
	}
	if err := lib.validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

func (l *Library) validate() error {
	for _, role := range []string{RoleKick, RoleSnare, RoleHihat} {
		if len(l.Drums[role]) == 0 {
			return fmt.Errorf("sample library: drums.%s is empty", role)
		}
	}
	pools := map[string][]string{
		CategoryBass:       l.Bass,
		CategoryMelody:     l.Melody,
		CategoryPercussion: l.Percussion,
		CategoryFX:         l.FX,
	}
	for name, pool := range pools {
		if len(pool) == 0 {
			return fmt.Errorf("sample library: %s is empty", name)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (l *Library) Clone() *Library {
	out := &Library{
		Drums:      make(map[string][]string, len(l.Drums)),
		Bass:       append([]string(nil), l.Bass...),
		Melody:     append([]string(nil), l.Melody...),
		Percussion: append([]string(nil), l.Percussion...),
		FX:         append([]string(nil), l.FX...),
	}
	for role, names := range l.Drums {
		out.Drums[role] = append([]string(nil), names...)
	}
	return out
}

// AllDrums flattens the drum pools in role order.
func (l *Library) AllDrums() []string {
	var all []string
	for _, role := range drumRoles {
		all = append(all, l.Drums[role]...)
	}
	return all
}

// Classify assigns a custom sample name to a pool. Rules are checked in
// order and the first match wins; anything unmatched is treated as fx.
func Classify(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "bd") || strings.Contains(n, "kick"):
		return RoleKick
	case strings.HasPrefix(n, "sn") || strings.Contains(n, "snare") || strings.Contains(n, "sd"):
		return RoleSnare
	case strings.HasPrefix(n, "hh") || strings.Contains(n, "hat"):
		return RoleHihat
	case strings.Contains(n, "clap") || strings.Contains(n, "cp"):
		return RoleClap
	case strings.Contains(n, "bass") || strings.Contains(n, "moog") || strings.Contains(n, "808"):
		return CategoryBass
	case strings.Contains(n, "perc") || strings.Contains(n, "tabla") || strings.Contains(n, "glitch"):
		return CategoryPercussion
	default:
		return CategoryFX
	}
}

// Merge returns a copy of l with the user bank classified into it.
// Names already present in their pool are skipped.
func (l *Library) Merge(names []string) *Library {
	out := l.Clone()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch cat := Classify(name); cat {
		case CategoryBass:
			out.Bass = appendUnique(out.Bass, name)
		case CategoryPercussion:
			out.Percussion = appendUnique(out.Percussion, name)
		case CategoryFX:
			out.FX = appendUnique(out.FX, name)
		default:
			out.Drums[cat] = appendUnique(out.Drums[cat], name)
		}
	}
	return out
}

func appendUnique(pool []string, name string) []string {
	for _, existing := range pool {
		if existing == name {
			return pool
		}
	}
	return append(pool, name)
}

type samplePool struct {
	name    string
	samples []string
}

// pools lists every pool with its name, drums first.
func (l *Library) pools() []samplePool {
	out := make([]samplePool, 0, len(drumRoles)+4)
	for _, role := range drumRoles {
		out = append(out, samplePool{role, l.Drums[role]})
	}
	return append(out,
		samplePool{CategoryBass, l.Bass},
		samplePool{CategoryMelody, l.Melody},
		samplePool{CategoryPercussion, l.Percussion},
		samplePool{CategoryFX, l.FX},
	)
}

// CategoryOf returns the pool containing sample, or "" if none does.
func (l *Library) CategoryOf(sample string) string {
	for _, p := range l.pools() {
		for _, name := range p.samples {
			if name == sample {
				return p.name
			}
		}
	}
	return ""
}

func (l *Library) pool(category string) []string {
	for _, p := range l.pools() {
		if p.name == category {
			return p.samples
		}
	}
	return nil
}

var leadSampleRe = regexp.MustCompile(`"(\w+)`)

// Suggest proposes up to count alternatives to the first quoted sample of
// pattern, drawn from the same pool. Samples outside the library get
// percussion and kick suggestions.
func (l *Library) Suggest(src random.Source, pattern string, count int) []string {
	m := leadSampleRe.FindStringSubmatch(pattern)
	if m == nil || count <= 0 {
		return []string{}
	}
	current := m[1]

	var candidates []string
	if cat := l.CategoryOf(current); cat != "" {
		candidates = l.pool(cat)
	} else {
		candidates = append(append([]string(nil), l.Percussion...), l.Drums[RoleKick]...)
	}

	filtered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != current {
			filtered = append(filtered, c)
		}
	}
	// Partial Fisher-Yates keeps the draw unbiased without mutating the pool.
	for i := 0; i < len(filtered) && i < count; i++ {
		j := i + src.IntN(len(filtered)-i)
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}
	if len(filtered) > count {
		filtered = filtered[:count]
	}
	return filtered
}

// ReplaceSample swaps every whole-word occurrence of old for replacement.
func ReplaceSample(pattern, old, replacement string) string {
	if pattern == "" || old == "" {
		return pattern
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	return re.ReplaceAllLiteralString(pattern, replacement)
}

package generator

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

var euclidRe = regexp.MustCompile(`\((\d+),(\d+)\)`)

func singleSampleLibrary(melody string) *Library {
	return &Library{
		Drums: map[string][]string{
			RoleKick:  {"bd"},
			RoleSnare: {"sn"},
			RoleHihat: {"hh"},
		},
		Bass:       []string{"bass1"},
		Melody:     []string{melody},
		Percussion: []string{"tabla"},
		FX:         []string{"insect"},
	}
}

func TestParsePatternType(t *testing.T) {
	got, err := ParsePatternType(" Drums ")
	require.NoError(t, err)
	assert.Equal(t, TypeDrums, got)

	_, err = ParsePatternType("vocals")
	assert.ErrorIs(t, err, ErrUnknownPatternType)
}

func TestDrumsStructure(t *testing.T) {
	g := NewRuleGenerator(defaultLibrary(t), random.New(1))

	tests := []struct {
		name       string
		complexity float64
		prefix     string
		contains   []string
		excludes   []string
	}{
		{
			name:       "simple",
			complexity: 0.1,
			prefix:     `sound "bd*5 sn*2"`,
			excludes:   []string{"#"},
		},
		{
			name:       "three voices",
			complexity: 0.5,
			prefix:     `sound "bd*5 sn*2 hh*10"`,
			contains:   []string{"\n  # speed "},
			excludes:   []string{"room", "gain"},
		},
		{
			name:       "euclidean",
			complexity: 0.9,
			prefix:     `sound "bd(5,8) sn(2,8) hh*10"`,
			contains:   []string{"# speed ", "# room ", "# gain "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Drums(Params{Density: 0.5, Complexity: tt.complexity, Style: "house"})
			assert.True(t, strings.HasPrefix(res.Pattern, tt.prefix), res.Pattern)
			for _, s := range tt.contains {
				assert.Contains(t, res.Pattern, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, res.Pattern, s)
			}
			assert.NotEmpty(t, res.Thoughts)
		})
	}
}

func TestDrumsEuclidStepsNeverBelowHits(t *testing.T) {
	g := NewRuleGenerator(defaultLibrary(t), random.New(2))
	for d := 0.0; d <= 1.0; d += 0.1 {
		res := g.Drums(Params{Density: d, Complexity: 0.9, Style: "techno"})
		for _, m := range euclidRe.FindAllStringSubmatch(res.Pattern, -1) {
			k, _ := strconv.Atoi(m[1])
			n, _ := strconv.Atoi(m[2])
			assert.LessOrEqual(t, k, n, res.Pattern)
		}
	}
}

func TestDrumsFrictionRecordsSwap(t *testing.T) {
	g := NewRuleGenerator(defaultLibrary(t), random.New(3))
	res := g.Drums(Params{Density: 0.5, Complexity: 0.5, Style: "house", Friction: 1})
	assert.Equal(t, "FRICTION", res.Thoughts[0].Token)
	assert.Contains(t, res.Thoughts[0].Alternatives[0].Token, "Swap ")
}

func TestBass(t *testing.T) {
	g := NewRuleGenerator(singleSampleLibrary("arpy"), random.New(4))
	for _, c := range []float64{0.2, 0.8} {
		res := g.Bass(Params{Density: 0.5, Complexity: c})
		assert.True(t, strings.HasPrefix(res.Pattern, `note "`))
		assert.Contains(t, res.Pattern, `# sound "bass1"`)
		notes := strings.Fields(strings.Split(res.Pattern, `"`)[1])
		assert.Len(t, notes, 5)
		assert.Equal(t, c >= 0.5, strings.Contains(res.Pattern, "slow 4 sine"))
	}
}

func TestMelodyEncoding(t *testing.T) {
	minor := map[int]bool{}
	for _, n := range minorScale {
		minor[60+n] = true
	}

	synth := NewRuleGenerator(singleSampleLibrary("superpiano"), random.New(5))
	res := synth.Melody(Params{Density: 1, Complexity: 0.9, Style: "techno"})
	notes := strings.Fields(strings.Split(res.Pattern, `"`)[1])
	assert.Len(t, notes, 12)
	for _, n := range notes {
		v, err := strconv.Atoi(n)
		require.NoError(t, err)
		assert.True(t, minor[v], "note %d outside the minor scale", v)
	}
	assert.Contains(t, res.Pattern, "# room ")
	assert.Contains(t, res.Pattern, "# lpf (range 500 5000 $ slow 8 sine)")

	sampled := NewRuleGenerator(singleSampleLibrary("arpy"), random.New(5))
	res = sampled.Melody(Params{Density: 0, Complexity: 0.1, Style: "house"})
	notes = strings.Fields(strings.Split(res.Pattern, `"`)[1])
	assert.Len(t, notes, 4)
	for _, n := range notes {
		v, err := strconv.Atoi(n)
		require.NoError(t, err)
		assert.True(t, v >= 0 && v <= 8)
	}
	assert.NotContains(t, res.Pattern, "# room")
}

func TestPercussion(t *testing.T) {
	g := NewRuleGenerator(singleSampleLibrary("arpy"), random.New(6))

	res := g.Percussion(Params{Density: 0.5, Complexity: 0.2})
	assert.Equal(t, `sound "tabla*10"`, res.Pattern)

	res = g.Percussion(Params{Density: 0.5, Complexity: 0.8})
	assert.Equal(t, "sound \"tabla(10,10)\"\n  # speed (range 0.8 1.5 $ slow 4 sine)", res.Pattern)
}

func TestFX(t *testing.T) {
	g := NewRuleGenerator(singleSampleLibrary("arpy"), random.New(8))

	res := g.FX(Params{Density: 0.5, Complexity: 0.5})
	assert.Equal(t, "sound \"insect\"\n  # gain 0.45\n  # room 0.70\n  # size 0.85", res.Pattern)

	res = g.FX(Params{Density: 0.5, Complexity: 0.5, Friction: 1})
	assert.Contains(t, res.Pattern, "# striate ")
}

func TestGenerateUnknownType(t *testing.T) {
	g := NewRuleGenerator(defaultLibrary(t), random.New(9))
	_, err := g.Generate("vocals", Params{})
	assert.ErrorIs(t, err, ErrUnknownPatternType)
}

package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/random"
	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

func defaultLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := LoadLibrary(embedded.SamplesYAML)
	require.NoError(t, err)
	return lib
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"bd909", RoleKick},
		{"hardkick", RoleKick},
		{"sn_dry", RoleSnare},
		{"bigsnare", RoleSnare},
		{"hh27", RoleHihat},
		{"openhat", RoleHihat},
		{"handclap", RoleClap},
		{"cp2", RoleClap},
		{"moogy", CategoryBass},
		{"tr808", CategoryBass},
		{"glitchy", CategoryPercussion},
		{"tabla3", CategoryPercussion},
		{"birds", CategoryFX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestLoadLibraryRejectsEmptyPools(t *testing.T) {
	_, err := LoadLibrary([]byte("drums:\n  kick: [bd]\n"))
	assert.Error(t, err)

	_, err = LoadLibrary([]byte("{{{"))
	assert.Error(t, err)
}

func TestMergeClassifiesWithoutMutatingOriginal(t *testing.T) {
	lib := defaultLibrary(t)
	kicks := len(lib.Drums[RoleKick])

	merged := lib.Merge([]string{"bdx", "snarey", "tabla9", "weird", "bd", " "})

	assert.Contains(t, merged.Drums[RoleKick], "bdx")
	assert.Contains(t, merged.Drums[RoleSnare], "snarey")
	assert.Contains(t, merged.Percussion, "tabla9")
	assert.Contains(t, merged.FX, "weird")
	assert.Len(t, merged.Drums[RoleKick], kicks+1, "existing names are not duplicated")
	assert.Len(t, lib.Drums[RoleKick], kicks)
	assert.NotContains(t, lib.FX, "weird")
}

func TestSuggest(t *testing.T) {
	lib := defaultLibrary(t)
	src := random.New(7)

	got := lib.Suggest(src, `sound "bd sn"`, 2)
	assert.ElementsMatch(t, []string{"bass", "bass3"}, got)

	got = lib.Suggest(src, `sound "zzz"`, 3)
	assert.Len(t, got, 3)
	assert.NotContains(t, got, "zzz")

	assert.Empty(t, lib.Suggest(src, "no quotes here", 4))
}

func TestReplaceSample(t *testing.T) {
	got := ReplaceSample(`sound "bd sn bd*2 bdx"`, "bd", "kick")
	assert.Equal(t, `sound "kick sn kick*2 bdx"`, got)
	assert.Equal(t, "", ReplaceSample("", "bd", "kick"))
}

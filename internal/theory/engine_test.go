package theory

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

func defaultConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := ParseConfig(embedded.TheoryRulesJSON)
	require.NoError(t, err)
	return cfg
}

func newEngine(t *testing.T) (*Engine, *MemoryStore) {
	t.Helper()
	store := &MemoryStore{}
	e, err := NewEngine(store, defaultConfig(t))
	require.NoError(t, err)
	return e, store
}

func TestEveryDefaultRuleCompiles(t *testing.T) {
	for scope, defs := range defaultConfig(t) {
		for _, def := range defs {
			_, err := Compile(def)
			assert.NoError(t, err, "%s/%s", scope, def.ID)
		}
	}
}

func TestNewEngineWritesDefaultsWhenMissing(t *testing.T) {
	e, store := newEngine(t)
	assert.Equal(t, 1, store.Saves())
	assert.Contains(t, e.Styles(), "house")
	assert.NotContains(t, e.Styles(), GeneralScope)
}

func TestNewEngineRecoversFromCorruptConfig(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save([]byte("{not json")))

	e, err := NewEngine(store, defaultConfig(t))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Saves())
	assert.Len(t, e.Rules()[GeneralScope], len(defaultConfig(t)[GeneralScope]))
}

func TestNewEngineMigratesMissingGeneralRules(t *testing.T) {
	partial := Config{
		GeneralScope: {{ID: "no_empty_pattern", Kind: KindPredicate, Active: false}},
		"house":      {{ID: "house_four_on_floor", Kind: KindPredicate, Active: true}},
	}
	data, err := json.Marshal(partial)
	require.NoError(t, err)
	store := &MemoryStore{}
	require.NoError(t, store.Save(data))

	e, err := NewEngine(store, defaultConfig(t))
	require.NoError(t, err)

	general := e.Rules()[GeneralScope]
	assert.Len(t, general, len(defaultConfig(t)[GeneralScope]))
	assert.Equal(t, "no_empty_pattern", general[0].ID)
	assert.False(t, general[0].Active, "existing rules keep their state")
	assert.Equal(t, 2, store.Saves())

	persisted, err := store.Load()
	require.NoError(t, err)
	cfg, err := ParseConfig(persisted)
	require.NoError(t, err)
	assert.Len(t, cfg[GeneralScope], len(general))
}

func TestActiveDefaultsToTrue(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"general":[{"id":"balanced_parens","type":"method"}]}`))
	require.NoError(t, err)
	assert.True(t, cfg[GeneralScope][0].Active)
}

func TestValidateHouseFourOnFloor(t *testing.T) {
	e, _ := newEngine(t)

	res := e.Validate(`sound "pad" # gain 10`, "house")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Issues, "[HOUSE] House requires four-on-floor kick (bd*4 or bd*8)")

	res = e.Validate(`sound "bd*4 hh*8"`, "house")
	assert.True(t, res.Valid, res.Issues)
}

func TestValidateUnknownStyleUsesGeneralOnly(t *testing.T) {
	e, _ := newEngine(t)
	res := e.Validate(`sound "pad"`, "polka")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Issues)
}

func TestValidateLabelsScopes(t *testing.T) {
	e, _ := newEngine(t)
	res := e.Validate(`sound "bd(5,3)"`, "Techno")
	require.False(t, res.Valid)
	assert.Equal(t, "[GENERAL] Invalid Euclidean: (5,3) - k must be <= n", res.Issues[0])
	for _, issue := range res.Issues[1:] {
		assert.True(t, strings.HasPrefix(issue, "[TECHNO] "), issue)
	}
}

func TestGeneralRegexRuleIsForbidden(t *testing.T) {
	e, _ := newEngine(t)
	res := e.Validate(`sound "bd ~ ~ sn"`, "")
	assert.Contains(t, res.Issues, "[GENERAL] Consecutive silences")
}

func TestToggleRule(t *testing.T) {
	e, store := newEngine(t)

	require.NoError(t, e.ToggleRule("house", "house_four_on_floor", false))
	assert.True(t, e.Validate(`sound "pad"`, "house").Valid)
	assert.Equal(t, 2, store.Saves())

	require.NoError(t, e.ToggleRule("house", "house_four_on_floor", true))
	assert.False(t, e.Validate(`sound "pad"`, "house").Valid)

	assert.ErrorIs(t, e.ToggleRule("house", "missing", true), ErrRuleNotFound)
	assert.ErrorIs(t, e.ToggleRule("polka", "house_four_on_floor", true), ErrRuleNotFound)
}

func TestToggleRuleWhileValidating(t *testing.T) {
	e, _ := newEngine(t)
	pattern := `sound "pad"`

	var wg sync.WaitGroup
	done := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					e.Validate(pattern, "house")
				}
			}
		}()
	}
	for i := range 200 {
		require.NoError(t, e.ToggleRule("house", "house_four_on_floor", i%2 == 0))
	}
	require.NoError(t, e.ToggleRule("house", "house_four_on_floor", false))
	close(done)
	wg.Wait()

	assert.True(t, e.Validate(pattern, "house").Valid)

	require.NoError(t, e.ToggleRule("house", "house_four_on_floor", true))
	assert.False(t, e.Validate(pattern, "house").Valid)
}

func TestAddRegexRule(t *testing.T) {
	e, _ := newEngine(t)

	require.NoError(t, e.AddRegexRule("polka", "needs_accordion", `accordion`, "Polka needs an accordion"))
	assert.Contains(t, e.Styles(), "polka")

	res := e.Validate(`sound "bd"`, "polka")
	assert.Equal(t, []string{"[POLKA] Polka needs an accordion"}, res.Issues)
	assert.True(t, e.Validate(`sound "ACCORDION"`, "polka").Valid)

	assert.ErrorIs(t, e.AddRegexRule("polka", "needs_accordion", `x`, "dup"), ErrDuplicateRule)
	assert.ErrorIs(t, e.AddRegexRule("polka", "broken", `(`, "bad"), ErrInvalidRule)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "rules", "theory_rules.json")}
	e, err := NewEngine(store, defaultConfig(t))
	require.NoError(t, err)
	require.NoError(t, e.ToggleRule("techno", "techno_no_swing", false))

	reloaded, err := NewEngine(store, defaultConfig(t))
	require.NoError(t, err)
	for _, def := range reloaded.Rules()["techno"] {
		if def.ID == "techno_no_swing" {
			assert.False(t, def.Active)
		}
	}
}

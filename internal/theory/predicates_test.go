package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalancedParens(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`sound "bd(3,8)"`, true},
		{`sound "[bd sn] {hh hh}"`, true},
		{`every 2 (fast 2) $ sound "[bd [sn sn]]"`, true},
		{`sound "bd(3,8"`, false},
		{`sound "bd)"`, false},
		{`sound "[bd (sn]"`, false},
		{`sound "{bd ]"`, false},
		{``, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ok, _ := balancedParens(tt.in)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestValidEuclidean(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`"bd(3,8)"`, true},
		{`"bd(8,8)"`, true},
		{`"bd(5,3)"`, false},
		{`"bd(3,8) sn(9,8)"`, false},
		{`"bd sn"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ok, msg := validEuclidean(tt.in)
			assert.Equal(t, tt.want, ok, msg)
		})
	}
}

func TestGeneralPredicates(t *testing.T) {
	tests := []struct {
		name    string
		check   Predicate
		pattern string
		want    bool
	}{
		{"empty", noEmptyPattern, "   ", false},
		{"only rest", noEmptyPattern, " ~ ", false},
		{"not empty", noEmptyPattern, `sound "bd"`, true},
		{"too much silence", noExcessiveSilence, `~ ~ ~ bd`, false},
		{"half silence", noExcessiveSilence, `~ ~ bd sn`, true},
		{"double decimal", noMultipleDecimalPoints, `# speed 0.1.86`, false},
		{"single decimal", noMultipleDecimalPoints, `# speed 0.186`, true},
		{"speed too high", validSpeedRange, `# speed 8`, false},
		{"speed too low", validSpeedRange, `# speed 0.1`, false},
		{"speed ok", validSpeedRange, `# speed 1.5`, true},
		{"filter too high", validFilterRange, `# lpf 30000`, false},
		{"filter ok", validFilterRange, `# hpf 200`, true},
		{"density jump", noExtremeDensityJumps, `"hh*16 bd*0.25"`, false},
		{"no density jump", noExtremeDensityJumps, `"hh*16 bd*2"`, true},
		{"unquoted sample", validSampleSyntax, `s bd`, false},
		{"quoted sample", validSampleSyntax, `s "bd"`, true},
		{"single letter before quote", validSampleSyntax, `s a"`, true},
		{"orphan effects", noOrphanEffects, `n "0 3" # room 0.3`, false},
		{"effects with sound", noOrphanEffects, `sound "bd" # room 0.3`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := tt.check(tt.pattern)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStylePredicates(t *testing.T) {
	tests := []struct {
		id      string
		pattern string
		want    bool
	}{
		{"techno_kick_pattern", `sound "sn*4"`, false},
		{"techno_kick_pattern", `sound "bd ~ ~ ~ sn ~"`, false},
		{"techno_kick_pattern", `sound "bd*4 sn*2"`, true},
		{"techno_no_swing", `sound "bd [sn ~]"`, false},
		{"house_offbeat_hats", `sound "bd*4 hh*4"`, false},
		{"house_offbeat_hats", `sound "bd*4 hh*16"`, true},
		{"dnb_fast_tempo", `sound "[bd sn] hh*8"`, true},
		{"dnb_fast_tempo", `sound "bd sn"`, false},
		{"dnb_breakbeat_structure", `sound "bd hh"`, false},
		{"ambient_low_density", `sound "pad hh*8"`, false},
		{"ambient_texture_focus", `sound "bd sn hh cp"`, false},
		{"ambient_texture_focus", `sound "pad drone bd"`, true},
		{"breakbeat_syncopation", `sound "bd sn"`, false},
		{"breakbeat_varied_rhythm", `sound "bd*2 bd*2 bd*2"`, false},
		{"breakbeat_varied_rhythm", `sound "bd*2 bd*2 sn*2"`, true},
		{"dub_space_and_delay", `sound "bd sn" # delay 0.5`, true},
		{"dub_bass_focus", `sound "bd sn"`, false},
		{"experimental_unconventional", `sound "bd*4 hh*8"`, false},
		{"experimental_complexity", `sound "[bd sn] bd(3,8)"`, true},
		{"trap_hihat_rolls", `sound "hh*8"`, false},
		{"trap_hihat_rolls", `sound "hh*16"`, true},
		{"trap_808_bass", `sound "808bd"`, true},
		{"cyberpunk_digital_sounds", `sound "superchip"`, true},
		{"cyberpunk_aggressive", `sound "bd sn"`, true},
		{"industrial_harsh_sounds", `sound "metal"`, true},
		{"industrial_distortion", `sound "bd" # gain 2`, true},
		{"deepsea_atmospheric", `sound "pad"`, true},
		{"deepsea_low_tempo", `sound "pad"`, false},
		{"deepsea_low_tempo", `sound "pad ~"`, true},
		{"glitch_fragmented", `sound "~ bd ~"`, true},
		{"glitch_digital_artifacts", `sound "bd"`, false},
		{"organic_natural_sounds", `sound "birds"`, true},
		{"organic_irregular_rhythm", `sound "bd*4 hh*8"`, false},
		{"kick_on_one", `sound "sn"`, false},
		{"backbeat", `sound "bd"`, false},
		{"high_density", `sound "bd*2"`, true},
		{"no_heavy_kicks", `sound "bd*4"`, false},
		{"steady_pulse", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.pattern, func(t *testing.T) {
			check, ok := predicates[PredicateID(tt.id)]
			if !assert.True(t, ok) {
				return
			}
			got, msg := check(tt.pattern)
			assert.Equal(t, tt.want, got, msg)
			if !got {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestPredicateIDsAreClosed(t *testing.T) {
	assert.Len(t, predicates, len(PredicateIDs))
	for _, id := range PredicateIDs {
		assert.Contains(t, predicates, id)
	}

	id, err := ParsePredicateID("house_four_on_floor")
	assert.NoError(t, err)
	assert.Equal(t, PredicateHouseFourOnFloor, id)

	_, err = ParsePredicateID("House_Four_On_Floor")
	assert.ErrorIs(t, err, ErrUnknownPredicate)

	_, err = Compile(RuleDefinition{ID: "polka_oompah", Kind: KindPredicate, Active: true})
	assert.ErrorIs(t, err, ErrUnknownPredicate)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "# speed 0.186", Sanitize("# speed 0.1.86"))
	assert.Equal(t, "# gain 1.234", Sanitize("# gain 1.2.3.4"))
	assert.Equal(t, `sound "bd" # speed 1.5`, Sanitize(`sound "bd" # speed 1.5`))
}

func TestSyncopationAndVariety(t *testing.T) {
	assert.InDelta(t, 0.0, Syncopation(`sound "bd*4"`), 1e-9)
	assert.InDelta(t, 0.4, Syncopation(`sound "~ bd"`), 1e-9)
	assert.InDelta(t, 1.0, Syncopation(`sound "~ [bd ~] ~ bd(3,8)"`), 1e-9)

	assert.InDelta(t, 1.0, Variety(`a b c`), 1e-9)
	assert.InDelta(t, 0.5, Variety(`a a b b`), 1e-9)
	assert.Zero(t, Variety(""))
}

func TestInsight(t *testing.T) {
	text := Insight(`sound "bd*4 sn*2" # gain 1 # room 0.3 # lpf 2000`, "industrial")
	assert.Contains(t, text, "four-on-the-floor")
	assert.Contains(t, text, "backbeat")
	assert.Contains(t, text, "(gain, room)")
	assert.Contains(t, text, "metallic noise")

	assert.Equal(t, "All parameters are balanced for overall musical coherence.", Insight(`note "0 0 0 0"`, ""))
}

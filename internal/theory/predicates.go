package theory

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Predicate inspects a pattern and returns false with a message on violation.
type Predicate func(pattern string) (bool, string)

var (
	euclidRe         = regexp.MustCompile(`\((\d+),(\d+)\)`)
	multiDecimalRe   = regexp.MustCompile(`\d*\.\d*\.\d+`)
	speedRe          = regexp.MustCompile(`speed\s+(\d+\.?\d*)`)
	filterRe         = regexp.MustCompile(`(?:lpf|hpf)\s+(\d+)`)
	veryFastRe       = regexp.MustCompile(`\*1[2-6]`)
	verySlowRe       = regexp.MustCompile(`\*0\.[1-5]`)
	unquotedSampleRe = regexp.MustCompile(`\bs\s+(?:[a-z]{2}|[a-z](?:[^"'a-z]|$))`)
	soundSourceRe    = regexp.MustCompile(`\b(?:s|sound)\b`)
	chainEffectRe    = regexp.MustCompile(`#\s*(?:lpf|hpf|room|delay|gain)`)

	sparseKickRe   = regexp.MustCompile(`bd.*~.*~.*~`)
	swungKickRe    = regexp.MustCompile(`bd.*\[.*~.*\]`)
	fourOnFloorRe  = regexp.MustCompile(`bd\*[4-8]`)
	fastHatsRe     = regexp.MustCompile(`hh.*\*[8-9]|hh.*\*1[0-6]`)
	dnbDensityRe   = regexp.MustCompile(`\*[8-9]|\*1[0-6]|\[`)
	highDensityRe  = regexp.MustCompile(`\*[8-9]|\*1[0-6]`)
	percussiveRe   = regexp.MustCompile(`\b(?:bd|sn|cp|hh)\b`)
	texturalRe     = regexp.MustCompile(`\b(?:pad|texture|drone|field)\b`)
	syncopationRe  = regexp.MustCompile(`~|\[.*~.*\]`)
	repeatedStepRe = regexp.MustCompile(`\w+\*\d+`)
	delayRe        = regexp.MustCompile(`delay|room`)
	bassRe         = regexp.MustCompile(`bass|sub|808`)
	conventionalRe = regexp.MustCompile(`bd\*4|sn.*cp|hh\*8`)
	structureRe    = regexp.MustCompile(`\[|\(|\{|<`)
	hatRollRe      = regexp.MustCompile(`hh.*\*1[2-6]`)
	digitalRe      = regexp.MustCompile(`synth|digital|cyber|glitch|chip`)
	aggressiveRe   = regexp.MustCompile(`\*[6-9]|\*1[0-6]|bd.*sn`)
	harshRe        = regexp.MustCompile(`metal|industrial|harsh|noise|clank`)
	distortionRe   = regexp.MustCompile(`distort|crush|noise|gain\s+[2-9]`)
	atmosphericRe  = regexp.MustCompile(`pad|reverb|room|ocean|water|wave`)
	artifactRe     = regexp.MustCompile(`glitch|stutter|chop|cut|bit`)
	naturalRe      = regexp.MustCompile(`field|nature|wood|bird|wind|rain|organic`)
	regularRe      = regexp.MustCompile(`bd\*4|sn\*4|hh\*8`)
)

// PredicateID names a built-in rule. Configs refer to predicates by id.
type PredicateID string

const (
	PredicateNoEmptyPattern          PredicateID = "no_empty_pattern"
	PredicateBalancedParens          PredicateID = "balanced_parens"
	PredicateNoExcessiveSilence      PredicateID = "no_excessive_silence"
	PredicateValidEuclidean          PredicateID = "valid_euclidean"
	PredicateNoMultipleDecimalPoints PredicateID = "no_multiple_decimal_points"
	PredicateValidSpeedRange         PredicateID = "valid_speed_range"
	PredicateValidFilterRange        PredicateID = "valid_filter_range"
	PredicateNoExtremeDensityJumps   PredicateID = "no_extreme_density_jumps"
	PredicateValidSampleSyntax       PredicateID = "valid_sample_syntax"
	PredicateNoOrphanEffects         PredicateID = "no_orphan_effects"

	PredicateKickOnOne    PredicateID = "kick_on_one"
	PredicateSteadyPulse  PredicateID = "steady_pulse"
	PredicateBackbeat     PredicateID = "backbeat"
	PredicateHighDensity  PredicateID = "high_density"
	PredicateNoHeavyKicks PredicateID = "no_heavy_kicks"

	PredicateTechnoKickPattern          PredicateID = "techno_kick_pattern"
	PredicateTechnoNoSwing              PredicateID = "techno_no_swing"
	PredicateHouseFourOnFloor           PredicateID = "house_four_on_floor"
	PredicateHouseOffbeatHats           PredicateID = "house_offbeat_hats"
	PredicateDnbFastTempo               PredicateID = "dnb_fast_tempo"
	PredicateDnbBreakbeatStructure      PredicateID = "dnb_breakbeat_structure"
	PredicateAmbientLowDensity          PredicateID = "ambient_low_density"
	PredicateAmbientTextureFocus        PredicateID = "ambient_texture_focus"
	PredicateBreakbeatSyncopation       PredicateID = "breakbeat_syncopation"
	PredicateBreakbeatVariedRhythm      PredicateID = "breakbeat_varied_rhythm"
	PredicateDubSpaceAndDelay           PredicateID = "dub_space_and_delay"
	PredicateDubBassFocus               PredicateID = "dub_bass_focus"
	PredicateExperimentalUnconventional PredicateID = "experimental_unconventional"
	PredicateExperimentalComplexity     PredicateID = "experimental_complexity"
	PredicateTrapHihatRolls             PredicateID = "trap_hihat_rolls"
	PredicateTrap808Bass                PredicateID = "trap_808_bass"
	PredicateCyberpunkDigitalSounds     PredicateID = "cyberpunk_digital_sounds"
	PredicateCyberpunkAggressive        PredicateID = "cyberpunk_aggressive"
	PredicateIndustrialHarshSounds      PredicateID = "industrial_harsh_sounds"
	PredicateIndustrialDistortion       PredicateID = "industrial_distortion"
	PredicateDeepseaAtmospheric         PredicateID = "deepsea_atmospheric"
	PredicateDeepseaLowTempo            PredicateID = "deepsea_low_tempo"
	PredicateGlitchFragmented           PredicateID = "glitch_fragmented"
	PredicateGlitchDigitalArtifacts     PredicateID = "glitch_digital_artifacts"
	PredicateOrganicNaturalSounds       PredicateID = "organic_natural_sounds"
	PredicateOrganicIrregularRhythm     PredicateID = "organic_irregular_rhythm"
)

// PredicateIDs is the closed set of built-in predicates.
var PredicateIDs = []PredicateID{
	PredicateNoEmptyPattern,
	PredicateBalancedParens,
	PredicateNoExcessiveSilence,
	PredicateValidEuclidean,
	PredicateNoMultipleDecimalPoints,
	PredicateValidSpeedRange,
	PredicateValidFilterRange,
	PredicateNoExtremeDensityJumps,
	PredicateValidSampleSyntax,
	PredicateNoOrphanEffects,

	PredicateKickOnOne,
	PredicateSteadyPulse,
	PredicateBackbeat,
	PredicateHighDensity,
	PredicateNoHeavyKicks,

	PredicateTechnoKickPattern,
	PredicateTechnoNoSwing,
	PredicateHouseFourOnFloor,
	PredicateHouseOffbeatHats,
	PredicateDnbFastTempo,
	PredicateDnbBreakbeatStructure,
	PredicateAmbientLowDensity,
	PredicateAmbientTextureFocus,
	PredicateBreakbeatSyncopation,
	PredicateBreakbeatVariedRhythm,
	PredicateDubSpaceAndDelay,
	PredicateDubBassFocus,
	PredicateExperimentalUnconventional,
	PredicateExperimentalComplexity,
	PredicateTrapHihatRolls,
	PredicateTrap808Bass,
	PredicateCyberpunkDigitalSounds,
	PredicateCyberpunkAggressive,
	PredicateIndustrialHarshSounds,
	PredicateIndustrialDistortion,
	PredicateDeepseaAtmospheric,
	PredicateDeepseaLowTempo,
	PredicateGlitchFragmented,
	PredicateGlitchDigitalArtifacts,
	PredicateOrganicNaturalSounds,
	PredicateOrganicIrregularRhythm,
}

// ParsePredicateID validates a predicate id read from a config.
func ParsePredicateID(s string) (PredicateID, error) {
	id := PredicateID(s)
	if !slices.Contains(PredicateIDs, id) {
		return "", fmt.Errorf("%w: %s", ErrUnknownPredicate, s)
	}
	return id, nil
}

var predicates = map[PredicateID]Predicate{
	PredicateNoEmptyPattern:          noEmptyPattern,
	PredicateBalancedParens:          balancedParens,
	PredicateNoExcessiveSilence:      noExcessiveSilence,
	PredicateValidEuclidean:          validEuclidean,
	PredicateNoMultipleDecimalPoints: noMultipleDecimalPoints,
	PredicateValidSpeedRange:         validSpeedRange,
	PredicateValidFilterRange:        validFilterRange,
	PredicateNoExtremeDensityJumps:   noExtremeDensityJumps,
	PredicateValidSampleSyntax:       validSampleSyntax,
	PredicateNoOrphanEffects:         noOrphanEffects,

	PredicateKickOnOne:    kickOnOne,
	PredicateSteadyPulse:  func(string) (bool, string) { return true, "" },
	PredicateBackbeat:     backbeat,
	PredicateHighDensity:  highDensity,
	PredicateNoHeavyKicks: noHeavyKicks,

	PredicateTechnoKickPattern:          technoKickPattern,
	PredicateTechnoNoSwing:              forbidMatch(swungKickRe, "Techno should avoid heavy swing patterns"),
	PredicateHouseFourOnFloor:           requireMatch(fourOnFloorRe, "House requires four-on-floor kick (bd*4 or bd*8)"),
	PredicateHouseOffbeatHats:           houseOffbeatHats,
	PredicateDnbFastTempo:               atLeastMatches(dnbDensityRe, 2, "DnB requires high rhythmic density (*8+, brackets)"),
	PredicateDnbBreakbeatStructure:      dnbBreakbeatStructure,
	PredicateAmbientLowDensity:          forbidMatch(highDensityRe, "Ambient should avoid high density (*8+)"),
	PredicateAmbientTextureFocus:        ambientTextureFocus,
	PredicateBreakbeatSyncopation:       requireMatch(syncopationRe, "Breakbeat requires syncopation (~ or brackets)"),
	PredicateBreakbeatVariedRhythm:      breakbeatVariedRhythm,
	PredicateDubSpaceAndDelay:           dubSpaceAndDelay,
	PredicateDubBassFocus:               requireMatch(bassRe, "Dub requires bass focus"),
	PredicateExperimentalUnconventional: atMostMatches(conventionalRe, 1, "Too conventional for Experimental"),
	PredicateExperimentalComplexity:     atLeastMatches(structureRe, 2, "Experimental should have complex structures"),
	PredicateTrapHihatRolls:             trapHihatRolls,
	PredicateTrap808Bass:                requireMatch(bassRe, "Trap should include 808/bass elements"),
	PredicateCyberpunkDigitalSounds:     requireMatch(digitalRe, "Cyberpunk requires digital sounds"),
	PredicateCyberpunkAggressive:        requireMatch(aggressiveRe, "Cyberpunk requires aggressive rhythm"),
	PredicateIndustrialHarshSounds:      requireMatch(harshRe, "Industrial requires harsh sounds"),
	PredicateIndustrialDistortion:       requireMatch(distortionRe, "Industrial should include distortion"),
	PredicateDeepseaAtmospheric:         requireMatch(atmosphericRe, "DeepSea requires atmospheric sounds"),
	PredicateDeepseaLowTempo:            deepseaLowTempo,
	PredicateGlitchFragmented:           atLeastMatches(syncopationRe, 2, "Glitch requires fragmented patterns"),
	PredicateGlitchDigitalArtifacts:     requireMatch(artifactRe, "Glitch requires digital artifacts"),
	PredicateOrganicNaturalSounds:       requireMatch(naturalRe, "Organic requires natural sounds"),
	PredicateOrganicIrregularRhythm:     atMostMatches(regularRe, 1, "Organic should have irregular rhythm"),
}

func requireMatch(re *regexp.Regexp, msg string) Predicate {
	return func(p string) (bool, string) {
		if re.MatchString(p) {
			return true, ""
		}
		return false, msg
	}
}

func forbidMatch(re *regexp.Regexp, msg string) Predicate {
	return func(p string) (bool, string) {
		if re.MatchString(p) {
			return false, msg
		}
		return true, ""
	}
}

func atLeastMatches(re *regexp.Regexp, n int, msg string) Predicate {
	return func(p string) (bool, string) {
		if len(re.FindAllStringIndex(p, -1)) < n {
			return false, msg
		}
		return true, ""
	}
}

func atMostMatches(re *regexp.Regexp, n int, msg string) Predicate {
	return func(p string) (bool, string) {
		if len(re.FindAllStringIndex(p, -1)) > n {
			return false, msg
		}
		return true, ""
	}
}

func noEmptyPattern(p string) (bool, string) {
	clean := strings.TrimSpace(p)
	if clean == "" || clean == "~" {
		return false, "Pattern cannot be empty"
	}
	return true, ""
}

func balancedParens(p string) (bool, string) {
	closers := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for _, ch := range p {
		switch ch {
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != closers[ch] {
				return false, "Unbalanced parentheses/brackets"
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return false, "Unbalanced parentheses/brackets"
	}
	return true, ""
}

func noExcessiveSilence(p string) (bool, string) {
	tokens := strings.Fields(p)
	if len(tokens) == 0 {
		return true, ""
	}
	silent := 0
	for _, t := range tokens {
		if t == "~" {
			silent++
		}
	}
	ratio := float64(silent) / float64(len(tokens))
	if ratio > 0.5 {
		return false, fmt.Sprintf("Too much silence (%d%% > 50%%)", int(ratio*100))
	}
	return true, ""
}

func validEuclidean(p string) (bool, string) {
	for _, m := range euclidRe.FindAllStringSubmatch(p, -1) {
		k, errK := strconv.Atoi(m[1])
		n, errN := strconv.Atoi(m[2])
		if errK != nil || errN != nil || k > n {
			return false, fmt.Sprintf("Invalid Euclidean: (%s,%s) - k must be <= n", m[1], m[2])
		}
	}
	return true, ""
}

func noMultipleDecimalPoints(p string) (bool, string) {
	if bad := multiDecimalRe.FindString(p); bad != "" {
		return false, "Invalid numeric syntax: " + bad
	}
	return true, ""
}

func validSpeedRange(p string) (bool, string) {
	for _, m := range speedRe.FindAllStringSubmatch(p, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0.25 || v > 4.0 {
			return false, fmt.Sprintf("Invalid speed: %s (must be 0.25-4.0)", m[1])
		}
	}
	return true, ""
}

func validFilterRange(p string) (bool, string) {
	for _, m := range filterRe.FindAllStringSubmatch(p, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 20 || v > 20000 {
			return false, fmt.Sprintf("Invalid filter: %sHz (must be 20-20000)", m[1])
		}
	}
	return true, ""
}

func noExtremeDensityJumps(p string) (bool, string) {
	if veryFastRe.MatchString(p) && verySlowRe.MatchString(p) {
		return false, "Extreme density jump (*16 + *0.25 in same pattern)"
	}
	return true, ""
}

func validSampleSyntax(p string) (bool, string) {
	if unquotedSampleRe.MatchString(p) {
		return false, `Sample name must be quoted: s "bd" not s bd`
	}
	return true, ""
}

func noOrphanEffects(p string) (bool, string) {
	if chainEffectRe.MatchString(p) && !soundSourceRe.MatchString(p) {
		return false, "Effects without sound source"
	}
	return true, ""
}

func kickOnOne(p string) (bool, string) {
	if strings.Contains(strings.ToLower(p), "bd") {
		return true, ""
	}
	return false, "Missing Kick (bd) foundation"
}

func backbeat(p string) (bool, string) {
	if strings.Contains(p, "sn") || strings.Contains(p, "cp") {
		return true, ""
	}
	return false, "Missing Backbeat (sn/cp)"
}

func highDensity(p string) (bool, string) {
	if strings.ContainsAny(p, "*[") {
		return true, ""
	}
	return false, "Too simple for DnB"
}

func noHeavyKicks(p string) (bool, string) {
	if strings.Contains(p, "bd*4") {
		return false, "Too rhythmic for Ambient (bd*4 detected)"
	}
	return true, ""
}

func technoKickPattern(p string) (bool, string) {
	if !strings.Contains(strings.ToLower(p), "bd") {
		return false, "Techno requires kick drum (bd)"
	}
	if sparseKickRe.MatchString(p) {
		return false, "Techno kick too sparse (4/4 pulse required)"
	}
	return true, ""
}

func houseOffbeatHats(p string) (bool, string) {
	if strings.Contains(p, "hh") && !fastHatsRe.MatchString(p) {
		return false, "House hats should be fast (*8 or higher)"
	}
	return true, ""
}

func dnbBreakbeatStructure(p string) (bool, string) {
	hasKick := strings.Contains(p, "bd")
	hasSnare := strings.Contains(p, "sn") || strings.Contains(p, "cp")
	if !hasKick || !hasSnare {
		return false, "DnB requires both kick and snare"
	}
	return true, ""
}

func ambientTextureFocus(p string) (bool, string) {
	percussive := len(percussiveRe.FindAllStringIndex(p, -1))
	textural := len(texturalRe.FindAllStringIndex(p, -1))
	if percussive > textural && percussive > 2 {
		return false, "Ambient should focus on textures, not percussion"
	}
	return true, ""
}

// breakbeatVariedRhythm fails on the same repeated step three times in a row,
// e.g. "bd*2 bd*2 bd*2".
func breakbeatVariedRhythm(p string) (bool, string) {
	locs := repeatedStepRe.FindAllStringIndex(p, -1)
	for i := 0; i+2 < len(locs); i++ {
		a, b, c := locs[i], locs[i+1], locs[i+2]
		step := p[a[0]:a[1]]
		if p[b[0]:b[1]] != step || p[c[0]:c[1]] != step {
			continue
		}
		if isSpace(p[a[1]:b[0]]) && isSpace(p[b[1]:c[0]]) {
			return false, "Breakbeat should have varied rhythm (too repetitive)"
		}
	}
	return true, ""
}

func isSpace(s string) bool {
	return s != "" && strings.TrimSpace(s) == ""
}

func dubSpaceAndDelay(p string) (bool, string) {
	if strings.Contains(p, "~") || delayRe.MatchString(p) {
		return true, ""
	}
	return false, "Dub requires space (silence ~) or delay effects"
}

func trapHihatRolls(p string) (bool, string) {
	if strings.Contains(p, "hh") && !hatRollRe.MatchString(p) {
		return false, "Trap requires fast hi-hat rolls (*12+)"
	}
	return true, ""
}

func deepseaLowTempo(p string) (bool, string) {
	if highDensityRe.MatchString(p) {
		return false, "DeepSea should be slow"
	}
	if !strings.Contains(p, "~") {
		return false, "DeepSea requires space"
	}
	return true, ""
}

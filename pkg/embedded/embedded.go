package embedded

import (
	_ "embed"
)

// Data assets loaded once at startup and passed explicitly to the packages
// that need them.
//
//go:embed data/default_corpus.tidal
var DefaultCorpus []byte

//go:embed data/theory_rules.json
var TheoryRulesJSON []byte

//go:embed data/samples.yaml
var SamplesYAML []byte

//go:embed data/song_templates.yaml
var SongTemplatesYAML []byte

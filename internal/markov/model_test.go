package markov

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", `sound "bd sn"`, []string{"sound", `"`, "bd", "sn", `"`}},
		{"comment stripped", "sound \"bd\" -- kick only", []string{"sound", `"`, "bd", `"`}},
		{"decimal kept whole", `# speed 0.25`, []string{"#", "speed", "0.25"}},
		{"euclid", `"bd(3,8)"`, []string{`"`, "bd", "(", "3", ",", "8", ")", `"`}},
		{"repetition", `"hh*16"`, []string{`"`, "hh", "*", "16", `"`}},
		{"whitespace only", "  \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	for _, p := range []string{
		`sound "bd sn"`,
		`sound "bd sn hh"`,
		`note "0 3 7 5"`,
		`sound "~ hh"`,
	} {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, p, Reconstruct(Tokenize(p)))
		})
	}
}

func TestReconstructSpacing(t *testing.T) {
	got := Reconstruct([]string{"every", "2", "(", "fast", "2", ")", "$", "sound", `"`, "bd", `"`})
	assert.Equal(t, `every 2 (fast 2) $sound "bd"`, got)
}

func TestTrainSkipsShortPatterns(t *testing.T) {
	m := New(2)
	assert.Equal(t, 0, m.Train([]string{"bd", ""}))
	assert.False(t, m.Trained())

	_, err := m.Generate(random.New(1), 10, 1.0)
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestTrainAccumulates(t *testing.T) {
	m := New(2)
	require.Equal(t, 1, m.Train([]string{`sound "bd sn"`}))
	require.Equal(t, 1, m.Train([]string{`sound "bd sn"`}))

	doc := m.Document()
	assert.Equal(t, map[string]int{"bd": 2}, doc.Transitions[EncodeContext([]string{"sound", `"`})])
	assert.Len(t, doc.Starts, 2)
}

func TestGenerateNoTokenInvention(t *testing.T) {
	corpus := []string{`sound "bd sn"`, `sound "bd sn hh sn"`}
	m := New(2)
	m.Train(corpus)

	vocab := map[string]bool{}
	for _, p := range corpus {
		for _, tok := range Tokenize(p) {
			vocab[tok] = true
		}
	}

	src := random.New(99)
	for i := 0; i < 50; i++ {
		res, err := m.Generate(src, 10, 1.0)
		require.NoError(t, err)
		for _, tok := range Tokenize(res.Pattern) {
			assert.True(t, vocab[tok], "unexpected token %q in %q", tok, res.Pattern)
		}
		assert.LessOrEqual(t, len(Tokenize(res.Pattern)), 10)
	}
}

func TestGenerateThoughts(t *testing.T) {
	m := New(1)
	m.Train([]string{`sound "bd"`, `sound "sn"`, `sound "sn"`})

	res, err := m.Generate(random.New(5), 4, 1.0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Thoughts)
	assert.Equal(t, 1.0, res.Thoughts[0].Prob)

	for _, th := range res.Thoughts[1:] {
		assert.LessOrEqual(t, len(th.Alternatives), 3)
		for i := 1; i < len(th.Alternatives); i++ {
			assert.GreaterOrEqual(t, th.Alternatives[i-1].Prob, th.Alternatives[i].Prob)
		}
	}
}

func TestDistributionTemperature(t *testing.T) {
	next := map[string]int{"a": 3, "b": 1}

	_, raw := distribution(next, 1.0)
	assert.InDelta(t, 0.75, raw[0], 1e-9)

	_, cold := distribution(next, 0.5)
	assert.Greater(t, cold[0], raw[0])

	_, hot := distribution(next, 4.0)
	assert.Less(t, hot[0], raw[0])
	assert.InDelta(t, 1.0, hot[0]+hot[1], 1e-9)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New(2)
	m.Train([]string{`sound "bd*2 sn" # speed 1.5`, `note "0 3 7" # sound "superpiano"`, `sound "hh(3,8)"`})

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.Document(), loaded.Document())
	assert.Equal(t, m.Stats(), loaded.Stats())
}

func TestSaveFileAndLoadOrBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain", "model.json")

	m, bootstrapped, err := LoadOrBootstrap(path, 2, []string{`sound "bd sn"`, `sound "hh hh"`})
	require.NoError(t, err)
	assert.True(t, bootstrapped)
	assert.True(t, m.Trained())

	again, bootstrapped, err := LoadOrBootstrap(path, 2, nil)
	require.NoError(t, err)
	assert.False(t, bootstrapped)
	assert.Equal(t, m.Document(), again.Document())
}

func TestFromDocumentRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"zero order", Document{Order: 0}},
		{"bad key", Document{Order: 1, Transitions: map[string]map[string]int{"(sound,)": {"x": 1}}}},
		{"wrong key length", Document{Order: 2, Transitions: map[string]map[string]int{`["sound"]`: {"x": 1}}}},
		{"zero count", Document{Order: 1, Transitions: map[string]map[string]int{`["sound"]`: {"x": 0}}}},
		{"short start", Document{Order: 2, Starts: [][]string{{"sound"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestEncodeContextIsUnambiguous(t *testing.T) {
	a := EncodeContext([]string{"a,b", "c"})
	b := EncodeContext([]string{"a", "b,c"})
	assert.NotEqual(t, a, b)

	decoded, err := DecodeContext(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, decoded)
}

func TestReplace(t *testing.T) {
	live := New(2)
	live.Train([]string{`sound "bd sn"`})

	fresh := New(2)
	fresh.Train([]string{`note "0 3"`, `note "5 7"`})
	live.Replace(fresh)

	assert.Equal(t, fresh.Document(), live.Document())
	assert.Equal(t, 2, live.Stats().Starts)
}

func TestGraph(t *testing.T) {
	m := New(1)
	m.Train([]string{`sound "bd sn"`, `sound "bd" # speed 2`})

	g := m.Graph(100)
	types := map[string]string{}
	for _, n := range g.Nodes {
		types[n.ID] = n.Type
	}
	assert.Equal(t, NodeSample, types[`"`])
	assert.Equal(t, NodeNumber, types["2"])
	assert.Equal(t, NodeOperator, types["#"])
	assert.Equal(t, NodeFunction, types["sound"])

	small := m.Graph(2)
	require.Len(t, small.Nodes, 2)
	kept := map[string]bool{small.Nodes[0].ID: true, small.Nodes[1].ID: true}
	for _, l := range small.Links {
		assert.True(t, kept[l.Source] && kept[l.Target])
	}
}

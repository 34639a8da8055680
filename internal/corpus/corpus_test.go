package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
)

func TestParse(t *testing.T) {
	data := []byte("-- drums\nsound \"bd sn\"\n\n  # stray header\nnote \"0 3\" # sound \"arpy\"  \n")
	assert.Equal(t, []string{`sound "bd sn"`, `note "0 3" # sound "arpy"`}, Parse(data))
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, `sound "bd" # speed 1.2 # room 0.1`, Flatten("sound \"bd\"\n  # speed 1.2\n  # room 0.1"))
}

func TestFileSeedAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus", "patterns.tidal")
	f := NewFile(path)

	seeded, err := f.EnsureSeeded([]byte("sound \"bd*2 sn\"\n"))
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = f.EnsureSeeded([]byte("ignored\n"))
	require.NoError(t, err)
	assert.False(t, seeded)

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	n, err := f.Append("evolution run", []string{"sound \"hh*8\"\n  # gain 0.9", "  "}, at)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- evolution run 2024-05-01 12:30\n")

	patterns, err := f.Patterns()
	require.NoError(t, err)
	assert.Equal(t, []string{`sound "bd*2 sn"`, `sound "hh*8" # gain 0.9`}, patterns)

	n, err = f.Append("empty", nil, at)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPatternsMissingFile(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope")).Patterns()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReloaderSwapsAndPersists(t *testing.T) {
	live := markov.New(2)
	live.Train([]string{`note "0 3 7"`})
	modelPath := filepath.Join(t.TempDir(), "model.json")

	favorites := func(context.Context) ([]string, error) {
		return []string{"sound \"cp*2\"\n  # room 0.2"}, nil
	}
	r := NewReloader(live, Static{`sound "bd sn"`, `sound "bd hh"`}, modelPath, favorites)

	res, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Patterns)
	assert.Equal(t, 3, res.Stats.Starts)
	assert.NotContains(t, live.Vocabulary(), "7")
	assert.Contains(t, live.Vocabulary(), "cp")

	persisted, err := markov.LoadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, live.Stats(), persisted.Stats())
}

func TestReloaderKeepsLiveModelOnFailure(t *testing.T) {
	live := markov.New(2)
	live.Train([]string{`sound "bd sn"`})
	before := live.Stats()

	_, err := NewReloader(live, Static{"x"}, "").Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoPatterns)

	failing := func(context.Context) ([]string, error) { return nil, errors.New("db down") }
	_, err = NewReloader(live, Static{`sound "hh"`}, "", failing).Reload(context.Background())
	assert.Error(t, err)

	assert.Equal(t, before, live.Stats())
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.tidal")
	require.NoError(t, os.WriteFile(path, []byte("sound \"bd\"\n"), 0o644))

	fired := make(chan struct{}, 8)
	w, err := NewWatcher(path, 50*time.Millisecond, func(context.Context) { fired <- struct{}{} })
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	for i := range 3 {
		_, err := NewFile(path).Append("burst", []string{strings.Repeat("sound \"sn\" ", i+1)}, time.Now())
		require.NoError(t, err)
	}
	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
	select {
	case <-fired:
		t.Fatal("burst was not debounced into one notification")
	case <-time.After(300 * time.Millisecond):
	}
}

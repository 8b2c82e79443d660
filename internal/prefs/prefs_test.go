package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileYieldsEmptyPrefs(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	assert.Equal(t, Prefs{}, store.Prefs())
}

func TestSetValuesPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetCounterName("Counter 4"))
	require.NoError(t, store.SetLastAnnouncedTokenID("token-abc"))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Prefs{
		CounterName:          "Counter 4",
		LastAnnouncedTokenID: "token-abc",
	}, reopened.Prefs())
}

func TestSetUnchangedValueSkipsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetCounterName("Counter 1"))

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.SetCounterName("Counter 1"))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

package kvstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file returns default", func(t *testing.T) {
		def := map[string][]string{"g": {"u"}}
		got := Load(filepath.Join(t.TempDir(), "missing.json"), def)
		assert.Equal(t, def, got)
	})

	t.Run("corrupt file returns default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		got := Load(path, map[string]int{})
		assert.Empty(t, got)
	})

	t.Run("null document returns default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "null.json")
		require.NoError(t, os.WriteFile(path, []byte("null"), 0644))

		def := map[string]int{"a": 1}
		assert.Equal(t, def, Load(path, def))
	})

	t.Run("directory path returns default", func(t *testing.T) {
		def := map[string]int{"a": 1}
		assert.Equal(t, def, Load(t.TempDir(), def))
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	want := map[string][]string{
		"123": {"1", "2", "2"},
		"456": {},
	}

	require.NoError(t, Save(want, path))

	got := Load(path, map[string][]string{})
	assert.Equal(t, want, got)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	require.NoError(t, Save(map[string]int{"old": 1}, path))
	require.NoError(t, Save(map[string]int{"new": 2}, path))

	assert.Equal(t, map[string]int{"new": 2}, Load(path, map[string]int{}))
}

func TestSaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// A regular file cannot act as a parent directory.
	err := Save(map[string]int{"a": 1}, filepath.Join(blocker, "store.json"))
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	_, err := Read[int](filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[1, 2]"), 0644))
	_, err = Read[int](bad)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	good := filepath.Join(dir, "good.json")
	require.NoError(t, Save(map[string]int{"a": 1}, good))
	m, err := Read[int](good)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, m)
}

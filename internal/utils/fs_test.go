package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o644))

	assert.True(t, IsFile(file))
	assert.False(t, IsFile(dir), "a directory is not a file")
	assert.False(t, IsFile(filepath.Join(dir, "missing.toml")))
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.True(t, WritableDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the write check leaves nothing behind")
}

func TestFirstWritableDir(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	good := filepath.Join(root, "good")

	got, ok := FirstWritableDir(filepath.Join(blocker, "sub"), good)
	require.True(t, ok)
	assert.Equal(t, good, got)

	_, ok = FirstWritableDir(filepath.Join(blocker, "sub"))
	assert.False(t, ok)
	_, ok = FirstWritableDir()
	assert.False(t, ok)
}

func TestWriteTOML(t *testing.T) {
	type section struct {
		Kind string `toml:"kind"`
		Num  int    `toml:"num"`
	}
	type file struct {
		Provider section `toml:"provider"`
	}

	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, WriteTOML(path, file{Provider: section{Kind: "fake", Num: 5}}))
	require.NoError(t, WriteTOML(path, file{Provider: section{Kind: "openai", Num: 3}}))

	var got file
	_, err := toml.DecodeFile(path, &got)
	require.NoError(t, err)
	assert.Equal(t, file{Provider: section{Kind: "openai", Num: 3}}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left")
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestWriteTOMLBlockedDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	path := filepath.Join(blocker, "config.toml")
	assert.Error(t, WriteTOML(path, map[string]int{"num": 1}))
	assert.False(t, IsFile(path))
}

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()

	_, ok := store.Get("auth_token")
	assert.False(t, ok)

	require.NoError(t, store.Set("auth_token", "abc"))
	value, ok := store.Get("auth_token")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, store.Remove("auth_token"))
	_, ok = store.Get("auth_token")
	assert.False(t, ok)

	// Removing an absent key is not an error
	assert.NoError(t, store.Remove("auth_token"))
}

func TestFileStorage_SetGetRemove(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStorage(dir, "blog.example.com")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "blog.example.com.yaml"), store.Path())

	_, ok := store.Get("auth_token")
	assert.False(t, ok, "fresh storage should be empty")

	require.NoError(t, store.Set("auth_token", "token-1"))

	value, ok := store.Get("auth_token")
	require.True(t, ok)
	assert.Equal(t, "token-1", value)

	require.NoError(t, store.Remove("auth_token"))
	_, ok = store.Get("auth_token")
	assert.False(t, ok)
}

func TestFileStorage_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileStorage(dir, "blog.example.com")
	require.NoError(t, err)
	require.NoError(t, first.Set("auth_token", "persisted"))

	second, err := NewFileStorage(dir, "blog.example.com")
	require.NoError(t, err)

	value, ok := second.Get("auth_token")
	require.True(t, ok)
	assert.Equal(t, "persisted", value)

	// Namespaces do not share values
	other, err := NewFileStorage(dir, "other.example.com")
	require.NoError(t, err)
	_, ok = other.Get("auth_token")
	assert.False(t, ok)
}

func TestFileStorage_FilePermissions(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStorage(dir, "perm.example.com")
	require.NoError(t, err)
	require.NoError(t, store.Set("auth_token", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStorage(dir, "corrupt.example.com")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("values: [not: a: map"), 0600))

	_, ok := store.Get("auth_token")
	assert.False(t, ok, "unreadable file reads as absent")

	require.NoError(t, store.Set("auth_token", "fresh"))
	value, ok := store.Get("auth_token")
	require.True(t, ok)
	assert.Equal(t, "fresh", value)
}

func TestNewFileStorage_InvalidNamespace(t *testing.T) {
	tests := []string{"../escape", "a/b", `a\b`, ".hidden"}

	for _, namespace := range tests {
		t.Run(namespace, func(t *testing.T) {
			_, err := NewFileStorage(t.TempDir(), namespace)
			assert.Error(t, err)
		})
	}
}

func TestOpen(t *testing.T) {
	memory, err := Open(Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, memory)

	file, err := Open(Options{Driver: DriverFile, Path: t.TempDir(), Namespace: "localhost"})
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, file)

	_, err = Open(Options{Driver: "redis"})
	assert.Error(t, err)
}

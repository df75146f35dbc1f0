package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok, err := s.Get(ctx, KeyShowGrid)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyShowGrid, "true"))
	require.NoError(t, s.Set(ctx, KeyActiveTab, `"fixed"`))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, KeyActiveTab)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"fixed"`, v)

	p := New(reopened, nil)
	assert.True(t, p.LoadSettings(ctx).ShowGrid)
}

func TestFileStoreFailedWriteKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "prefs.yaml")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)

	assert.Error(t, s.Set(ctx, KeyShowZone, "false"))
	_, ok, err := s.Get(ctx, KeyShowZone)
	require.NoError(t, err)
	assert.False(t, ok, "a failed save must not change the in-memory state")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- [not a map"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

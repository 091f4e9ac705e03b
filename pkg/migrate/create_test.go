package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextVersionSkipsTakenTimestamps(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{
		"20260301120000_create_books.sql",
		"20260301120001_create_carts.sql",
		"20260301120003_not_adjacent.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	}

	version, err := nextVersion(dir, now)
	require.NoError(t, err)
	require.Equal(t, "20260301120002", version)
}

func TestNextVersionUsesNowWhenFree(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	version, err := nextVersion(t.TempDir(), now)
	require.NoError(t, err)
	require.Equal(t, now.Format(versionLayout), version)
}

func TestNextVersionMissingDir(t *testing.T) {
	_, err := nextVersion(filepath.Join(t.TempDir(), "absent"), time.Now())
	require.Error(t, err)
}

package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryapp/library-server/internal/store"
)

func setupBackupTest(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "library-backup-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(tmpDir, "db"), logger)
	require.NoError(t, err)

	svc := NewService(s, filepath.Join(tmpDir, "backups"), logger)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return svc, s
}

func TestCreateBackup(t *testing.T) {
	svc, s := setupBackupTest(t)

	_, err := s.AddBook(context.Background(), "Terry Pratchett", "Mort", 1987, []string{"fantasy"})
	require.NoError(t, err)

	result, err := svc.Create()
	require.NoError(t, err)
	assert.Greater(t, result.Size, int64(0))

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.Equal(t, result.Size, info.Size())
}

func TestListAndPrune(t *testing.T) {
	svc, s := setupBackupTest(t)

	_, err := s.AddBook(context.Background(), "Terry Pratchett", "Mort", 1987, []string{"fantasy"})
	require.NoError(t, err)

	first, err := svc.Create()
	require.NoError(t, err)

	// Backup names carry second resolution.
	time.Sleep(1100 * time.Millisecond)

	second, err := svc.Create()
	require.NoError(t, err)

	paths, err := svc.List()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, second.Path, paths[0], "newest backup listed first")

	require.NoError(t, svc.Prune(1))

	paths, err = svc.List()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, second.Path, paths[0])
	_, err = os.Stat(first.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestListWithoutBackupDir(t *testing.T) {
	svc, _ := setupBackupTest(t)

	paths, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

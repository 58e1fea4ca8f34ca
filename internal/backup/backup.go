// Package backup manages database snapshots. Backups are full Badger
// streams written to timestamped files; restoring is done offline with
// badger's load tooling against a fresh data directory.
package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/libraryapp/library-server/internal/store"
)

const backupSuffix = ".library.bak"

// Service manages backup creation and listing.
type Service struct {
	store     *store.Store
	backupDir string
	logger    *slog.Logger
}

// NewService creates a backup service writing into backupDir.
func NewService(s *store.Store, backupDir string, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		backupDir: backupDir,
		logger:    logger,
	}
}

// Result describes a completed backup.
type Result struct {
	Path    string
	Size    int64
	Version uint64
}

// Create writes a new snapshot file and returns its location.
func (s *Service) Create() (*Result, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	path := filepath.Join(s.backupDir, "backup-"+timestamp+backupSuffix)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}

	version, err := s.store.Backup(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Backup created",
			"path", path,
			"size", info.Size(),
			"version", version,
		)
	}

	return &Result{Path: path, Size: info.Size(), Version: version}, nil
}

// List returns existing backup files, newest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(s.backupDir, entry.Name()))
	}

	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Prune deletes all but the keep newest backups.
func (s *Service) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}

	paths, err := s.List()
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}

	for _, path := range paths[keep:] {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old backup %s: %w", path, err)
		}
		if s.logger != nil {
			s.logger.Info("Pruned old backup", "path", path)
		}
	}
	return nil
}

package providers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/libraryapp/library-server/internal/backup"
	"github.com/libraryapp/library-server/internal/config"
	"github.com/libraryapp/library-server/internal/logger"
)

// BackupJob owns the periodic database snapshot loop.
type BackupJob struct {
	service *backup.Service
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *BackupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideBackupJob provides the backup service and starts the snapshot
// loop when an interval is configured.
func ProvideBackupJob(i do.Injector) (*BackupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := backup.NewService(storeHandle.Store, filepath.Join(cfg.Data.Path, "backups"), log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	job := &BackupJob{service: svc, cancel: cancel}

	if cfg.Data.BackupInterval <= 0 {
		log.Info("Periodic backups disabled")
		return job, nil
	}

	log.Info("Periodic backups enabled",
		"interval", cfg.Data.BackupInterval,
		"keep", cfg.Data.BackupKeep,
	)

	go runBackupLoop(ctx, svc, cfg.Data.BackupInterval, cfg.Data.BackupKeep, log)

	return job, nil
}

func runBackupLoop(ctx context.Context, svc *backup.Service, interval time.Duration, keep int, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Create(); err != nil {
				log.Error("Backup failed", "error", err)
				continue
			}
			if err := svc.Prune(keep); err != nil {
				log.Error("Backup pruning failed", "error", err)
			}
		}
	}
}

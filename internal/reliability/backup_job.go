package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BackupJob runs a full backup cycle: snapshot, upload, rotate.
type BackupJob struct {
	service     *BackupService
	retainCount int
	timeout     time.Duration
	log         zerolog.Logger
}

// NewBackupJob creates a scheduled backup job.
func NewBackupJob(service *BackupService, retainCount int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:     service,
		retainCount: retainCount,
		timeout:     30 * time.Minute,
		log:         log.With().Str("job", "backup").Logger(),
	}
}

// Run executes the backup job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	if err := j.service.RotateOldBackups(ctx, j.retainCount); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *BackupJob) Name() string {
	return "backup"
}

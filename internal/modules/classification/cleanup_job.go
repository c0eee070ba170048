package classification

import (
	"time"

	"github.com/rs/zerolog"
)

// HistoryRetention is how long superseded classification rows are kept
// before the pruning job removes them. The latest row per ticker is always
// retained.
const HistoryRetention = 90 * 24 * time.Hour

// PruneJob deletes superseded classification history past the retention
// window. It should be scheduled to run daily.
type PruneJob struct {
	repo      *Repository
	retention time.Duration
	log       zerolog.Logger
}

// NewPruneJob creates a new classification history pruning job.
func NewPruneJob(repo *Repository, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		repo:      repo,
		retention: HistoryRetention,
		log:       log.With().Str("job", "classification_prune").Logger(),
	}
}

// Run executes the pruning job.
func (j *PruneJob) Run() error {
	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.repo.PruneHistory(cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune classification history")
		return err
	}
	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Classification history pruning completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PruneJob) Name() string {
	return "classification_prune"
}

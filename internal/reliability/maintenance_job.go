package reliability

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/assetclass/internal/database"
)

// MaintenanceJob performs periodic database maintenance: WAL checkpoints to
// keep the write-ahead logs from growing unbounded, and a vacuum to reclaim
// free pages. Scheduled off-hours.
type MaintenanceJob struct {
	databases map[string]*database.DB
	vacuum    bool
	log       zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job over the given databases.
func NewMaintenanceJob(databases map[string]*database.DB, vacuum bool, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		vacuum:    vacuum,
		log:       log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Run executes the maintenance job. Checkpoint failures are logged and
// skipped; a wedged database should not stop maintenance of the others.
func (j *MaintenanceJob) Run() error {
	startTime := time.Now()

	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			continue
		}

		if j.vacuum {
			if err := db.Vacuum(); err != nil {
				j.log.Warn().Err(err).Str("database", name).Msg("Vacuum failed")
			}
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Bool("vacuum", j.vacuum).
		Msg("Database maintenance completed")

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

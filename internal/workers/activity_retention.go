package workers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/models"
)

// Standard 5-field cron expressions plus descriptors such as @daily
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StartActivityRetention prunes the activity log on the given cron schedule,
// once immediately and then on every tick. It returns a nil cron when pruning
// is disabled (empty schedule or non-positive retention).
func StartActivityRetention(db *gorm.DB, schedule string, retentionDays int, logger zerolog.Logger) (*cron.Cron, error) {
	if schedule == "" || retentionDays <= 0 {
		logger.Info().
			Str("schedule", schedule).
			Int("retention_days", retentionDays).
			Msg("Activity retention disabled")
		return nil, nil
	}

	parsed, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid activity retention schedule %q: %w", schedule, err)
	}

	retention := time.Duration(retentionDays) * 24 * time.Hour
	prune := func() {
		deleted, err := PruneActivities(db, time.Now().Add(-retention))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to prune activity log")
			return
		}
		logger.Info().
			Int64("deleted", deleted).
			Int("retention_days", retentionDays).
			Time("next_run_at", parsed.Next(time.Now())).
			Msg("Pruned activity log")
	}

	c := cron.New(cron.WithParser(scheduleParser))
	c.Schedule(parsed, cron.FuncJob(prune))

	// Run immediately on startup, then on schedule
	prune()
	c.Start()

	return c, nil
}

// PruneActivities deletes activity log entries created before cutoff and
// returns how many were removed
func PruneActivities(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("created_at < ?", cutoff.UTC()).Delete(&models.UserActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune activity log: %w", result.Error)
	}
	return result.RowsAffected, nil
}

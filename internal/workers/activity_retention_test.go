package workers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskdesk-dev/taskdesk/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "workers.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	user := &models.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return db
}

func seedActivity(t *testing.T, db *gorm.DB, action string, age time.Duration) {
	t.Helper()
	entry := &models.UserActivityLog{UserID: 1, Action: action}
	require.NoError(t, db.Create(entry).Error)
	require.NoError(t, db.Model(entry).UpdateColumn("created_at", time.Now().UTC().Add(-age)).Error)
}

func remainingActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var actions []string
	require.NoError(t, db.Model(&models.UserActivityLog{}).Order("id").Pluck("action", &actions).Error)
	return actions
}

func TestPruneActivities(t *testing.T) {
	db := setupDB(t)
	seedActivity(t, db, "old", 100*24*time.Hour)
	seedActivity(t, db, "recent", time.Hour)
	seedActivity(t, db, "older", 365*24*time.Hour)

	deleted, err := PruneActivities(db, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"recent"}, remainingActions(t, db))

	deleted, err = PruneActivities(db, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestStartActivityRetention_PrunesOnStart(t *testing.T) {
	db := setupDB(t)
	seedActivity(t, db, "old", 10*24*time.Hour)
	seedActivity(t, db, "recent", time.Hour)

	c, err := StartActivityRetention(db, "@daily", 7, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, c)
	t.Cleanup(func() { <-c.Stop().Done() })

	assert.Equal(t, []string{"recent"}, remainingActions(t, db))
	require.Len(t, c.Entries(), 1)
	assert.True(t, c.Entries()[0].Next.After(time.Now()))
}

func TestStartActivityRetention_Disabled(t *testing.T) {
	db := setupDB(t)
	seedActivity(t, db, "old", 1000*24*time.Hour)

	c, err := StartActivityRetention(db, "", 90, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = StartActivityRetention(db, "@daily", 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.Equal(t, []string{"old"}, remainingActions(t, db))
}

func TestStartActivityRetention_InvalidSchedule(t *testing.T) {
	db := setupDB(t)

	_, err := StartActivityRetention(db, "every tuesday", 90, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid activity retention schedule")
}

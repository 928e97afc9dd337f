package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingroom/internal/entities"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNewDatabase_CreatesSchema(t *testing.T) {
	db := newTestDatabase(t)

	for _, table := range []string{"books", "notes", "migration_history"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestDataMigrations_CollapseLegacyStatuses(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.DB.Create(&entities.Book{Title: "活着", Author: "余华", Status: "已读"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{Title: "围城", Author: "钱钟书", Status: "在读"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{Title: "三体", Author: "刘慈欣", Status: "read"}).Error)

	// The startup run already recorded the migration; clear the record so
	// it applies to the rows above.
	require.NoError(t, db.DB.Delete(&entities.MigrationHistory{Name: "collapse-legacy-status"}).Error)
	require.NoError(t, db.runDataMigrations())

	var statuses []string
	require.NoError(t, db.DB.Model(&entities.Book{}).Order("id").Pluck("status", &statuses).Error)
	assert.Equal(t, []string{"read", "reading", "read"}, statuses)
}

func TestDataMigrations_RunOnce(t *testing.T) {
	db := newTestDatabase(t)

	var history entities.MigrationHistory
	require.NoError(t, db.DB.Where("name = ?", "collapse-legacy-status").First(&history).Error)
	applied := history.AppliedAt

	// A second pass sees the history row and leaves everything alone.
	require.NoError(t, db.runDataMigrations())

	var count int64
	require.NoError(t, db.DB.Model(&entities.MigrationHistory{}).Count(&count).Error)
	assert.Equal(t, int64(len(dataMigrations)), count)

	require.NoError(t, db.DB.Where("name = ?", "collapse-legacy-status").First(&history).Error)
	assert.Equal(t, applied.Unix(), history.AppliedAt.Unix())
}

func TestSeedIfEmpty(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.SeedIfEmpty())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
	assert.Equal(t, int64(len(demoBooks)), count)

	t.Run("seeded rows get a reading date", func(t *testing.T) {
		var dates []string
		require.NoError(t, db.DB.Model(&entities.Book{}).Pluck("reading_date", &dates).Error)
		for _, date := range dates {
			assert.NotEmpty(t, date)
		}
	})

	t.Run("does not reseed a populated catalog", func(t *testing.T) {
		require.NoError(t, db.SeedIfEmpty())

		var after int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&after).Error)
		assert.Equal(t, count, after)
	})
}

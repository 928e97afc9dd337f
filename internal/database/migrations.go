package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"readingroom/internal/entities"
)

// dataMigration is a named one-shot data fixup. Each runs at most once;
// completed runs are recorded in migration_history by name.
type dataMigration struct {
	Name string
	Run  func(tx *gorm.DB) error
}

var dataMigrations = []dataMigration{
	{
		Name: "collapse-legacy-status",
		Run:  collapseLegacyStatuses,
	},
}

func (d *Database) runDataMigrations() error {
	for _, migration := range dataMigrations {
		var existing entities.MigrationHistory
		result := d.DB.Where("name = ?", migration.Name).First(&existing)
		if result.Error == nil {
			continue
		}
		if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}

		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if err := migration.Run(tx); err != nil {
				return err
			}
			return tx.Create(&entities.MigrationHistory{
				Name:      migration.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", migration.Name, err)
		}
		log.Printf("Applied data migration: %s", migration.Name)
	}
	return nil
}

// collapseLegacyStatuses rewrites retired status values into the
// current want-to-read / reading / read set.
func collapseLegacyStatuses(tx *gorm.DB) error {
	for legacy, current := range entities.LegacyStatuses {
		err := tx.Model(&entities.Book{}).
			Where("status = ?", legacy).
			Update("status", string(current)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

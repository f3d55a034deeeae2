package database

import (
	"errors"
	"time"

	"github.com/diyetkent/diyetkent/internal/records"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillNoteColors        = "2026-05-12_backfill_note_colors"
	migrationBackfillAppointmentStatus = "2026-05-12_backfill_appointment_status"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillNoteColors, apply: backfillNoteColors},
		{name: migrationBackfillAppointmentStatus, apply: backfillAppointmentStatus},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Notes written by earlier desktop builds predate the color field.
func backfillNoteColors(db *gorm.DB) error {
	return db.Model(&records.Note{}).
		Where("color = '' OR color IS NULL").
		Update("color", records.DefaultNoteColor).Error
}

// Appointments imported from the legacy store may carry an empty status.
func backfillAppointmentStatus(db *gorm.DB) error {
	return db.Model(&records.Appointment{}).
		Where("status = '' OR status IS NULL").
		Update("status", records.DefaultAppointmentStatus).Error
}

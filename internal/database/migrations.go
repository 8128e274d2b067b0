package database

import (
	"errors"
	"time"

	"github.com/nickdenys/grocery-bot/internal/items"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const provisionMigrationPrefix = "provision_"

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

// migrationsFor lists the one-shot migrations for a list schema. The list
// table is created once; later drops by the clear command are not undone here.
func migrationsFor(schema items.Schema) []migrationDefinition {
	return []migrationDefinition{
		{name: provisionMigrationPrefix + schema.Table, apply: provisionTable(schema)},
	}
}

func provisionTable(schema items.Schema) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		if db.Migrator().HasTable(schema.Table) {
			return nil
		}
		return db.Exec(schema.CreateStatement()).Error
	}
}

func applyMigrations(db *gorm.DB, migrations []migrationDefinition, logger *zap.Logger) error {
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
		record = migrationRecord{Name: migration.name, AppliedAtSeconds: time.Now().UTC().Unix()}
		if err := db.Create(&record).Error; err != nil {
			return err
		}
		logger.Info("database migration applied", zap.String("migration", migration.name))
	}
	return nil
}

package db

import (
	"fmt"

	"go_gone/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(gdb *gorm.DB, log *logrus.Entry) error {
	log.Info("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.GonePattern{},
		&model.GoneSetting{},
	}

	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Infof("Database migration completed successfully (%d tables)", len(models))
	return nil
}

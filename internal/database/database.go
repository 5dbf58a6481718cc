package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/config"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const usersAuthProviderConstraint = "chk_users_auth_provider"

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate creates the auth tables and installs the users credential check.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.LoginAttempt{},
		&models.Project{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	var exists bool
	err := db.Raw(
		"SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)",
		usersAuthProviderConstraint,
	).Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("failed to inspect constraints: %w", err)
	}
	if exists {
		return nil
	}

	err = db.Exec(fmt.Sprintf(
		"ALTER TABLE users ADD CONSTRAINT %s CHECK (%s)",
		usersAuthProviderConstraint, models.UsersAuthProviderCheck,
	)).Error
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", usersAuthProviderConstraint, err)
	}
	return nil
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

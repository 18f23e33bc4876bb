package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/driverlink/driverlink/internal/config"
	"github.com/driverlink/driverlink/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
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

// Migrate runs AutoMigrate for all models, then creates the partial unique
// indexes AutoMigrate cannot express. The WHERE active indexes are what make
// the at-most-one-active-vote/rating-per-(incident, user) invariant hold
// under concurrent writers; the application's read-then-write check alone is
// not enough.
func Migrate() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Location{},
		&models.Incident{},
		&models.Vote{},
		&models.Rating{},
		&models.Comment{},
		&models.SystemLog{},
	)
	if err != nil {
		return err
	}

	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_active_incident_user
			ON votes (incident_id, user_id) WHERE active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_active_incident_user
			ON ratings (incident_id, user_id) WHERE active`,
		`CREATE INDEX IF NOT EXISTS idx_comments_spam_window
			ON comments (incident_id, user_id, created_at) WHERE active`,
	}
	for _, stmt := range statements {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
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

package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
	applog "faceauth/pkg/logger"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Verbose enables SQL statement logging
	Verbose bool
}

// DSN builds the libpq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

func NewDatabase(config DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if config.Verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Enable pgvector extension for face descriptors
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Identity{},
		&models.FaceDescriptor{},
	); err != nil {
		return fmt.Errorf("failed to run auto migrations: %w", err)
	}

	// Matching reads the whole collection in insertion order
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_face_descriptors_created_at ON face_descriptors(created_at, id)`).Error; err != nil {
		return fmt.Errorf("failed to create descriptor order index: %w", err)
	}

	applog.DB("migrated", "Database schema migrated", map[string]interface{}{
		"tables": []string{models.Identity{}.TableName(), models.FaceDescriptor{}.TableName()},
	})
	return nil
}

// translateError maps gorm errors onto repository errors
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

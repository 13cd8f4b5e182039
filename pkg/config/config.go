package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"faceauth/pkg/facematch"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	FaceAPI   FaceAPIConfig
	Matching  MatchingConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Name   string
	Port   string
	Env    string
	LogDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type AdminConfig struct {
	Token string // Token for log access, admin endpoints are closed when unset
}

type FaceAPIConfig struct {
	BaseURL string        // Base URL of the descriptor extraction service
	Enabled bool          // Enable/disable server-side extraction
	Timeout time.Duration // Per-request timeout
}

type MatchingConfig struct {
	Threshold          float64 // Maximum euclidean distance for a match
	Dimension          int     // Descriptor length produced by the extractor
	DefaultDisplayName string  // Name given to freshly enrolled identities
}

type StoreConfig struct {
	Driver string // postgres or memory
}

type RateLimitConfig struct {
	Enabled           bool
	MaxRequests       int
	WindowSeconds     int
	AuthMaxRequests   int
	AuthWindowSeconds int
}

type SchedulerConfig struct {
	AuditCron string // Cron expression for the descriptor audit, empty disables it
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:   getEnv("APP_NAME", "Face Auth API"),
			Port:   getEnv("APP_PORT", "3000"),
			Env:    getEnv("APP_ENV", "development"),
			LogDir: getEnv("LOG_DIR", "logs"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "faceauth"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
			TTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL: getEnv("FACE_API_URL", "http://localhost:5000"),
			Enabled: getEnvBool("FACE_API_ENABLED", true),
			Timeout: getEnvDuration("FACE_API_TIMEOUT", 30*time.Second),
		},
		Matching: MatchingConfig{
			Threshold:          getEnvFloat("MATCH_THRESHOLD", facematch.DefaultThreshold),
			Dimension:          getEnvInt("DESCRIPTOR_DIMENSION", facematch.DescriptorSize),
			DefaultDisplayName: getEnv("DEFAULT_DISPLAY_NAME", "New User"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			MaxRequests:       getEnvInt("RATE_LIMIT_MAX", 100),
			WindowSeconds:     getEnvInt("RATE_LIMIT_WINDOW", 60),
			AuthMaxRequests:   getEnvInt("RATE_LIMIT_AUTH_MAX", 20),
			AuthWindowSeconds: getEnvInt("RATE_LIMIT_AUTH_WINDOW", 60),
		},
		Scheduler: SchedulerConfig{
			AuditCron: getEnv("AUDIT_CRON", "0 3 * * *"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if math.IsNaN(c.Matching.Threshold) || math.IsInf(c.Matching.Threshold, 0) || c.Matching.Threshold < 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be a finite number >= 0, got %v", c.Matching.Threshold)
	}
	if c.Matching.Dimension <= 0 {
		return fmt.Errorf("DESCRIPTOR_DIMENSION must be positive, got %d", c.Matching.Dimension)
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	return nil
}

// AdminToken returns the admin token. Empty disables the admin endpoints.
func (c *Config) AdminToken() string {
	return c.Admin.Token
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

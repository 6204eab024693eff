// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bankcards/internal/auth"
	"bankcards/internal/worker"
	"bankcards/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	DB         db.Config

	// CardEncryptionKey is a 64-character hex string or a raw 16/24/32-byte key.
	CardEncryptionKey string

	JWTSecret string
	JWTTTL    time.Duration

	ExpirySweepSchedule string

	// AdminEmail and AdminPassword seed the first administrator. Empty email disables seeding.
	AdminEmail    string
	AdminPassword string
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any required variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	dbPort, err := strconv.Atoi(getenv("DB_PORT", "5432")) // Default PostgreSQL port
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	driver := db.Dialect(getenv("DB_DRIVER", string(db.DialectPostgres)))
	if driver != db.DialectPostgres && driver != db.DialectSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want %q or %q", driver, db.DialectPostgres, db.DialectSQLite)
	}

	encryptionKey := os.Getenv("CARD_ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("CARD_ENCRYPTION_KEY is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	jwtTTL := auth.DefaultTokenTTL
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		jwtTTL, err = time.ParseDuration(raw)
		if err != nil || jwtTTL <= 0 {
			return nil, fmt.Errorf("invalid JWT_TTL %q", raw)
		}
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}

	return &AppConfig{
		ServerPort: getenv("SERVER_PORT", "8080"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		DB: db.Config{
			Driver:   driver,
			Host:     getenv("DB_HOST", "localhost"), // Default to localhost for local development
			Port:     dbPort,
			User:     getenv("DB_USER", "user"),
			Password: getenv("DB_PASSWORD", "password"),
			DBName:   getenv("DB_NAME", "bankcards"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
			Path:     getenv("DB_PATH", "bankcards.db"),
		},
		CardEncryptionKey:   encryptionKey,
		JWTSecret:           jwtSecret,
		JWTTTL:              jwtTTL,
		ExpirySweepSchedule: getenv("EXPIRY_SWEEP_SCHEDULE", worker.DefaultSchedule),
		AdminEmail:          adminEmail,
		AdminPassword:       adminPassword,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

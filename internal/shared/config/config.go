package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the service reads from the environment.
// A .env file is loaded when present; real environment variables win.
type Config struct {
	HTTPAddr   string
	BidTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load reads the environment (plus an optional .env file) into a Config,
// applying defaults for anything unset.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:   getenv("HTTP_ADDR", ":9000"),
		BidTimeout: getenvSeconds("BID_TIMEOUT_SECONDS", 10*time.Second),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "playerauction"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

// PostgresDSN builds the connection string consumed by pgx and migrate.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

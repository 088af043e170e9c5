package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Inclusive calendar window the dataset must cover.
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int

	MaxConcurrentFetches int
	FetchesPerSecond     float64
	MaxRetries           int
	NavigationTimeoutSec int
	ResultsTimeoutSec    int

	RawCSVPath     string
	CleanedCSVPath string
	ChromeBin      string
	Debug          bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "fares"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "fares123"),
		PostgresDB:       getEnv("POSTGRES_DB", "fares_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StartYear:  getEnvInt("WINDOW_START_YEAR", 2025),
		StartMonth: getEnvInt("WINDOW_START_MONTH", 6),
		EndYear:    getEnvInt("WINDOW_END_YEAR", 2025),
		EndMonth:   getEnvInt("WINDOW_END_MONTH", 8),

		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 3),
		FetchesPerSecond:     getEnvFloat("FETCHES_PER_SECOND", 0.5),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),
		NavigationTimeoutSec: getEnvInt("NAVIGATION_TIMEOUT_SEC", 60),
		ResultsTimeoutSec:    getEnvInt("RESULTS_TIMEOUT_SEC", 40),

		RawCSVPath:     getEnv("RAW_CSV_PATH", "./output/best_flight_prices.csv"),
		CleanedCSVPath: getEnv("CLEANED_CSV_PATH", "./output/clean.csv"),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		Debug:          getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

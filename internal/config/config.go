package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	DataDir         string
	SessionDuration time.Duration
	SessionSecret   string
	BadWordsURL     string

	// Learning engine settings
	MaxFragments     int
	AutoAdvanceDelay time.Duration
	LeaderboardSize  int
	DefaultLanguage  string

	// Logging
	LogLevel string
	LogDev   bool
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("PORT", "8080"),
		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DB_PATH", "./verselearn.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "./migrations"),
		DataDir:          getEnv("DATA_DIR", "./user_data"),
		SessionDuration:  getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production"),
		BadWordsURL:      getEnv("BAD_WORDS_URL", ""),
		MaxFragments:     getEnvInt("MAX_FRAGMENTS", 8),
		AutoAdvanceDelay: getEnvDuration("AUTO_ADVANCE_DELAY", 2*time.Second),
		LeaderboardSize:  getEnvInt("LEADERBOARD_SIZE", 10),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "DE"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		LogDev:           os.Getenv("LOG_DEV") == "1",
		LogFile:          getEnv("LOG_FILE", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	HomeDir           string
	DatabaseType      string
	DatabasePath      string
	DatabaseURL       string
	MigrationsPath    string
	SettingsPath      string
	LogDir            string
	LogLevel          string
	ServerPort        string
	GenerateRateLimit int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	home := getEnv("FLASHCARDS_HOME", defaultHomeDir())

	return &Config{
		HomeDir:           home,
		DatabaseType:      getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(home, "data", "flashcards.db")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", ""),
		SettingsPath:      getEnv("SETTINGS_PATH", filepath.Join(home, "settings.json")),
		LogDir:            getEnv("LOG_DIR", filepath.Join(home, "logs")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServerPort:        getEnv("PORT", "8080"),
		GenerateRateLimit: getEnvAsInt("GENERATE_RATE_LIMIT", 10),
	}
}

// EnsureDirs creates the directories the application writes into
func (c *Config) EnsureDirs() error {
	dirs := []string{c.LogDir, filepath.Dir(c.SettingsPath)}
	if c.DatabaseType == "" || c.DatabaseType == "sqlite" || c.DatabaseType == "sqlite3" {
		dirs = append(dirs, filepath.Dir(c.DatabasePath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func defaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".flashcards"
	}
	return filepath.Join(userHome, ".flashcards")
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an integer environment variable, falling back to the
// default when unset or unparsable
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

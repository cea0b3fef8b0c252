package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the database and store packages.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Storage
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ledger
	PageSize         int
	BaseCurrency     string
	ExchangeRates    string
	CategorySeedFile string

	// Auth
	JWTSecret          string
	JWTExpirationDur   time.Duration
	AuthPassphraseHash string
	PipelineAPIKey     string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", DriverSQLite),
		DBPath:     getEnv("DB_PATH", "circle.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "circle"),
		DBPassword: getEnv("DB_PASSWORD", "circle"),
		DBName:     getEnv("DB_NAME", "circle"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		BaseCurrency:     getEnv("BASE_CURRENCY", "USD"),
		ExchangeRates:    getEnv("EXCHANGE_RATES", ""),
		CategorySeedFile: getEnv("CATEGORY_SEED_FILE", ""),

		JWTSecret:          getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AuthPassphraseHash: getEnv("AUTH_PASSPHRASE_HASH", ""),
		PipelineAPIKey:     getEnv("PIPELINE_API_KEY", ""),
	}

	pageSize, err := strconv.Atoi(getEnv("PAGE_SIZE", "20"))
	if err != nil || pageSize <= 0 {
		log.Printf("Warning: invalid PAGE_SIZE value, falling back to 20\n")
		pageSize = 20
	}
	config.PageSize = pageSize

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to avoid reading
// the environment.
func Set(c *Config) {
	appConfig = c
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.AuthPassphraseHash != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

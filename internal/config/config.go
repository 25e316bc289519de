package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	// DatabaseDSN, when set, wins over the discrete DB_* parts.
	DatabaseDSN string
	DBHost      string
	DBName      string
	DBUser      string
	DBPass      string

	ConnectRetries int
	ConnectDelay   time.Duration

	// Bootstrap sources; the importer is skipped when the files are absent.
	ProductsCSV  string
	PurchasesCSV string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPass = os.Getenv("DB_PASS")
	cfg.ConnectRetries = getEnvInt("DB_CONNECT_RETRIES", 10)
	cfg.ConnectDelay = time.Duration(getEnvInt("DB_CONNECT_DELAY", 5)) * time.Second
	cfg.ProductsCSV = getEnv("PRODUCTS_CSV", "data/products_list.csv")
	cfg.PurchasesCSV = getEnv("PURCHASES_CSV", "data/purchases.csv")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

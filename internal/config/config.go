package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable through LEDGER_STORE.
const (
	StoreMemory   = "memory"
	StoreBigQuery = "bigquery"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
)

// Config is the process configuration shared by every binary.
type Config struct {
	Store string

	GCPProjectID string
	BQDataset    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ClearingAccounts []int
	DefaultCurrency  string

	LogLevel  string
	LogFormat string

	Port        string
	GCSBucket   string
	NotionToken string
	NotionDBID  string
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("Load: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Store:           strings.ToLower(getEnv("LEDGER_STORE", StoreMemory)),
		GCPProjectID:    getEnv("GCP_PROJECT_ID", ""),
		BQDataset:       getEnv("BQ_DATASET", "ledger"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", "ledger"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "tally"),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "EUR")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		Port:            getEnv("PORT", "8080"),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		NotionToken:     getEnv("NOTION_TOKEN", ""),
		NotionDBID:      getEnv("NOTION_DB_ID", ""),
	}

	cfg.DBPort = getEnv("DB_PORT", defaultDBPort(cfg.Store))

	accounts, err := ParseAccounts(getEnv("CLEARING_ACCOUNTS", "2310,5310"))
	if err != nil {
		return nil, fmt.Errorf("FromEnv: CLEARING_ACCOUNTS: %w", err)
	}
	cfg.ClearingAccounts = accounts

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("FromEnv: %w", err)
	}
	return cfg, nil
}

func defaultDBPort(store string) string {
	if store == StoreMySQL {
		return "3306"
	}
	return "5432"
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreMySQL:
	case StoreBigQuery:
		if c.GCPProjectID == "" {
			return fmt.Errorf("Validate: GCP_PROJECT_ID is required for the bigquery store")
		}
	default:
		return fmt.Errorf("Validate: unknown LEDGER_STORE %q", c.Store)
	}
	return nil
}

// ParseAccounts parses a comma separated list of account codes. Blank entries are
// skipped, so an empty string yields no accounts.
func ParseAccounts(s string) ([]int, error) {
	var accounts []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil || code <= 0 {
			return nil, fmt.Errorf("ParseAccounts: invalid account code %q", part)
		}
		accounts = append(accounts, code)
	}
	return accounts, nil
}

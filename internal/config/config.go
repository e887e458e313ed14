// Package config reads run settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ReferenceCurrency string
	Workers           int
	PDFPassword       string

	RatesFile      string
	RegistryFile   string
	CategoriesFile string

	LogLevel  string
	LogFormat string

	SuddenIncreaseThreshold decimal.Decimal

	GCP GCPConfig
}

type GCPConfig struct {
	Project     string
	Dataset     string
	GeminiModel string
}

// Load reads .env from the working directory when present, then the
// environment. Variables already set win over the file.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit env files. Missing files are skipped.
func LoadFiles(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	workers, err := strconv.Atoi(getEnv("AUDIT_WORKERS", "4"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("config: AUDIT_WORKERS must be a positive integer, got %q", os.Getenv("AUDIT_WORKERS"))
	}

	threshold, err := decimal.NewFromString(getEnv("AUDIT_SUDDEN_INCREASE_THRESHOLD", "2.0"))
	if err != nil {
		return nil, fmt.Errorf("config: AUDIT_SUDDEN_INCREASE_THRESHOLD: %w", err)
	}

	return &Config{
		ReferenceCurrency:       strings.ToUpper(getEnv("AUDIT_REFERENCE_CURRENCY", "COP")),
		Workers:                 workers,
		PDFPassword:             getEnv("AUDIT_PDF_PASSWORD", ""),
		RatesFile:               getEnv("AUDIT_RATES_FILE", ""),
		RegistryFile:            getEnv("AUDIT_REGISTRY_FILE", ""),
		CategoriesFile:          getEnv("AUDIT_CATEGORIES_FILE", ""),
		LogLevel:                getEnv("AUDIT_LOG_LEVEL", "info"),
		LogFormat:               getEnv("AUDIT_LOG_FORMAT", "console"),
		SuddenIncreaseThreshold: threshold,
		GCP: GCPConfig{
			Project:     getEnv("AUDIT_GCP_PROJECT", ""),
			Dataset:     getEnv("AUDIT_BQ_DATASET", "finance_audit"),
			GeminiModel: getEnv("AUDIT_GEMINI_MODEL", "gemini-2.5-flash"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"
)

type Config struct {
	HTTPAddress    string
	StorageDir     string
	StatusTable    string
	LogLevel       string
	SecretKey      string
	SecretKeyBytes []byte
	DevAuth        bool
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddress: getEnv("PLANNER_HTTP_ADDR", ":8080"),
		StorageDir:  getEnv("PLANNER_STORAGE_DIR", "./data"),
		StatusTable: getEnv("PLANNER_STATUS_TABLE", "schema_plan_status"),
		LogLevel:    getEnv("PLANNER_LOG_LEVEL", "info"),
		DevAuth:     strings.EqualFold(os.Getenv("PLANNER_DEV_AUTH"), "true"),
	}

	cfg.SecretKey = os.Getenv("PLANNER_SECRET_KEY")
	if cfg.SecretKey != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(cfg.SecretKey)
		if err != nil {
			return Config{}, errors.New("PLANNER_SECRET_KEY must be base64")
		}
		cfg.SecretKeyBytes = keyBytes
	}

	return cfg, nil
}

// ValidateServe checks the settings serve mode needs; the plain CLI
// commands run without them.
func (c Config) ValidateServe() error {
	if c.SecretKey == "" || len(c.SecretKeyBytes) < 32 {
		return errors.New("PLANNER_SECRET_KEY is required (base64, >=32 bytes)")
	}
	if c.StorageDir == "" {
		return errors.New("PLANNER_STORAGE_DIR is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

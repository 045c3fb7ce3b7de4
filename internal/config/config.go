package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is populated from CARDKEEPER_* environment variables. The
// database path defaults to cards.db next to wherever the process runs,
// which is how a shared-folder deployment works: everyone launches the
// same binary from the same folder and shares one file.
type Config struct {
	DBPath        string        `envconfig:"DB_PATH" default:"./cards.db"`
	BusyBudget    time.Duration `envconfig:"BUSY_BUDGET" default:"5s"`
	AuditInterval time.Duration `envconfig:"AUDIT_INTERVAL" default:"0"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"console"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("cardkeeper", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

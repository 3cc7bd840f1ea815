// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Production is the TRAININGOPS_ENV value that enables production behaviour.
const Production = "production"

// DefaultEnvFiles are loaded by Load when present. Variables already set in
// the process environment take precedence.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds every setting the server and CLI read at startup.
type Config struct {
	Env         string `env:"TRAININGOPS_ENV" envDefault:"development"`
	Addr        string `env:"TRAININGOPS_ADDR" envDefault:":8080"`
	DBPath      string `env:"TRAININGOPS_DB_PATH" envDefault:"trainingops.db"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MaxUploadMB int64  `env:"TRAININGOPS_MAX_UPLOAD_MB" envDefault:"10"`

	SyntheticEmailDomain string `env:"TRAININGOPS_SYNTHETIC_EMAIL_DOMAIN" envDefault:"staff.local"`

	// OperatorKeys maps operator email to the bcrypt hash of their API key.
	OperatorKeys map[string]string `env:"TRAININGOPS_OPERATOR_KEYS" envSeparator:"," envKeyValSeparator:"="`

	RateLimit     int `env:"TRAININGOPS_RATE_LIMIT" envDefault:"120"`
	SlowQueryMs   int `env:"TRAININGOPS_SLOW_QUERY_MS" envDefault:"50"`
	SlowRequestMs int `env:"TRAININGOPS_SLOW_REQUEST_MS" envDefault:"500"`

	// OutboxInterval is how often queued report mail is retried.
	OutboxInterval time.Duration `env:"TRAININGOPS_OUTBOX_INTERVAL" envDefault:"1m"`

	ResendKey string `env:"TRAININGOPS_RESEND_KEY"`
	EmailFrom string `env:"TRAININGOPS_EMAIL_FROM" envDefault:"Training Ops <noreply@trainingops.local>"`
}

// LoadEnvFiles loads the given dotenv files that exist and reports how many were read.
func LoadEnvFiles(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads DefaultEnvFiles and then parses the environment.
func Load() (Config, error) {
	if _, err := LoadEnvFiles(DefaultEnvFiles); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current process environment.
// PRE: none
// POST: returned Config passed Validate
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.OperatorKeys = normalizeKeys(cfg.OperatorKeys)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required combinations.
func (c Config) Validate() error {
	var errs []error
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("TRAININGOPS_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("TRAININGOPS_RATE_LIMIT must be non-negative, got %d", c.RateLimit))
	}
	if c.SlowQueryMs < 0 || c.SlowRequestMs < 0 {
		errs = append(errs, errors.New("slow query and request thresholds must be non-negative"))
	}
	if c.OutboxInterval <= 0 {
		errs = append(errs, fmt.Errorf("TRAININGOPS_OUTBOX_INTERVAL must be positive, got %s", c.OutboxInterval))
	}
	if strings.Contains(strings.TrimPrefix(c.SyntheticEmailDomain, "@"), "@") {
		errs = append(errs, fmt.Errorf("TRAININGOPS_SYNTHETIC_EMAIL_DOMAIN %q is not a domain", c.SyntheticEmailDomain))
	}
	if c.IsProduction() && len(c.OperatorKeys) == 0 {
		errs = append(errs, errors.New("TRAININGOPS_OPERATOR_KEYS is required in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == Production
}

// MaxUploadBytes is the upload cap in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func normalizeKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for the weddingkeeper CLI.
//
// Fields:
//   - APIBaseURL: root of the backend REST API, e.g. "http://localhost:8000/api".
//   - RequestTimeout: upper bound for any single HTTP request.
//   - VerifyTimeout: upper bound for re-checking a remembered guest.
//   - PollInterval / SettleDelay / LongWaitAfter / MaxNetworkFailures: import polling.
//   - SessionTTL: lifetime of a remembered guest, counted from registration.
//   - DatabasePath: SQLite file for local state; empty keeps state in memory.
//   - LogFile / LogLevel: optional JSON log file and minimum level.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	VerifyTimeout  time.Duration

	PollInterval       time.Duration
	SettleDelay        time.Duration
	LongWaitAfter      int
	MaxNetworkFailures int

	SessionTTL   time.Duration
	DatabasePath string

	LogFile  string
	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api"
	c.RequestTimeout = 30 * time.Second
	c.VerifyTimeout = 10 * time.Second
	c.PollInterval = 3 * time.Second
	c.SettleDelay = 500 * time.Millisecond
	c.LongWaitAfter = 17
	c.MaxNetworkFailures = 60
	c.SessionTTL = 365 * 24 * time.Hour
	c.DatabasePath = defaultDatabasePath()
	c.LogFile = ""
	c.LogLevel = "warn"
}

// Load builds a Config from defaults, the config file, the environment and
// the flags in fs, in that order. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, os.LookupEnv)
}

func load(fs *pflag.FlagSet, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := configPath(fs, lookup); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
	}

	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, errors.New("settle delay must not be negative"))
	}
	if c.VerifyTimeout <= 0 {
		errs = append(errs, errors.New("verify timeout must be positive"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout must not be negative"))
	}
	if c.LongWaitAfter <= 0 || c.MaxNetworkFailures <= 0 {
		errs = append(errs, errors.New("poll thresholds must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	return errors.Join(errs...)
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "weddingkeeper.db"
	}
	return filepath.Join(dir, "weddingkeeper", "weddingkeeper.db")
}

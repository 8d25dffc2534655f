package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/weddingkeeper/internal/timex"
)

// FileConfig is a DTO used only for decoding config files. Durations rely on
// timex.Duration so they can be written as "3s" or as integer nanoseconds.
// Absent fields leave the current value untouched.
type FileConfig struct {
	APIBaseURL         string          `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout     *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	VerifyTimeout      *timex.Duration `json:"verify_timeout" yaml:"verify_timeout"`
	PollInterval       *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	SettleDelay        *timex.Duration `json:"settle_delay" yaml:"settle_delay"`
	LongWaitAfter      *int            `json:"long_wait_after" yaml:"long_wait_after"`
	MaxNetworkFailures *int            `json:"max_network_failures" yaml:"max_network_failures"`
	SessionTTL         *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	DatabasePath       *string         `json:"database_path" yaml:"database_path"`
	LogFile            *string         `json:"log_file" yaml:"log_file"`
	LogLevel           string          `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the values found in path. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.VerifyTimeout != nil {
		cfg.VerifyTimeout = fc.VerifyTimeout.Duration
	}
	if fc.PollInterval != nil {
		cfg.PollInterval = fc.PollInterval.Duration
	}
	if fc.SettleDelay != nil {
		cfg.SettleDelay = fc.SettleDelay.Duration
	}
	if fc.LongWaitAfter != nil {
		cfg.LongWaitAfter = *fc.LongWaitAfter
	}
	if fc.MaxNetworkFailures != nil {
		cfg.MaxNetworkFailures = *fc.MaxNetworkFailures
	}
	if fc.SessionTTL != nil {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}

package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and parseFlags.
const (
	FlagConfig         = "config"
	FlagAPIURL         = "api-url"
	FlagDB             = "db"
	FlagLogFile        = "log-file"
	FlagLogLevel       = "log-level"
	FlagPollInterval   = "poll-interval"
	FlagRequestTimeout = "request-timeout"
	FlagVerifyTimeout  = "verify-timeout"
)

// RegisterFlags adds the configuration flags to fs. Defaults shown in help
// are the built-in ones; file and environment values still apply unless the
// flag is given explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(FlagAPIURL, d.APIBaseURL, "base URL of the wedding API")
	fs.String(FlagDB, d.DatabasePath, "SQLite file for remembered guests and preferences (empty keeps them in memory)")
	fs.String(FlagLogFile, d.LogFile, "also write JSON logs to this file")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
	fs.Duration(FlagPollInterval, d.PollInterval, "delay between import status checks")
	fs.Duration(FlagRequestTimeout, d.RequestTimeout, "timeout for a single API request")
	fs.Duration(FlagVerifyTimeout, d.VerifyTimeout, "timeout for re-checking a remembered guest")
}

// parseFlags copies every flag the user set explicitly into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	strs := map[string]*string{
		FlagAPIURL:   &cfg.APIBaseURL,
		FlagDB:       &cfg.DatabasePath,
		FlagLogFile:  &cfg.LogFile,
		FlagLogLevel: &cfg.LogLevel,
	}
	for name, dst := range strs {
		if !changed(fs, name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	durations := map[string]*time.Duration{
		FlagPollInterval:   &cfg.PollInterval,
		FlagRequestTimeout: &cfg.RequestTimeout,
		FlagVerifyTimeout:  &cfg.VerifyTimeout,
	}
	for name, dst := range durations {
		if !changed(fs, name) {
			continue
		}
		v, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

func changed(fs *pflag.FlagSet, name string) bool {
	return fs.Lookup(name) != nil && fs.Changed(name)
}

func configPath(fs *pflag.FlagSet, lookup func(string) (string, bool)) string {
	if fs != nil && changed(fs, FlagConfig) {
		if p, err := fs.GetString(FlagConfig); err == nil {
			return p
		}
	}
	if p, ok := lookup(EnvPrefix + "CONFIG"); ok {
		return p
	}
	return ""
}

package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment variable the client reads.
const EnvPrefix = "WEDDINGKEEPER_"

// parseEnv overlays cfg with WEDDINGKEEPER_* variables. A variable that is
// set but empty clears string settings; malformed numbers are an error.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"API_URL":   &cfg.APIBaseURL,
		"DB":        &cfg.DatabasePath,
		"LOG_FILE":  &cfg.LogFile,
		"LOG_LEVEL": &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"VERIFY_TIMEOUT":  &cfg.VerifyTimeout,
		"POLL_INTERVAL":   &cfg.PollInterval,
		"SETTLE_DELAY":    &cfg.SettleDelay,
		"SESSION_TTL":     &cfg.SessionTTL,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"LONG_WAIT_AFTER":      &cfg.LongWaitAfter,
		"MAX_NETWORK_FAILURES": &cfg.MaxNetworkFailures,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}
	return nil
}

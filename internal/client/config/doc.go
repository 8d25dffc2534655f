// Package config loads runtime configuration for the weddingkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file, JSON or YAML by extension, selected with --config
//     or WEDDINGKEEPER_CONFIG.
//  3. Environment variables prefixed with WEDDINGKEEPER_. A .env file in the
//     working directory is loaded first by the CLI.
//  4. Command-line flags registered with RegisterFlags. Only flags the user
//     actually set override earlier values.
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "https://api.example.com/api",
//	  "poll_interval": "3s",
//	  "verify_timeout": "10s",
//	  "database_path": "/var/lib/weddingkeeper/client.db"
//	}
package config

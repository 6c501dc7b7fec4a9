// Package config loads and validates server settings.
//
// Settings come from a JSON file layered over Defaults; command line flags and
// environment variables override file values in main. Durations are written
// as Go duration strings ("10s", "250ms") or bare seconds.
//
// Example settings file:
//
//	{
//	  "port": 8080,
//	  "redis_addr": "localhost:6379",
//	  "fallback_delay": "10s",
//	  "abandon_timeout": "30s",
//	  "retention": "5m",
//	  "bot_depth": 4
//	}
package config

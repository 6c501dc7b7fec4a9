package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ConfigError is a custom error type for settings problems
type ConfigError string

// Error implements the error interface
func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrConfigNotFound  ConfigError = "configuration not found"
	ErrInvalidSettings ConfigError = "invalid settings"
)

// Duration is a time.Duration that reads and writes as "10s" in JSON.
// Bare numbers are taken as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		secs, numErr := strconv.ParseFloat(string(data), 64)
		if numErr != nil {
			return errors.Wrapf(err, "duration %s", data)
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Settings configures the server
type Settings struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// RedisAddr enables stats persistence; empty runs without it
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db"`

	FallbackDelay  Duration `json:"fallback_delay"`
	AbandonTimeout Duration `json:"abandon_timeout"`
	Retention      Duration `json:"retention"`
	SweepInterval  Duration `json:"sweep_interval"`

	BotDepth    int      `json:"bot_depth"`
	BotThinkMin Duration `json:"bot_think_min"`
	BotThinkMax Duration `json:"bot_think_max"`

	PoolSize int  `json:"pool_size"`
	Debug    bool `json:"debug"`
}

// Defaults returns the settings used when nothing is configured
func Defaults() *Settings {
	return &Settings{
		Host:           "0.0.0.0",
		Port:           8080,
		FallbackDelay:  Duration(10 * time.Second),
		AbandonTimeout: Duration(30 * time.Second),
		Retention:      Duration(300 * time.Second),
		SweepInterval:  Duration(5 * time.Second),
		BotDepth:       4,
		BotThinkMin:    Duration(100 * time.Millisecond),
		BotThinkMax:    Duration(500 * time.Millisecond),
		PoolSize:       16,
	}
}

// Load reads a settings file over the defaults and validates the result
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrConfigNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to read settings file %s", path)
	}
	return Parse(data)
}

// Parse decodes settings JSON over the defaults and validates the result
func Parse(data []byte) (*Settings, error) {
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode reads settings JSON over the defaults without validating.
// Unknown fields are rejected.
func Decode(data []byte) (*Settings, error) {
	s := Defaults()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to parse settings")
	}
	return s, nil
}

// Validate checks every field and reports all problems at once
func (s *Settings) Validate() error {
	if problems := s.Problems(); len(problems) > 0 {
		return errors.Wrapf(ErrInvalidSettings, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// Problems lists every invalid field
func (s *Settings) Problems() []string {
	var problems []string

	if s.Port < 1 || s.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}
	if s.RedisDB < 0 {
		problems = append(problems, "redis_db cannot be negative")
	}
	if s.FallbackDelay <= 0 {
		problems = append(problems, "fallback_delay must be positive")
	}
	if s.AbandonTimeout <= 0 {
		problems = append(problems, "abandon_timeout must be positive")
	}
	if s.Retention <= 0 {
		problems = append(problems, "retention must be positive")
	}
	if s.SweepInterval <= 0 {
		problems = append(problems, "sweep_interval must be positive")
	}
	if s.BotDepth < 1 || s.BotDepth > 10 {
		problems = append(problems, "bot_depth must be between 1 and 10")
	}
	if s.BotThinkMin < 0 {
		problems = append(problems, "bot_think_min cannot be negative")
	}
	if s.BotThinkMax < s.BotThinkMin {
		problems = append(problems, "bot_think_max must not be below bot_think_min")
	}
	if s.PoolSize < 1 {
		problems = append(problems, "pool_size must be positive")
	}

	return problems
}

// Addr returns host:port for the HTTP listener
func (s *Settings) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

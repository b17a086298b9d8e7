package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/roach88/aiden/internal/environment"
)

// Environment variables that override file values when set.
const (
	EnvMaxIterations    = "AIDEN_MAX_ITERATIONS"
	EnvIterationTimeout = "AIDEN_ITERATION_TIMEOUT"
	EnvMaxDuration      = "AIDEN_MAX_DURATION"
	EnvStore            = "AIDEN_DB"
	EnvProvider         = "AIDEN_PROVIDER"
	EnvPingTimeout      = "AIDEN_PG_PING_TIMEOUT"
)

func (c *Config) applyEnv() error {
	if c.Environment == nil {
		c.Environment = &EnvironmentConfig{}
	}
	c.Environment.Type = String(environment.EnvType, c.Environment.Type)
	c.Environment.URL = String(environment.EnvURL, c.Environment.URL)

	c.Store = String(EnvStore, c.Store)

	if c.Providers == nil {
		c.Providers = &Providers{}
	}
	c.Providers.Default = String(EnvProvider, c.Providers.Default)

	if c.Build == nil {
		c.Build = &BuildConfig{}
	}
	n, err := Int(EnvMaxIterations, c.Build.MaxIterations)
	if err != nil {
		return err
	}
	c.Build.MaxIterations = n
	c.Build.IterationTimeout = String(EnvIterationTimeout, c.Build.IterationTimeout)
	c.Build.MaxDuration = String(EnvMaxDuration, c.Build.MaxDuration)
	return nil
}

// PingTimeout returns AIDEN_PG_PING_TIMEOUT, or def when unset.
func PingTimeout(def time.Duration) (time.Duration, error) {
	return Duration(EnvPingTimeout, def)
}

// String returns the value of key, or def when unset.
func String(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Duration parses the value of key, or returns def when unset.
func Duration(key string, def time.Duration) (time.Duration, error) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}

// Bool parses the value of key, or returns def when unset.
func Bool(key string, def bool) (bool, error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}

// Int parses the value of key, or returns def when unset.
func Int(key string, def int) (int, error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}

// Package config defines the engine configuration and loads it from
// multiple sources with priority: Env > File > Default.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Keyspace KeyspaceConfig `koanf:"keyspace"`
	Expire   ExpireConfig   `koanf:"expire"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

// KeyspaceConfig carries the tunable engine knobs.
type KeyspaceConfig struct {
	ZSetListpackEntries int `koanf:"zset_listpack_entries"`
}

// ExpireConfig configures the active expiration sweeper.
type ExpireConfig struct {
	Interval time.Duration `koanf:"interval"`
	Budget   int           `koanf:"budget"`
}

// SnapshotConfig configures snapshot persistence.
type SnapshotConfig struct {
	Dir            string `koanf:"dir"`
	RetentionCount int    `koanf:"retention_count"`
	RetentionDays  int    `koanf:"retention_days"`
}

// Default returns the configuration used when no source overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Keyspace: KeyspaceConfig{
			ZSetListpackEntries: 128,
		},
		Expire: ExpireConfig{
			Interval: 100 * time.Millisecond,
			Budget:   20,
		},
		Snapshot: SnapshotConfig{
			Dir:            "data/snapshots",
			RetentionCount: 5,
			RetentionDays:  7,
		},
	}
}

// Verify checks the configuration for values the engine cannot run with.
func (c *Config) Verify() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Expire.Interval <= 0 {
		return fmt.Errorf("config: expire interval must be positive, got %s", c.Expire.Interval)
	}
	if c.Expire.Budget < 0 {
		return fmt.Errorf("config: expire budget must not be negative, got %d", c.Expire.Budget)
	}
	if c.Snapshot.Dir == "" {
		return fmt.Errorf("config: snapshot dir is required")
	}
	return nil
}

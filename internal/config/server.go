// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package config loads the server's YAML configuration file and applies
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the full configuration for cmd/redis-server.
type ServerConfig struct {
	Server    ServerListen     `yaml:"server"`
	ReplicaOf *ReplicaOfConfig `yaml:"replicaof"`
	Logging   LoggingInfo      `yaml:"logging"`
	Sweep     SweepConfig      `yaml:"sweep"`
	Snapshot  SnapshotConfig   `yaml:"snapshot"`
}

// ServerListen is the RESP listener's bind address.
type ServerListen struct {
	Listen string `yaml:"listen"`
}

// ReplicaOfConfig points this server at a leader to replicate from. A nil
// *ReplicaOfConfig on ServerConfig means this server runs as a leader.
type ReplicaOfConfig struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// LoggingInfo configures the slog handler, mirroring internal/logging's
// NewLogger parameters directly.
type LoggingInfo struct {
	Level  string `yaml:"level"`  // debug|info|warn|error, default info
	Format string `yaml:"format"` // json|text, default json
	File   string `yaml:"file"`   // optional tee target, default stdout only
}

// SweepConfig controls the store's active-expiry background sweep.
type SweepConfig struct {
	Schedule string `yaml:"schedule"` // robfig/cron expression, default "@every 1m"
}

// SnapshotConfig controls the leader's rate-limited snapshot transfer to
// newly joined followers.
type SnapshotConfig struct {
	RateBytesPerSec int `yaml:"rate_bytes_per_sec"` // default 8MiB/s
	BurstBytes      int `yaml:"burst_bytes"`        // default 64KiB
}

const (
	defaultListen          = "0.0.0.0:6379"
	defaultSweepSchedule   = "@every 1m"
	defaultSnapshotRateBps = 8 * 1024 * 1024
	defaultSnapshotBurst   = 64 * 1024
)

// LoadServerConfig reads and validates the YAML config file at path. An
// empty path returns the zero-configuration leader defaults, matching how
// redis-server runs with no config file at all.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading server config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing server config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating server config: %w", err)
	}
	return cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = defaultSweepSchedule
	}
	if c.Snapshot.RateBytesPerSec == 0 {
		c.Snapshot.RateBytesPerSec = defaultSnapshotRateBps
	}
	if c.Snapshot.BurstBytes == 0 {
		c.Snapshot.BurstBytes = defaultSnapshotBurst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *ServerConfig) validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.ReplicaOf != nil {
		if c.ReplicaOf.Host == "" {
			return fmt.Errorf("replicaof.host is required when replicaof is set")
		}
		if c.ReplicaOf.Port == 0 {
			return fmt.Errorf("replicaof.port is required when replicaof is set")
		}
	}
	return nil
}

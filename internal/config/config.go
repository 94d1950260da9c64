// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package config defines the service configuration and its layered loading:
// built-in defaults, an optional YAML file, and environment overrides.
package config

import (
	"fmt"
	"math"
	"time"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "VVIBE_CONFIG_PATH"

// DefaultConfigPaths are searched in order when VVIBE_CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/vvibe/config.yaml",
}

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Remote   RemoteConfig   `koanf:"remote"`
	Storage  StorageConfig  `koanf:"storage"`
	Ranking  RankingConfig  `koanf:"ranking"`
	Mirror   MirrorConfig   `koanf:"mirror"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per RateLimitWindow.
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig holds the DuckDB catalog settings.
type DatabaseConfig struct {
	// Path is the database file; empty means in-memory.
	Path            string        `koanf:"path"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Threads         int           `koanf:"threads"`

	// SeedSamples inserts the built-in sample profiles into an empty catalog
	// at startup, on top of the in-process fallback.
	SeedSamples bool `koanf:"seed_samples"`
}

// StoreConfig holds the BadgerDB device-state settings.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// RemoteConfig holds the collaborative-scoring RPC settings.
type RemoteConfig struct {
	// CFScoresURL is the endpoint of the get_cf_scores RPC. Empty disables
	// collaborative scoring entirely (content-only ranking).
	CFScoresURL string        `koanf:"cf_scores_url"`
	Timeout     time.Duration `koanf:"timeout"`

	// BreakerMaxFailures consecutive failures open the circuit.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// StorageConfig holds object-storage URL resolution settings.
type StorageConfig struct {
	// PublicBaseURL is the public root of the object store, e.g.
	// https://cdn.example.com/storage/v1/object/public
	PublicBaseURL string `koanf:"public_base_url"`
	ImageBucket   string `koanf:"image_bucket"`
	VoiceBucket   string `koanf:"voice_bucket"`
}

// RankingConfig holds the scoring constants. These are deployment constants,
// not a tunable-weights surface; Validate rejects degenerate values.
type RankingConfig struct {
	// LikeDelta is added to each tag weight on a like.
	LikeDelta float64 `koanf:"like_delta"`
	// PassDelta is added to each tag weight on a pass (negative).
	PassDelta float64 `koanf:"pass_delta"`
	// BoostBonus is added to the content score of boosted candidates.
	BoostBonus float64 `koanf:"boost_bonus"`
	// ContentWeight and CFWeight blend content and collaborative scores.
	// They must sum to 1.
	ContentWeight float64 `koanf:"content_weight"`
	CFWeight      float64 `koanf:"cf_weight"`
}

// MirrorConfig holds the fire-and-forget mirroring pipeline settings.
type MirrorConfig struct {
	// BufferSize is the in-process channel capacity per topic.
	BufferSize int `koanf:"buffer_size"`

	// WritesPerSecond throttles the consumer's database writes.
	WritesPerSecond float64 `koanf:"writes_per_second"`
	Burst           int     `koanf:"burst"`
}

// SessionConfig holds swipe-session lifecycle settings.
type SessionConfig struct {
	// TTL is the idle lifetime of a session; expired sessions are swept.
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// AuthConfig holds bearer-token verification settings. Tokens are issued by
// an external identity provider; this service only verifies them.
type AuthConfig struct {
	// JWTSecret is the HMAC key for token verification. Empty means bearer
	// tokens are ignored and all sessions are anonymous.
	JWTSecret string `koanf:"jwt_secret"`
}

// defaultConfig returns the built-in defaults, the lowest layer of the
// configuration stack.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:            "data/vvibe.duckdb",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			Threads:         2,
			SeedSamples:     false,
		},
		Store: StoreConfig{
			Path:     "data/device-state",
			InMemory: false,
		},
		Remote: RemoteConfig{
			CFScoresURL:        "",
			Timeout:            5 * time.Second,
			BreakerMaxFailures: 3,
			BreakerTimeout:     30 * time.Second,
		},
		Storage: StorageConfig{
			PublicBaseURL: "",
			ImageBucket:   "vliver-images",
			VoiceBucket:   "voice-posts",
		},
		Ranking: RankingConfig{
			LikeDelta:     1.0,
			PassDelta:     -0.3,
			BoostBonus:    1.5,
			ContentWeight: 0.4,
			CFWeight:      0.6,
		},
		Mirror: MirrorConfig{
			BufferSize:      256,
			WritesPerSecond: 50,
			Burst:           25,
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret: "",
		},
	}
}

// Validate checks the configuration for values that would make the service
// misbehave silently.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server rate limit and window must be positive")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive")
	}
	if c.Remote.BreakerMaxFailures == 0 {
		return fmt.Errorf("remote.breaker_max_failures must be at least 1")
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if c.Mirror.BufferSize < 1 {
		return fmt.Errorf("mirror.buffer_size must be at least 1")
	}
	if c.Mirror.WritesPerSecond <= 0 || c.Mirror.Burst < 1 {
		return fmt.Errorf("mirror throttle must be positive")
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session ttl and sweep interval must be positive")
	}
	return nil
}

// Validate checks the ranking constants.
func (r *RankingConfig) Validate() error {
	if r.LikeDelta <= 0 {
		return fmt.Errorf("like_delta must be positive, got %g", r.LikeDelta)
	}
	if r.PassDelta >= 0 {
		return fmt.Errorf("pass_delta must be negative, got %g", r.PassDelta)
	}
	if r.BoostBonus < 0 {
		return fmt.Errorf("boost_bonus must be non-negative, got %g", r.BoostBonus)
	}
	if r.ContentWeight < 0 || r.CFWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if math.Abs(r.ContentWeight+r.CFWeight-1.0) > 1e-9 {
		return fmt.Errorf("content_weight + cf_weight must equal 1, got %g", r.ContentWeight+r.CFWeight)
	}
	return nil
}

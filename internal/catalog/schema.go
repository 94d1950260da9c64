// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package catalog is the relational side of the service: the VLiver and
// voice-post catalog read at startup, and the tables the mirror pipeline
// writes swipe events and favorites into. DuckDB is the storage engine.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "duckdb" driver.
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/vvibe/vvibe/internal/config"
)

// Open opens the DuckDB database and applies the pool settings. An empty
// path opens an in-memory database.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	connStr := cfg.Path
	if cfg.Threads > 0 {
		connStr = fmt.Sprintf("%s?threads=%d", cfg.Path, cfg.Threads)
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb at %q: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return db, nil
}

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vliver_profiles (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		handle      TEXT,
		description TEXT,
		theme_color TEXT,
		image_path  TEXT,
		is_boosted  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS voice_posts (
		id         TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		title      TEXT,
		tags       TEXT,
		voice_path TEXT,
		published  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS swipe_events (
		user_id       TEXT NOT NULL,
		voice_post_id TEXT NOT NULL,
		action        TEXT NOT NULL,
		occurred_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, voice_post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id       TEXT NOT NULL,
		voice_post_id TEXT NOT NULL,
		position      INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, voice_post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		kind       TEXT,
		body       TEXT,
		read       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the catalog tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			name := strings.Fields(stmt)[5] // table name after "CREATE TABLE IF NOT EXISTS"
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
	}
	return nil
}

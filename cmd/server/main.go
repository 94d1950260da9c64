// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package main is the entry point for the V-Vibe recommendation server.
//
// V-Vibe connects fans with VLivers through a swipe deck of voice posts.
// This service owns the ranking side of the product: it accumulates tag
// preferences per device, blends them with collaborative scores fetched
// from the scoring backend, and serves ranked decks over a small REST
// surface with a websocket event stream.
//
// # Startup Order
//
//  1. Configuration: koanf v2 layering of defaults, config.yaml, VVIBE_* env
//  2. Device state: BadgerDB store for per-device preferences and favorites
//  3. Catalog: DuckDB with VLiver profiles and voice posts, loaded in the
//     background with a built-in sample fallback
//  4. Mirror pipeline: Watermill in-process pub/sub draining swipe and
//     favorite events into the catalog database
//  5. Sessions: manager with idle sweeping, per-session CF score caches
//  6. HTTP server: chi router under a suture supervisor tree
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the session manager flushes pending device-state
// writes, and both databases close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"

	"github.com/vvibe/vvibe/internal/api"
	"github.com/vvibe/vvibe/internal/catalog"
	"github.com/vvibe/vvibe/internal/cfscore"
	"github.com/vvibe/vvibe/internal/config"
	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/mirror"
	"github.com/vvibe/vvibe/internal/recommend"
	"github.com/vvibe/vvibe/internal/session"
	"github.com/vvibe/vvibe/internal/supervisor"
	ws "github.com/vvibe/vvibe/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("store_path", cfg.Store.Path).
		Bool("cf_enabled", cfg.Remote.CFScoresURL != "").
		Msg("Starting V-Vibe recommendation service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Device state: per-device tag weights and favorites.
	storeOpts := badger.DefaultOptions(cfg.Store.Path).WithLogger(nil)
	if cfg.Store.InMemory {
		storeOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	deviceDB, err := badger.Open(storeOpts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open device-state store")
	}
	defer func() {
		if err := deviceDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing device-state store")
		}
	}()

	// Catalog: VLiver profiles and voice posts.
	db, err := catalog.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog database")
		}
	}()
	if err := catalog.Migrate(ctx, db); err != nil {
		logging.Fatal().Err(err).Msg("Failed to migrate catalog schema")
	}

	store := catalog.NewStore(db, catalog.NewResolver(cfg.Storage))
	if cfg.Database.SeedSamples {
		if err := store.SeedSamples(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed sample catalog")
		}
	}

	// The catalog loads in the background; sessions report the loading
	// state until it settles.
	source := catalog.NewSource(store)
	go source.Load(ctx)

	// Mirror pipeline: best-effort persistence of swipes and favorites.
	pubsub := mirror.NewPubSub(cfg.Mirror.BufferSize)
	defer func() {
		if err := pubsub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing mirror pub/sub")
		}
	}()
	publisher := mirror.NewPublisher(pubsub)
	consumer := mirror.NewConsumer(pubsub, store, cfg.Mirror.WritesPerSecond, cfg.Mirror.Burst)

	var fetcher cfscore.Fetcher
	if cfg.Remote.CFScoresURL != "" {
		fetcher = cfscore.NewHTTPFetcher(cfg.Remote)
	} else {
		logging.Info().Msg("Collaborative scoring disabled (remote.cf_scores_url not set)")
	}

	rankCfg := recommend.Config{
		LikeDelta:     cfg.Ranking.LikeDelta,
		PassDelta:     cfg.Ranking.PassDelta,
		BoostBonus:    cfg.Ranking.BoostBonus,
		ContentWeight: cfg.Ranking.ContentWeight,
		CFWeight:      cfg.Ranking.CFWeight,
	}

	hub := ws.NewHub()
	verifier := identity.NewVerifier(cfg.Auth.JWTSecret)
	manager := session.NewManager(rankCfg, cfg.Session, deviceDB, source, fetcher, publisher, verifier, hub)
	defer manager.Flush()

	srv := api.NewServer(manager, source, hub, store)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Routes(cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(consumer)
	tree.AddMessagingService(hub)
	tree.AddMessagingService(manager)
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", httpServer.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		manager.Flush()
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}

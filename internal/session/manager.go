// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/vvibe/vvibe/internal/cfscore"
	"github.com/vvibe/vvibe/internal/config"
	"github.com/vvibe/vvibe/internal/favorites"
	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
	"github.com/vvibe/vvibe/internal/mirror"
	"github.com/vvibe/vvibe/internal/prefs"
	"github.com/vvibe/vvibe/internal/recommend"
)

// deviceState bundles the durable per-device stores. Two sessions on the
// same device share them.
type deviceState struct {
	prefs *prefs.Store
	favs  *favorites.Store
}

// Manager creates and expires sessions and owns the per-device store
// registry.
type Manager struct {
	cfg      recommend.Config
	sessions config.SessionConfig

	db       *badger.DB
	source   CandidateSource
	fetcher  cfscore.Fetcher
	pub      *mirror.Publisher
	verifier *identity.Verifier
	sink     EventSink

	mu      sync.Mutex
	active  map[string]*Controller
	devices map[string]*deviceState
	// sessionDevice maps each active session to its device so the sweep
	// can retire device states no live session references anymore.
	sessionDevice map[string]string
}

// NewManager wires the session factory.
func NewManager(
	cfg recommend.Config,
	sessions config.SessionConfig,
	db *badger.DB,
	source CandidateSource,
	fetcher cfscore.Fetcher,
	pub *mirror.Publisher,
	verifier *identity.Verifier,
	sink EventSink,
) *Manager {
	return &Manager{
		cfg:           cfg,
		sessions:      sessions,
		db:            db,
		source:        source,
		fetcher:       fetcher,
		pub:           pub,
		verifier:      verifier,
		sink:          sink,
		active:        map[string]*Controller{},
		devices:       map[string]*deviceState{},
		sessionDevice: map[string]string{},
	}
}

// Session returns the controller for a session ID, creating it when
// unknown. An empty session ID mints a new one. The device ID scopes the
// durable stores; an empty device ID falls back to the session ID, giving
// the caller ephemeral state.
func (m *Manager) Session(sessionID, deviceID string) *Controller {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if deviceID == "" {
		deviceID = sessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.active[sessionID]; ok {
		c.Touch()
		return c
	}

	dev, ok := m.devices[deviceID]
	if !ok {
		var favMirror favorites.Mirror
		if m.pub != nil {
			favMirror = mirror.NewFavoriteMirror(m.pub)
		}
		dev = &deviceState{
			prefs: prefs.NewStore(m.db, deviceID, m.cfg),
			favs:  favorites.NewStore(m.db, deviceID, favMirror),
		}
		m.devices[deviceID] = dev
	}

	holder := identity.NewHolder()
	cache := cfscore.NewCache(m.fetcher, holder, m.pub)
	c := NewController(sessionID, m.cfg, m.source, dev.prefs, dev.favs, cache, holder, m.sink)

	m.active[sessionID] = c
	m.sessionDevice[sessionID] = deviceID
	metrics.ActiveSessions.Set(float64(len(m.active)))
	logging.Info().Str("session", sessionID).Str("device", deviceID).Msg("session created")
	return c
}

// Authenticate binds the identity asserted by a bearer token to the
// session. An empty or unverifiable token leaves the session anonymous.
func (m *Manager) Authenticate(c *Controller, token string) {
	if token == "" {
		c.Identity().Set(nil)
		return
	}
	id, err := m.verifier.Verify(token)
	if err != nil {
		logging.Debug().Err(err).Str("session", c.ID()).Msg("bearer token rejected")
		c.Identity().Set(nil)
		return
	}
	c.Identity().Set(id)
}

// Serve expires idle sessions until the context is cancelled. It implements
// the suture service contract.
func (m *Manager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.sessions.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep expires idle sessions and retires device states no remaining
// session references. Retired stores are flushed so their last queued
// writes land; the next visit from the device rehydrates them from Badger.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.sessions.TTL)

	m.mu.Lock()
	var expired []string
	for id, c := range m.active {
		if c.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.active, id)
		delete(m.sessionDevice, id)
	}

	referenced := make(map[string]struct{}, len(m.sessionDevice))
	for _, deviceID := range m.sessionDevice {
		referenced[deviceID] = struct{}{}
	}
	var retired []*deviceState
	for deviceID, dev := range m.devices {
		if _, ok := referenced[deviceID]; !ok {
			retired = append(retired, dev)
			delete(m.devices, deviceID)
		}
	}
	remaining := len(m.active)
	m.mu.Unlock()

	for _, dev := range retired {
		dev.prefs.Flush()
		dev.favs.Flush()
	}

	if len(expired) > 0 || len(retired) > 0 {
		metrics.ActiveSessions.Set(float64(remaining))
		logging.Info().Int("expired", len(expired)).Int("retired_devices", len(retired)).
			Int("active", remaining).Msg("idle sessions swept")
	}
}

// Flush waits for outstanding device-state writes. Called at shutdown.
func (m *Manager) Flush() {
	m.mu.Lock()
	devices := make([]*deviceState, 0, len(m.devices))
	for _, dev := range m.devices {
		devices = append(devices, dev)
	}
	m.mu.Unlock()

	for _, dev := range devices {
		dev.prefs.Flush()
		dev.favs.Flush()
	}
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package prefs holds the per-device tag preference profile.
//
// The profile is the only input the content scorer learns from: a like adds
// LikeDelta to each of the candidate's tags, a pass adds PassDelta. The map
// lives in memory and is mirrored to BadgerDB after every mutation so it
// survives restarts. Storage failures never surface to the swipe path; a
// profile that cannot be read starts empty.
package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
	"github.com/vvibe/vvibe/internal/recommend"
)

// keyPrefix namespaces preference records in the shared Badger DB.
const keyPrefix = "prefs:"

// schemaVersion guards the persisted envelope against future layout changes.
const schemaVersion = 1

// envelope is the persisted form of a preference profile.
type envelope struct {
	Version int                  `json:"version"`
	Weights recommend.TagWeights `json:"weights"`
}

// Store is a device-scoped preference profile backed by BadgerDB.
// All methods are safe for concurrent use.
type Store struct {
	db       *badger.DB
	deviceID string
	cfg      recommend.Config

	mu       sync.RWMutex
	weights  recommend.TagWeights
	hydrated bool

	// Async persists run on a single writer so commits land in mutation
	// order; pending holds the latest snapshot, intermediate ones are
	// coalesced away. persistWG lets Flush wait for the writer to drain.
	persistMu sync.Mutex
	pending   recommend.TagWeights
	writing   bool
	persistWG sync.WaitGroup
}

// NewStore opens the profile for a device, hydrating it from storage.
// A missing, unreadable or corrupt record yields an empty profile; the
// failure is logged and counted, never returned.
func NewStore(db *badger.DB, deviceID string, cfg recommend.Config) *Store {
	s := &Store{
		db:       db,
		deviceID: deviceID,
		cfg:      cfg,
		weights:  recommend.TagWeights{},
	}
	s.hydrate()
	return s
}

func (s *Store) key() []byte {
	return []byte(keyPrefix + s.deviceID)
}

// hydrate loads the persisted profile. Called once from NewStore.
func (s *Store) hydrate() {
	var loaded recommend.TagWeights

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read preference record: %w", err)
		}
		return item.Value(func(val []byte) error {
			var env envelope
			if err := json.Unmarshal(val, &env); err != nil {
				return fmt.Errorf("failed to decode preference record: %w", err)
			}
			loaded = env.Weights
			return nil
		})
	})
	if err != nil {
		metrics.DeviceStateErrors.WithLabelValues("prefs", "hydrate").Inc()
		logging.Warn().Err(err).Str("device", s.deviceID).
			Msg("preference hydration failed, starting with empty profile")
	}

	s.mu.Lock()
	if loaded != nil {
		s.weights = loaded
	}
	s.hydrated = true
	s.mu.Unlock()
}

// RecordLike adds the like delta to each tag and re-persists the profile.
func (s *Store) RecordLike(tags []string) {
	s.record(tags, s.cfg.LikeDelta)
}

// RecordPass adds the pass delta to each tag and re-persists the profile.
func (s *Store) RecordPass(tags []string) {
	s.record(tags, s.cfg.PassDelta)
}

func (s *Store) record(tags []string, delta float64) {
	s.mu.Lock()
	for _, tag := range tags {
		s.weights[tag] += delta
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
}

// snapshotLocked copies the weight map. Callers must hold mu.
func (s *Store) snapshotLocked() recommend.TagWeights {
	out := make(recommend.TagWeights, len(s.weights))
	for tag, w := range s.weights {
		out[tag] = w
	}
	return out
}

// persistAsync queues the full profile for writing off the swipe path. The
// snapshot replaces any still-queued one, so the writer always commits the
// newest state and never reorders an older snapshot after it. Failures are
// logged and counted, never surfaced.
func (s *Store) persistAsync(weights recommend.TagWeights) {
	s.persistMu.Lock()
	s.pending = weights
	if s.writing {
		s.persistMu.Unlock()
		return
	}
	s.writing = true
	s.persistMu.Unlock()

	s.persistWG.Add(1)
	go s.drainPersists()
}

func (s *Store) drainPersists() {
	defer s.persistWG.Done()
	for {
		s.persistMu.Lock()
		weights := s.pending
		s.pending = nil
		if weights == nil {
			s.writing = false
			s.persistMu.Unlock()
			return
		}
		s.persistMu.Unlock()

		data, err := json.Marshal(envelope{Version: schemaVersion, Weights: weights})
		if err == nil {
			err = s.db.Update(func(txn *badger.Txn) error {
				return txn.Set(s.key(), data)
			})
		}
		if err != nil {
			metrics.DeviceStateErrors.WithLabelValues("prefs", "persist").Inc()
			logging.Warn().Err(err).Str("device", s.deviceID).
				Msg("preference persist failed, profile kept in memory")
		}
	}
}

// Flush blocks until all queued persists have completed. Used at shutdown
// and in tests.
func (s *Store) Flush() {
	s.persistWG.Wait()
}

// Weights returns a copy of the current profile.
func (s *Store) Weights() recommend.TagWeights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// HasHistory reports whether any tag carries a non-zero weight. A profile
// whose likes and passes net out to all zeros counts as no history.
func (s *Store) HasHistory() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.weights {
		if w != 0 {
			return true
		}
	}
	return false
}

// Hydrated reports whether the initial load has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

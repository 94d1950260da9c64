// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package favorites keeps the per-device liked list: an ordered,
// duplicate-free sequence of candidate IDs in insertion order.
//
// Local BadgerDB state is authoritative. When an identity is present,
// mutations are additionally mirrored to the relational store through the
// fire-and-forget pipeline; mirror failures never roll back local state.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
)

// keyPrefix namespaces favorite records in the shared Badger DB.
const keyPrefix = "favorites:"

// schemaVersion guards the persisted envelope against future layout changes.
const schemaVersion = 1

// envelope is the persisted form of a favorites list.
type envelope struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// Mirror receives favorite mutations for asynchronous replication. All
// methods are fire-and-forget; the store ignores their outcome.
type Mirror interface {
	FavoriteAdded(ctx context.Context, candidateID string, position int)
	FavoriteRemoved(ctx context.Context, candidateID string)
}

// Store is a device-scoped favorites list backed by BadgerDB.
// All methods are safe for concurrent use.
type Store struct {
	db       *badger.DB
	deviceID string
	mirror   Mirror

	mu       sync.RWMutex
	order    []string
	index    map[string]struct{}
	hydrated bool

	// Async persists run on a single writer so commits land in mutation
	// order; pending holds the latest snapshot, intermediate ones are
	// coalesced away. persistWG lets Flush wait for the writer to drain.
	persistMu sync.Mutex
	pending   []string
	writing   bool
	persistWG sync.WaitGroup
}

// NewStore opens the favorites list for a device, hydrating it from storage.
// mirror may be nil when replication is disabled. A missing or corrupt
// record yields an empty list; the failure is logged, never returned.
func NewStore(db *badger.DB, deviceID string, mirror Mirror) *Store {
	s := &Store{
		db:       db,
		deviceID: deviceID,
		mirror:   mirror,
		index:    map[string]struct{}{},
	}
	s.hydrate()
	return s
}

func (s *Store) key() []byte {
	return []byte(keyPrefix + s.deviceID)
}

func (s *Store) hydrate() {
	var loaded []string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read favorites record: %w", err)
		}
		return item.Value(func(val []byte) error {
			var env envelope
			if err := json.Unmarshal(val, &env); err != nil {
				return fmt.Errorf("failed to decode favorites record: %w", err)
			}
			loaded = env.IDs
			return nil
		})
	})
	if err != nil {
		metrics.DeviceStateErrors.WithLabelValues("favorites", "hydrate").Inc()
		logging.Warn().Err(err).Str("device", s.deviceID).
			Msg("favorites hydration failed, starting empty")
	}

	s.mu.Lock()
	for _, id := range loaded {
		if _, dup := s.index[id]; dup {
			continue
		}
		s.order = append(s.order, id)
		s.index[id] = struct{}{}
	}
	s.hydrated = true
	s.mu.Unlock()
}

// Add appends a candidate to the list. Adding an existing favorite is a
// no-op that keeps its original position. Returns true when the list grew.
func (s *Store) Add(ctx context.Context, candidateID string) bool {
	s.mu.Lock()
	if _, dup := s.index[candidateID]; dup {
		s.mu.Unlock()
		return false
	}
	s.order = append(s.order, candidateID)
	s.index[candidateID] = struct{}{}
	position := len(s.order) - 1
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
	if s.mirror != nil {
		s.mirror.FavoriteAdded(ctx, candidateID, position)
	}
	return true
}

// Remove deletes a candidate from the list. Removing an absent favorite is
// a no-op. Returns true when the list shrank.
func (s *Store) Remove(ctx context.Context, candidateID string) bool {
	s.mu.Lock()
	if _, ok := s.index[candidateID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.index, candidateID)
	for i, id := range s.order {
		if id == candidateID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
	if s.mirror != nil {
		s.mirror.FavoriteRemoved(ctx, candidateID)
	}
	return true
}

// snapshotLocked copies the ordered ID list. Callers must hold mu.
func (s *Store) snapshotLocked() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// persistAsync queues the full list for writing off the request path. The
// snapshot replaces any still-queued one, so the writer always commits the
// newest state and never reorders an older snapshot after it.
func (s *Store) persistAsync(ids []string) {
	s.persistMu.Lock()
	s.pending = ids
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
		ids := s.pending
		s.pending = nil
		if ids == nil {
			s.writing = false
			s.persistMu.Unlock()
			return
		}
		s.persistMu.Unlock()

		data, err := json.Marshal(envelope{Version: schemaVersion, IDs: ids})
		if err == nil {
			err = s.db.Update(func(txn *badger.Txn) error {
				return txn.Set(s.key(), data)
			})
		}
		if err != nil {
			metrics.DeviceStateErrors.WithLabelValues("favorites", "persist").Inc()
			logging.Warn().Err(err).Str("device", s.deviceID).
				Msg("favorites persist failed, list kept in memory")
		}
	}
}

// Flush blocks until all queued persists have completed.
func (s *Store) Flush() {
	s.persistWG.Wait()
}

// IDs returns a copy of the list in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Contains reports whether a candidate is favorited.
func (s *Store) Contains(candidateID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[candidateID]
	return ok
}

// Count returns the number of favorites.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Hydrated reports whether the initial load has completed. It separates an
// unloaded list from a genuinely empty one.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

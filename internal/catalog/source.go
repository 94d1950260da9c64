// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package catalog

import (
	"context"
	"sync"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/recommend"
)

// Loader fetches the candidate list. Implemented by Store.
type Loader interface {
	Candidates(ctx context.Context) ([]recommend.Candidate, error)
}

// Source holds the loaded candidate list and its by-ID index. Sessions rank
// against this snapshot; until Load completes they must treat the deck as
// loading, not empty.
//
// A load that errors or returns no rows falls back to the built-in sample
// set, so the deck is never empty.
type Source struct {
	loader Loader

	mu         sync.RWMutex
	candidates []recommend.Candidate
	byID       map[string]recommend.Candidate
	loaded     bool
}

// NewSource builds an unloaded source.
func NewSource(loader Loader) *Source {
	return &Source{loader: loader, byID: map[string]recommend.Candidate{}}
}

// Load fetches the catalog. Safe to call again to refresh.
func (s *Source) Load(ctx context.Context) {
	candidates, err := s.loader.Candidates(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("catalog load failed, serving sample candidates")
		candidates = nil
	}
	if len(candidates) == 0 {
		candidates = SampleCandidates()
	}

	byID := make(map[string]recommend.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	s.mu.Lock()
	s.candidates = candidates
	s.byID = byID
	s.loaded = true
	s.mu.Unlock()

	logging.Info().Int("candidates", len(candidates)).Msg("catalog loaded")
}

// Loading reports whether the initial load is still pending.
func (s *Source) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded
}

// Candidates returns the loaded list in catalog order.
func (s *Source) Candidates() []recommend.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Lookup resolves a candidate by ID.
func (s *Source) Lookup(id string) (recommend.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	return c, ok
}

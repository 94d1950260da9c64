// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package cfscore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
	"github.com/vvibe/vvibe/internal/mirror"
	"github.com/vvibe/vvibe/internal/recommend"
)

// IdentityProvider resolves the identity a refresh is for.
type IdentityProvider interface {
	Current() *identity.Identity
}

// Cache holds the collaborative scores for one session's identity.
//
// The cache fails open: any fetch problem leaves it empty and ranking
// degrades to content-only. Refresh guards against identity races by
// re-checking the bound identity before committing a fetched map; a refresh
// that raced a login or logout is discarded.
type Cache struct {
	fetcher Fetcher
	ident   IdentityProvider
	pub     *mirror.Publisher

	mu     sync.RWMutex
	scores recommend.CFScores
}

// NewCache builds an empty cache. fetcher may be nil when collaborative
// scoring is disabled; pub may be nil when mirroring is disabled.
func NewCache(fetcher Fetcher, ident IdentityProvider, pub *mirror.Publisher) *Cache {
	return &Cache{
		fetcher: fetcher,
		ident:   ident,
		pub:     pub,
		scores:  recommend.CFScores{},
	}
}

// Refresh fetches the scores for the currently bound identity and replaces
// the cache on success. On failure the cache is emptied. With no identity
// bound it only clears.
func (c *Cache) Refresh(ctx context.Context) {
	id := c.ident.Current()
	if id == nil {
		c.Clear()
		return
	}
	if c.fetcher == nil {
		return
	}

	start := time.Now()
	scores, err := c.fetcher.FetchScores(ctx, id.ID)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		metrics.RecordCFFetch(outcome, elapsed)
		logging.Ctx(ctx).Warn().Err(err).Str("user", id.ID).
			Msg("cf score fetch failed, serving empty cache")
		c.Clear()
		return
	}

	// Stale-identity guard: the session may have switched users while the
	// fetch was in flight.
	cur := c.ident.Current()
	if cur == nil || cur.ID != id.ID {
		metrics.RecordCFFetch("stale", elapsed)
		logging.Ctx(ctx).Debug().Str("fetched_for", id.ID).
			Msg("discarding cf scores fetched for a stale identity")
		return
	}

	metrics.RecordCFFetch("success", elapsed)
	c.set(scores)
}

// Clear empties the cache. Called on logout and fetch failure.
func (c *Cache) Clear() {
	c.set(recommend.CFScores{})
}

func (c *Cache) set(scores recommend.CFScores) {
	c.mu.Lock()
	c.scores = scores
	c.mu.Unlock()
}

// Get returns the score for a candidate, 0 when absent.
func (c *Cache) Get(candidateID string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scores[candidateID]
}

// Snapshot returns a copy of the cached scores for a ranking pass.
func (c *Cache) Snapshot() recommend.CFScores {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(recommend.CFScores, len(c.scores))
	for id, s := range c.scores {
		out[id] = s
	}
	return out
}

// Len returns the number of cached scores.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scores)
}

// RecordAction mirrors a swipe for the scorer's training data. Anonymous
// sessions record nothing; the publish is fire-and-forget.
func (c *Cache) RecordAction(ctx context.Context, candidateID string, direction recommend.Direction) {
	id := c.ident.Current()
	if id == nil || c.pub == nil {
		return
	}
	c.pub.PublishSwipe(ctx, mirror.SwipeEvent{
		UserID:      id.ID,
		CandidateID: candidateID,
		Action:      string(direction),
	})
}

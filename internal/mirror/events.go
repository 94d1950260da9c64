// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package mirror is the fire-and-forget replication pipeline. Swipe actions
// and favorite mutations are published to in-process Watermill topics and
// drained into the relational store by a throttled consumer. Publishing
// never blocks the swipe path and a lost event is acceptable by contract;
// local device state remains authoritative.
package mirror

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Topics of the in-process pipeline.
const (
	TopicSwipes    = "mirror.swipe_events"
	TopicFavorites = "mirror.favorites"
)

// SwipeEvent records one swipe for the collaborative scorer's training data.
// Mirrored writes upsert on (user_id, candidate_id): a repeated swipe on the
// same candidate overwrites the earlier action.
type SwipeEvent struct {
	UserID      string    `json:"user_id"`
	CandidateID string    `json:"candidate_id"`
	Action      string    `json:"action"` // "like" or "pass"
	OccurredAt  time.Time `json:"occurred_at"`
}

// Validate checks the event before publication.
func (e *SwipeEvent) Validate() error {
	if e.UserID == "" || e.CandidateID == "" {
		return fmt.Errorf("swipe event missing user or candidate")
	}
	if e.Action != "like" && e.Action != "pass" {
		return fmt.Errorf("swipe event has unknown action %q", e.Action)
	}
	return nil
}

// FavoriteEvent records a favorite list mutation.
type FavoriteEvent struct {
	UserID      string    `json:"user_id"`
	CandidateID string    `json:"candidate_id"`
	Position    int       `json:"position"`
	Removed     bool      `json:"removed"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Validate checks the event before publication.
func (e *FavoriteEvent) Validate() error {
	if e.UserID == "" || e.CandidateID == "" {
		return fmt.Errorf("favorite event missing user or candidate")
	}
	if e.Position < 0 {
		return fmt.Errorf("favorite event has negative position %d", e.Position)
	}
	return nil
}

func marshalEvent(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

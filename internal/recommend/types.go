// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package recommend implements the hybrid ranking core: content scoring from
// accumulated tag preferences, blended with collaborative scores when they
// are available, over a session-scoped seen set.
//
// Everything in this package is pure: no I/O, no clocks, no goroutines.
// Stores feed it state, it returns an ordered deck.
package recommend

import "time"

// Direction is a swipe direction.
type Direction string

const (
	DirectionLike Direction = "like"
	DirectionPass Direction = "pass"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLike || d == DirectionPass
}

// Candidate is one rankable voice post with its owning VLiver profile,
// already normalized by the catalog.
type Candidate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Handle      string    `json:"handle"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"image_url"`
	VoiceURL    string    `json:"voice_url"`
	ThemeColor  string    `json:"theme_color"`
	Boosted     bool      `json:"boosted"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoredCandidate is a candidate with its ranking score attached.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`

	// CFDominant marks candidates whose collaborative contribution outweighs
	// the content contribution, surfaced as a "recommended for you" badge.
	CFDominant bool `json:"cf_dominant"`
}

// TagWeights maps tag to accumulated preference weight. Absent tags weigh 0.
type TagWeights map[string]float64

// CFScores maps candidate ID to its collaborative score. Absent IDs score 0.
// Scores are non-negative by contract with the remote scorer.
type CFScores map[string]float64

// State describes where a session's deck stands.
type State string

const (
	// StateLoading means the catalog has not finished loading; the deck must
	// not be ranked yet.
	StateLoading State = "loading"

	// StateCold means ranking fell back to boosted-first order: no swipe
	// history and no collaborative scores.
	StateCold State = "cold"

	// StateWarm means ranking used content scores only.
	StateWarm State = "warm"

	// StateHybrid means ranking blended content and collaborative scores.
	StateHybrid State = "hybrid"

	// StateExhausted means every candidate has been seen.
	StateExhausted State = "exhausted"
)

// Deck is the ranked view handed to a session: the card on top, the card
// behind it, and how many unseen candidates remain.
type Deck struct {
	Current    *ScoredCandidate `json:"current"`
	Next       *ScoredCandidate `json:"next"`
	Remaining  int              `json:"remaining"`
	State      State            `json:"state"`
	LikedCount int              `json:"liked_count"`
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package cfscore consumes the collaborative scoring service. The algorithm
// behind the scores is not this service's concern; it sees an RPC returning
// (candidate, score) pairs for a user, caches them per session, and degrades
// to an empty cache whenever the remote side misbehaves.
package cfscore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/vvibe/vvibe/internal/config"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/recommend"
)

// Fetcher retrieves the collaborative scores for a user.
type Fetcher interface {
	FetchScores(ctx context.Context, userID string) (recommend.CFScores, error)
}

// scoreRow is one entry of the RPC response.
type scoreRow struct {
	PostID  string  `json:"post_id"`
	CFScore float64 `json:"cf_score"`
}

// HTTPFetcher calls the remote scorer over HTTP, wrapped in a circuit
// breaker so a struggling scorer cannot hold swipe sessions hostage.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[recommend.CFScores]
}

// NewHTTPFetcher builds a fetcher from the remote config.
func NewHTTPFetcher(cfg config.RemoteConfig) *HTTPFetcher {
	maxFailures := cfg.BreakerMaxFailures
	settings := gobreaker.Settings{
		Name:    "cf_scores",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &HTTPFetcher{
		url:     cfg.CFScoresURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[recommend.CFScores](settings),
	}
}

// FetchScores calls the scorer through the breaker.
func (f *HTTPFetcher) FetchScores(ctx context.Context, userID string) (recommend.CFScores, error) {
	return f.breaker.Execute(func() (recommend.CFScores, error) {
		return f.fetch(ctx, userID)
	})
}

func (f *HTTPFetcher) fetch(ctx context.Context, userID string) (recommend.CFScores, error) {
	body, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cf score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cf score request returned status %d", resp.StatusCode)
	}

	var rows []scoreRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode cf scores: %w", err)
	}

	scores := make(recommend.CFScores, len(rows))
	for _, row := range rows {
		if row.PostID == "" {
			continue
		}
		// Scores are non-negative by contract; drop violations rather than
		// letting them invert the blend.
		if row.CFScore < 0 {
			logging.Warn().Str("post_id", row.PostID).Float64("score", row.CFScore).
				Msg("dropping negative cf score")
			continue
		}
		scores[row.PostID] = row.CFScore
	}
	return scores, nil
}

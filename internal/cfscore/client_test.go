// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package cfscore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/vvibe/vvibe/internal/config"
)

func remoteConfig(url string) config.RemoteConfig {
	return config.RemoteConfig{
		CFScoresURL:        url,
		Timeout:            2 * time.Second,
		BreakerMaxFailures: 3,
		BreakerTimeout:     30 * time.Second,
	}
}

func TestHTTPFetcherParsesScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req["user_id"] != "user-1" {
			t.Errorf("user_id = %q, want user-1", req["user_id"])
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"post_id": "akari", "cf_score": 3.5},
			{"post_id": "rei", "cf_score": 0.0},
			{"post_id": "bad", "cf_score": -2.0}, // contract violation, dropped
			{"post_id": "", "cf_score": 1.0},     // no id, dropped
		})
	}))
	t.Cleanup(srv.Close)

	f := NewHTTPFetcher(remoteConfig(srv.URL))
	scores, err := f.FetchScores(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchScores: %v", err)
	}

	if len(scores) != 2 {
		t.Errorf("scores = %v, want akari and rei only", scores)
	}
	if scores["akari"] != 3.5 {
		t.Errorf("akari = %g, want 3.5", scores["akari"])
	}
	if _, ok := scores["bad"]; ok {
		t.Error("negative score must be dropped")
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	f := NewHTTPFetcher(remoteConfig(srv.URL))
	if _, err := f.FetchScores(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	f := NewHTTPFetcher(remoteConfig(srv.URL))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.FetchScores(ctx, "user-1"); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	// Fourth call must be rejected by the open breaker without reaching the
	// server.
	_, err := f.FetchScores(ctx, "user-1")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

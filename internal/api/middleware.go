// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
)

// Session and device headers. The session ID is issued by the server on
// first contact; the device ID is minted and remembered by the client and
// scopes the durable stores.
const (
	HeaderSessionID = "X-Session-ID"
	HeaderDeviceID  = "X-Device-ID"
)

// RequestID stamps every request with an ID, echoing an inbound
// X-Request-ID when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Metrics records request counts and latency per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// bearerToken extracts the token from an Authorization header, empty when
// absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vvibe/vvibe/internal/config"
)

// Routes assembles the HTTP surface.
func (s *Server) Routes(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// CORS is global so OPTIONS preflights never hit the rate limiter.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderSessionID, HeaderDeviceID, "X-Request-ID"},
		ExposedHeaders:   []string{HeaderSessionID, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics stay outside the API rate budget so monitoring
	// never competes with swipes.
	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
		r.Use(Metrics)

		r.Get("/deck", s.handleDeck)
		r.Post("/swipe", s.handleSwipe)
		r.Post("/reset", s.handleReset)

		r.Get("/favorites", s.handleFavorites)
		r.Post("/favorites", s.handleAddFavorite)
		r.Delete("/favorites/{id}", s.handleRemoveFavorite)

		r.Post("/audio/play", s.handleAudioPlay)
		r.Post("/audio/stop", s.handleAudioStop)

		r.Get("/notifications/unread", s.handleNotificationsUnread)

		r.Get("/ws", s.handleWS)
	})

	return r
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/recommend"
	"github.com/vvibe/vvibe/internal/session"
	"github.com/vvibe/vvibe/internal/websocket"
)

// Notifier counts unread notifications for an authenticated user.
type Notifier interface {
	UnreadNotifications(ctx context.Context, userID string) (int, error)
}

// Server holds the handler dependencies.
type Server struct {
	manager  *session.Manager
	source   session.CandidateSource
	hub      *websocket.Hub
	notifier Notifier
	validate *validator.Validate
}

// NewServer wires the HTTP handlers. The hub and notifier may be nil in
// tests.
func NewServer(manager *session.Manager, source session.CandidateSource, hub *websocket.Hub, notifier Notifier) *Server {
	return &Server{
		manager:  manager,
		source:   source,
		hub:      hub,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// withSession resolves the request's session, binds the bearer identity and
// returns the request with session and identity stamped into its context.
// The resolved session ID is echoed so first-contact clients learn theirs.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request) (*session.Controller, *http.Request) {
	c := s.manager.Session(r.Header.Get(HeaderSessionID), r.Header.Get(HeaderDeviceID))
	s.manager.Authenticate(c, bearerToken(r))

	ctx := logging.ContextWithSessionID(r.Context(), c.ID())
	if id := c.Identity().Current(); id != nil {
		ctx = identity.ContextWithIdentity(ctx, id)
	}
	w.Header().Set(HeaderSessionID, c.ID())
	return c, r.WithContext(ctx)
}

// decodeValid decodes a JSON body into dst and validates it. A false return
// means the error response was already written.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		details := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		writeEnvelope(w, r, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error: &APIError{
				Code:      ErrCodeValidationFailed,
				Message:   "request body failed validation",
				Details:   details,
				RequestID: logging.RequestIDFromContext(r.Context()),
			},
		})
		return false
	}
	return true
}

// handleDeck returns the session's current deck.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)
	respondJSON(w, r, http.StatusOK, c.Deck(r.Context()))
}

type swipeRequest struct {
	Direction string `json:"direction" validate:"required,oneof=like pass"`
}

type swipeResponse struct {
	Applied bool           `json:"applied"`
	Deck    recommend.Deck `json:"deck"`
}

// handleSwipe applies a swipe and returns the advanced deck. A swipe with
// nothing on screen reports applied=false with the unchanged deck.
func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)

	var req swipeRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	deck, ok := c.Swipe(r.Context(), recommend.Direction(req.Direction))
	respondJSON(w, r, http.StatusOK, swipeResponse{Applied: ok, Deck: deck})
}

// handleReset clears the seen set and returns the rewound deck.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)
	respondJSON(w, r, http.StatusOK, c.Reset(r.Context()))
}

type favoritesResponse struct {
	Favorites []recommend.Candidate `json:"favorites"`
	Count     int                   `json:"count"`
}

// handleFavorites lists the device's liked profiles in like order.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)
	favs := c.Favorites()
	respondJSON(w, r, http.StatusOK, favoritesResponse{Favorites: favs, Count: len(favs)})
}

type favoriteRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

// handleAddFavorite likes a profile without swiping it.
func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)

	var req favoriteRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if err := c.AddFavorite(r.Context(), req.CandidateID); err != nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	favs := c.Favorites()
	respondJSON(w, r, http.StatusCreated, favoritesResponse{Favorites: favs, Count: len(favs)})
}

// handleRemoveFavorite unlikes a profile. Removing an absent favorite
// succeeds; the list is the answer either way.
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)

	c.RemoveFavorite(r.Context(), chi.URLParam(r, "id"))
	favs := c.Favorites()
	respondJSON(w, r, http.StatusOK, favoritesResponse{Favorites: favs, Count: len(favs)})
}

type audioRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

type audioResponse struct {
	Playing string `json:"playing,omitempty"`
}

// handleAudioPlay claims the single audio slot for a candidate's voice
// sample. Any previously playing sample is stopped and reported over the
// event stream.
func (s *Server) handleAudioPlay(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)

	var req audioRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if err := c.PlayAudio(r.Context(), req.CandidateID); err != nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, audioResponse{Playing: c.AudioOwner()})
}

// handleAudioStop releases the audio slot.
func (s *Server) handleAudioStop(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)
	c.StopAudio(r.Context())
	respondJSON(w, r, http.StatusOK, audioResponse{})
}

type notificationsResponse struct {
	Unread int `json:"unread"`
}

// handleNotificationsUnread returns the unread badge count. Anonymous
// sessions have nothing addressed to them and always see zero.
func (s *Server) handleNotificationsUnread(w http.ResponseWriter, r *http.Request) {
	c, r := s.withSession(w, r)

	id := c.Identity().Current()
	if id == nil || s.notifier == nil {
		respondJSON(w, r, http.StatusOK, notificationsResponse{Unread: 0})
		return
	}

	count, err := s.notifier.UnreadNotifications(r.Context(), id.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to count notifications")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to count notifications")
		return
	}
	respondJSON(w, r, http.StatusOK, notificationsResponse{Unread: count})
}

type healthResponse struct {
	Status     string `json:"status"`
	Catalog    string `json:"catalog"`
	Candidates int    `json:"candidates"`
}

// handleHealth reports liveness and catalog readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Catalog: "ready"}
	if s.source != nil {
		if s.source.Loading() {
			resp.Catalog = "loading"
		}
		resp.Candidates = len(s.source.Candidates())
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// handleWS attaches the client to its session's event stream.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "event stream not enabled")
		return
	}
	c, r := s.withSession(w, r)
	websocket.ServeWS(s.hub, c.ID(), w, r)
}

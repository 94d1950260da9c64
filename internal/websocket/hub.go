// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package websocket streams session events (deck advances, resets, audio
// displacement) to connected clients. One hub serves all sessions; each
// client subscribes to exactly one session's stream.
package websocket

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
	"github.com/vvibe/vvibe/internal/session"
)

// frame is the wire form of a session event.
type frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// envelope routes a marshaled frame to one session's clients.
type envelope struct {
	sessionID string
	payload   []byte
}

// Hub fans session events out to websocket clients. It implements
// session.EventSink.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	clients    map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 64),
		clients:    map[*Client]struct{}{},
	}
}

// Broadcast queues an event for every client of a session. A full queue
// drops the event; the stream is advisory and the deck endpoint remains
// the source of truth.
func (h *Hub) Broadcast(sessionID string, event session.Event) {
	payload, err := json.Marshal(frame{Type: event.Type, Data: event.Data})
	if err != nil {
		logging.Warn().Err(err).Str("event", event.Type).Msg("failed to marshal session event")
		return
	}
	select {
	case h.broadcast <- envelope{sessionID: sessionID, payload: payload}:
	default:
		logging.Warn().Str("event", event.Type).Msg("event stream backlogged, dropping event")
	}
}

// Serve runs the hub loop until the context is cancelled. It implements the
// suture service contract.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			metrics.WebSocketConnections.Set(0)
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.WebSocketConnections.Set(float64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			metrics.WebSocketConnections.Set(float64(len(h.clients)))

		case env := <-h.broadcast:
			for client := range h.clients {
				if client.sessionID != env.sessionID {
					continue
				}
				select {
				case client.send <- env.payload:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(h.clients, client)
					client.close()
				}
			}
		}
	}
}

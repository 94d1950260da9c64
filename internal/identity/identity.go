// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package identity verifies bearer tokens issued by the external identity
// provider and tracks the identity bound to a session. Login and logout are
// observed, never performed, here.
package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is a verified user identity.
type Identity struct {
	// ID is the stable user ID (the token subject).
	ID string `json:"id"`
	// Handle is the display handle, when the token carries one.
	Handle string `json:"handle,omitempty"`
}

// ErrVerificationDisabled is returned when no verification key is configured.
var ErrVerificationDisabled = errors.New("token verification disabled")

// Verifier checks bearer tokens with an HMAC key shared with the identity
// provider.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier. An empty secret disables verification:
// every token is rejected and sessions stay anonymous.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// claims is the token payload this service reads.
type claims struct {
	jwt.RegisteredClaims
	Handle string `json:"handle,omitempty"`
}

// Verify parses and validates a bearer token, returning the identity it
// asserts.
func (v *Verifier) Verify(token string) (*Identity, error) {
	if len(v.secret) == 0 {
		return nil, ErrVerificationDisabled
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, errors.New("token carries no subject")
	}

	return &Identity{ID: c.Subject, Handle: c.Handle}, nil
}

// Holder tracks the identity currently bound to a session and notifies
// observers when it changes. Safe for concurrent use.
type Holder struct {
	mu       sync.RWMutex
	current  *Identity
	onChange []func(old, cur *Identity)
}

// NewHolder creates an anonymous holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the bound identity, or nil when anonymous.
func (h *Holder) Current() *Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Set binds an identity (nil clears it). Observers run synchronously, in
// registration order, only when the identity actually changed.
func (h *Holder) Set(id *Identity) {
	h.mu.Lock()
	old := h.current
	if sameIdentity(old, id) {
		h.mu.Unlock()
		return
	}
	h.current = id
	observers := make([]func(old, cur *Identity), len(h.onChange))
	copy(observers, h.onChange)
	h.mu.Unlock()

	for _, fn := range observers {
		fn(old, id)
	}
}

// OnChange registers an observer for identity transitions.
func (h *Holder) OnChange(fn func(old, cur *Identity)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package identity

import "context"

type contextKey struct{}

// ContextWithIdentity stamps a verified identity onto the context. The API
// middleware does this once per request; downstream consumers read it with
// FromContext.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stamped on the context, nil when the
// request is anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

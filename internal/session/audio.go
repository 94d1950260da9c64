// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package session

import "sync"

// Focus is the session's single audio slot: at most one candidate's voice
// post plays at a time. Acquiring focus for a new candidate displaces the
// previous holder, which the client is told to stop and rewind.
type Focus struct {
	mu    sync.Mutex
	owner string
}

// Acquire gives the slot to a candidate and returns the displaced owner,
// empty when the slot was free or already held by the same candidate.
func (f *Focus) Acquire(candidateID string) (displaced string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner == candidateID {
		return ""
	}
	displaced = f.owner
	f.owner = candidateID
	return displaced
}

// Release frees the slot and returns the previous owner, empty when the
// slot was already free.
func (f *Focus) Release() (released string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	released = f.owner
	f.owner = ""
	return released
}

// Owner returns the candidate currently holding the slot, empty when free.
func (f *Focus) Owner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

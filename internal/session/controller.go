// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package session owns the per-session swipe state: the monotonic seen set,
// the audio focus slot, and the identity bound to the session. It glues the
// stores together and derives the deck through the ranking core on demand.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
	"github.com/vvibe/vvibe/internal/recommend"
)

// CandidateSource is the catalog view a session ranks against.
type CandidateSource interface {
	Loading() bool
	Candidates() []recommend.Candidate
	Lookup(id string) (recommend.Candidate, bool)
}

// PreferenceStore accumulates the device's tag profile.
type PreferenceStore interface {
	RecordLike(tags []string)
	RecordPass(tags []string)
	Weights() recommend.TagWeights
	HasHistory() bool
}

// FavoriteList is the device's liked list.
type FavoriteList interface {
	Add(ctx context.Context, candidateID string) bool
	Remove(ctx context.Context, candidateID string) bool
	IDs() []string
	Contains(candidateID string) bool
	Count() int
	Hydrated() bool
}

// ScoreCache serves the collaborative scores for the session's identity.
type ScoreCache interface {
	Refresh(ctx context.Context)
	Clear()
	Snapshot() recommend.CFScores
	RecordAction(ctx context.Context, candidateID string, direction recommend.Direction)
}

// Event is pushed to the session's event stream.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Event types emitted by the controller.
const (
	EventDeck         = "deck"
	EventReset        = "reset"
	EventAudioStopped = "audio_stopped"
)

// EventSink receives session events for the websocket stream. May be nil.
type EventSink interface {
	Broadcast(sessionID string, event Event)
}

// ErrUnknownCandidate is returned when an operation names a candidate the
// catalog does not know.
var ErrUnknownCandidate = fmt.Errorf("unknown candidate")

// Controller drives one swipe session.
type Controller struct {
	id     string
	cfg    recommend.Config
	source CandidateSource
	prefs  PreferenceStore
	favs   FavoriteList
	cf     ScoreCache
	ident  *identity.Holder
	sink   EventSink

	mu       sync.Mutex
	seen     map[string]struct{}
	lastSeen time.Time

	// swipeMu serializes Swipe and Reset. The double-fire guard relies on
	// each swipe resolving its current candidate after the previous swipe
	// has marked its candidate seen; without serialization two racing
	// requests would apply side effects to the same presentation twice.
	swipeMu sync.Mutex

	audio Focus
}

// NewController builds a session over its collaborators. The identity
// holder is observed: a login triggers a collaborative score refresh in the
// background, a logout clears the cache immediately.
func NewController(id string, cfg recommend.Config, source CandidateSource, prefs PreferenceStore, favs FavoriteList, cf ScoreCache, ident *identity.Holder, sink EventSink) *Controller {
	c := &Controller{
		id:       id,
		cfg:      cfg,
		source:   source,
		prefs:    prefs,
		favs:     favs,
		cf:       cf,
		ident:    ident,
		sink:     sink,
		seen:     map[string]struct{}{},
		lastSeen: time.Now(),
	}

	ident.OnChange(func(_, cur *identity.Identity) {
		if cur == nil {
			c.cf.Clear()
			return
		}
		go c.cf.Refresh(logging.ContextWithSessionID(context.Background(), c.id))
	})

	return c
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.id }

// Identity returns the session's identity holder.
func (c *Controller) Identity() *identity.Holder { return c.ident }

// Touch marks the session as recently used.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// LastSeen returns the time of the last session activity.
func (c *Controller) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Deck derives the current deck. The ranking is recomputed on every call;
// session state only changes through Swipe and Reset.
func (c *Controller) Deck(ctx context.Context) recommend.Deck {
	if c.source.Loading() {
		return recommend.Deck{State: recommend.StateLoading, LikedCount: c.favs.Count()}
	}

	c.mu.Lock()
	seen := make(map[string]struct{}, len(c.seen))
	for id := range c.seen {
		seen[id] = struct{}{}
	}
	c.mu.Unlock()

	start := time.Now()
	ranked, state := recommend.Rank(recommend.Input{
		Candidates: c.source.Candidates(),
		Seen:       seen,
		Weights:    c.prefs.Weights(),
		CF:         c.cf.Snapshot(),
		HasHistory: c.prefs.HasHistory(),
	}, c.cfg)
	metrics.RecordRank(time.Since(start))

	return recommend.BuildDeck(ranked, state, c.favs.Count())
}

// Swipe applies one swipe to the current candidate and returns the advanced
// deck. Both the button and the drag gesture land here; there is no second
// path. With no current candidate (loading or exhausted) the swipe is a
// no-op and ok is false, which absorbs double-fired gestures.
//
// Swipes on one session are serialized: a concurrent retry resolves its
// current candidate only after the first swipe has marked its candidate
// seen, so one presentation is never applied twice. Local mutations run
// synchronously before any remote dispatch; marking the candidate seen is
// the final step and is what advances the deck.
func (c *Controller) Swipe(ctx context.Context, direction recommend.Direction) (deck recommend.Deck, ok bool) {
	c.swipeMu.Lock()
	defer c.swipeMu.Unlock()

	deck = c.Deck(ctx)
	if !direction.Valid() {
		return deck, false
	}

	current := deck.Current
	if current == nil {
		return deck, false
	}

	switch direction {
	case recommend.DirectionLike:
		c.favs.Add(ctx, current.ID)
		c.prefs.RecordLike(current.Tags)
	case recommend.DirectionPass:
		c.prefs.RecordPass(current.Tags)
	}
	c.cf.RecordAction(ctx, current.ID, direction)
	metrics.RecordSwipe(string(direction))

	if stopped := c.audio.Release(); stopped != "" {
		c.emit(Event{Type: EventAudioStopped, Data: map[string]string{"candidate_id": stopped}})
	}

	c.mu.Lock()
	c.seen[current.ID] = struct{}{}
	c.lastSeen = time.Now()
	c.mu.Unlock()

	deck = c.Deck(ctx)
	if deck.State == recommend.StateExhausted {
		metrics.DecksExhausted.Inc()
	}
	c.emit(Event{Type: EventDeck, Data: deck})

	logging.Ctx(ctx).Debug().Str("direction", string(direction)).
		Str("candidate", current.ID).Str("state", string(deck.State)).
		Msg("swipe recorded")
	return deck, true
}

// Reset clears the seen set so every profile can be viewed again. Learned
// weights and the collaborative cache are untouched; any playing audio
// stops. Reset takes the swipe lock so it cannot interleave with a swipe's
// apply-then-mark-seen sequence.
func (c *Controller) Reset(ctx context.Context) recommend.Deck {
	c.swipeMu.Lock()
	defer c.swipeMu.Unlock()

	c.mu.Lock()
	c.seen = map[string]struct{}{}
	c.lastSeen = time.Now()
	c.mu.Unlock()

	if stopped := c.audio.Release(); stopped != "" {
		c.emit(Event{Type: EventAudioStopped, Data: map[string]string{"candidate_id": stopped}})
	}

	deck := c.Deck(ctx)
	c.emit(Event{Type: EventReset, Data: deck})
	logging.Ctx(ctx).Info().Msg("seen set reset")
	return deck
}

// PlayAudio gives the audio slot to a candidate. The displaced candidate,
// if any, is reported through the event stream so the client stops and
// rewinds it before starting the new one.
func (c *Controller) PlayAudio(ctx context.Context, candidateID string) error {
	if _, ok := c.source.Lookup(candidateID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, candidateID)
	}
	if displaced := c.audio.Acquire(candidateID); displaced != "" {
		c.emit(Event{Type: EventAudioStopped, Data: map[string]string{"candidate_id": displaced}})
	}
	c.Touch()
	return nil
}

// StopAudio releases the audio slot.
func (c *Controller) StopAudio(ctx context.Context) {
	if stopped := c.audio.Release(); stopped != "" {
		c.emit(Event{Type: EventAudioStopped, Data: map[string]string{"candidate_id": stopped}})
	}
	c.Touch()
}

// AudioOwner returns the candidate holding the audio slot, empty when free.
func (c *Controller) AudioOwner() string {
	return c.audio.Owner()
}

// Favorites resolves the liked list to full candidates, dropping IDs the
// catalog no longer knows.
func (c *Controller) Favorites() []recommend.Candidate {
	ids := c.favs.IDs()
	out := make([]recommend.Candidate, 0, len(ids))
	for _, id := range ids {
		if cand, ok := c.source.Lookup(id); ok {
			out = append(out, cand)
		}
	}
	return out
}

// AddFavorite likes a candidate directly (the favorites screen's add).
func (c *Controller) AddFavorite(ctx context.Context, candidateID string) error {
	if _, ok := c.source.Lookup(candidateID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, candidateID)
	}
	c.favs.Add(ctx, candidateID)
	c.Touch()
	return nil
}

// RemoveFavorite removes a candidate from the liked list. Removing an
// absent favorite is a no-op.
func (c *Controller) RemoveFavorite(ctx context.Context, candidateID string) {
	c.favs.Remove(ctx, candidateID)
	c.Touch()
}

func (c *Controller) emit(event Event) {
	if c.sink != nil {
		c.sink.Broadcast(c.id, event)
	}
}

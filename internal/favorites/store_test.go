// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package favorites

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// recordingMirror captures mirror calls for assertions.
type recordingMirror struct {
	added   []string
	removed []string
}

func (m *recordingMirror) FavoriteAdded(_ context.Context, id string, _ int) {
	m.added = append(m.added, id)
}

func (m *recordingMirror) FavoriteRemoved(_ context.Context, id string) {
	m.removed = append(m.removed, id)
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	s := NewStore(openTestDB(t), "device-1", nil)
	ctx := context.Background()

	s.Add(ctx, "akari")
	s.Add(ctx, "midori")
	s.Add(ctx, "rei")

	assertIDs(t, s.IDs(), []string{"akari", "midori", "rei"})
	if s.Count() != 3 {
		t.Errorf("count = %d, want 3", s.Count())
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewStore(openTestDB(t), "device-1", nil)
	ctx := context.Background()

	if !s.Add(ctx, "akari") {
		t.Error("first add must grow the list")
	}
	s.Add(ctx, "rei")
	if s.Add(ctx, "akari") {
		t.Error("repeated add must be a no-op")
	}

	// akari keeps its original position.
	assertIDs(t, s.IDs(), []string{"akari", "rei"})
}

func TestRemove(t *testing.T) {
	s := NewStore(openTestDB(t), "device-1", nil)
	ctx := context.Background()

	s.Add(ctx, "akari")
	s.Add(ctx, "midori")
	s.Add(ctx, "rei")

	if !s.Remove(ctx, "midori") {
		t.Error("removing a present favorite must report true")
	}
	assertIDs(t, s.IDs(), []string{"akari", "rei"})

	if s.Remove(ctx, "ghost") {
		t.Error("removing an absent favorite must be a no-op")
	}
	if s.Contains("midori") {
		t.Error("removed favorite must not be contained")
	}
}

func TestListSurvivesReopen(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewStore(db, "device-1", nil)
	s.Add(ctx, "rei")
	s.Add(ctx, "akari")
	s.Flush()

	reopened := NewStore(db, "device-1", nil)
	if !reopened.Hydrated() {
		t.Fatal("store must be hydrated after construction")
	}
	assertIDs(t, reopened.IDs(), []string{"rei", "akari"})
}

// Persists are queued asynchronously; the durable record must end on the
// final list, never on an older snapshot that happened to commit last.
func TestRapidMutationsPersistFinalList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := NewStore(db, "device-1", nil)
	for i := 0; i < 50; i++ {
		s.Add(ctx, "akari")
		s.Remove(ctx, "akari")
	}
	s.Add(ctx, "rei")
	s.Flush()

	reopened := NewStore(db, "device-1", nil)
	assertIDs(t, reopened.IDs(), []string{"rei"})
}

func TestHydratedDistinguishesEmptyFromUnloaded(t *testing.T) {
	s := NewStore(openTestDB(t), "device-1", nil)
	if !s.Hydrated() {
		t.Error("an empty but loaded list must report hydrated")
	}
	if s.Count() != 0 {
		t.Error("fresh device must have no favorites")
	}
}

func TestCorruptRecordYieldsEmptyList(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+"device-1"), []byte("[broken"))
	})
	if err != nil {
		t.Fatalf("failed to plant corrupt record: %v", err)
	}

	s := NewStore(db, "device-1", nil)
	if !s.Hydrated() {
		t.Error("store must report hydrated after a corrupt read")
	}
	if s.Count() != 0 {
		t.Errorf("corrupt record must yield empty list, got %v", s.IDs())
	}
}

func TestMirrorReceivesMutations(t *testing.T) {
	mirror := &recordingMirror{}
	s := NewStore(openTestDB(t), "device-1", mirror)
	ctx := context.Background()

	s.Add(ctx, "akari")
	s.Add(ctx, "akari") // duplicate, must not re-mirror
	s.Remove(ctx, "akari")
	s.Remove(ctx, "akari") // absent, must not re-mirror

	assertIDs(t, mirror.added, []string{"akari"})
	assertIDs(t, mirror.removed, []string{"akari"})
}

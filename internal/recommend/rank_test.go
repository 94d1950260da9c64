// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package recommend

import "testing"

// catalog returns a fixed candidate slice in catalog order.
func catalog() []Candidate {
	return []Candidate{
		{ID: "akari", Name: "星乃あかり", Tags: []string{"歌", "ゲーム", "天然"}, Boosted: true},
		{ID: "rei", Name: "月城レイ", Tags: []string{"ホラー", "朗読", "クール"}},
		{ID: "midori", Name: "森野みどり", Tags: []string{"癒し", "ASMR", "雑談"}},
		{ID: "yuki", Name: "雪平ユキ", Tags: []string{"歌", "雑談"}},
	}
}

func ids(ranked []ScoredCandidate) []string {
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.ID
	}
	return out
}

func assertOrder(t *testing.T, ranked []ScoredCandidate, want ...string) {
	t.Helper()
	got := ids(ranked)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRankColdStart(t *testing.T) {
	// No history, no collaborative scores: boosted first, catalog order kept
	// among equals.
	ranked, state := Rank(Input{Candidates: catalog()}, DefaultConfig())

	if state != StateCold {
		t.Errorf("state = %v, want %v", state, StateCold)
	}
	assertOrder(t, ranked, "akari", "rei", "midori", "yuki")
}

func TestRankColdStartMultipleBoosted(t *testing.T) {
	cands := catalog()
	cands[2].Boosted = true // midori

	ranked, _ := Rank(Input{Candidates: cands}, DefaultConfig())

	// Both boosted candidates float up, keeping their relative catalog order.
	assertOrder(t, ranked, "akari", "midori", "rei", "yuki")
}

func TestRankContentOnly(t *testing.T) {
	// One like on midori's tags, no collaborative scores.
	weights := TagWeights{"癒し": 1, "ASMR": 1, "雑談": 1}

	ranked, state := Rank(Input{
		Candidates: catalog(),
		Weights:    weights,
		HasHistory: true,
	}, DefaultConfig())

	if state != StateWarm {
		t.Errorf("state = %v, want %v", state, StateWarm)
	}
	// midori 3.0, akari 1.5 (boost), yuki 1.0 (雑談), rei 0.
	assertOrder(t, ranked, "midori", "akari", "yuki", "rei")

	if !almostEqual(ranked[0].Score, 3.0) {
		t.Errorf("midori score = %g, want 3.0", ranked[0].Score)
	}
	if !almostEqual(ranked[1].Score, 1.5) {
		t.Errorf("akari score = %g, want 1.5", ranked[1].Score)
	}
}

func TestRankHybridFusion(t *testing.T) {
	weights := TagWeights{"ホラー": 1}
	cf := CFScores{"midori": 4.0, "yuki": 1.0}

	ranked, state := Rank(Input{
		Candidates: catalog(),
		Weights:    weights,
		CF:         cf,
		HasHistory: true,
	}, DefaultConfig())

	if state != StateHybrid {
		t.Errorf("state = %v, want %v", state, StateHybrid)
	}
	// midori: 0.4*0 + 0.6*4.0 = 2.4
	// akari:  0.4*1.5 + 0.6*0 = 0.6
	// yuki:   0.4*0 + 0.6*1.0 = 0.6
	// rei:    0.4*1.0 + 0.6*0 = 0.4
	// akari before yuki: equal scores keep catalog order.
	assertOrder(t, ranked, "midori", "akari", "yuki", "rei")

	if !almostEqual(ranked[0].Score, 2.4) {
		t.Errorf("midori score = %g, want 2.4", ranked[0].Score)
	}
	if !ranked[0].CFDominant {
		t.Error("midori must carry the cf_dominant badge")
	}
	// akari's score is all content; no badge.
	for _, c := range ranked {
		if c.ID == "akari" && c.CFDominant {
			t.Error("akari must not carry the cf_dominant badge")
		}
	}
}

func TestRankHybridWithoutHistory(t *testing.T) {
	// Collaborative scores alone are enough to leave cold start.
	cf := CFScores{"rei": 2.0}

	ranked, state := Rank(Input{
		Candidates: catalog(),
		CF:         cf,
	}, DefaultConfig())

	if state != StateHybrid {
		t.Errorf("state = %v, want %v", state, StateHybrid)
	}
	// rei: 0.6*2.0 = 1.2; akari: 0.4*1.5 = 0.6; others 0.
	assertOrder(t, ranked, "rei", "akari", "midori", "yuki")
}

func TestRankFiltersSeen(t *testing.T) {
	seen := map[string]struct{}{"akari": {}, "midori": {}}

	ranked, _ := Rank(Input{Candidates: catalog(), Seen: seen}, DefaultConfig())

	assertOrder(t, ranked, "rei", "yuki")
}

func TestRankExhausted(t *testing.T) {
	seen := map[string]struct{}{}
	for _, c := range catalog() {
		seen[c.ID] = struct{}{}
	}

	ranked, state := Rank(Input{
		Candidates: catalog(),
		Seen:       seen,
		Weights:    TagWeights{"歌": 5},
		HasHistory: true,
	}, DefaultConfig())

	if state != StateExhausted {
		t.Errorf("state = %v, want %v", state, StateExhausted)
	}
	if len(ranked) != 0 {
		t.Errorf("ranked = %v, want empty", ids(ranked))
	}
}

func TestRankEmptyCatalog(t *testing.T) {
	ranked, state := Rank(Input{}, DefaultConfig())
	if state != StateExhausted {
		t.Errorf("state = %v, want %v", state, StateExhausted)
	}
	if len(ranked) != 0 {
		t.Error("empty catalog must rank empty")
	}
}

func TestRankStableOnTies(t *testing.T) {
	// All candidates score identically; catalog order must survive.
	cands := []Candidate{
		{ID: "a", Tags: []string{"x"}},
		{ID: "b", Tags: []string{"x"}},
		{ID: "c", Tags: []string{"x"}},
		{ID: "d", Tags: []string{"x"}},
	}
	ranked, _ := Rank(Input{
		Candidates: cands,
		Weights:    TagWeights{"x": 2},
		HasHistory: true,
	}, DefaultConfig())

	assertOrder(t, ranked, "a", "b", "c", "d")
}

func TestRankNegativeProfileStillRanks(t *testing.T) {
	// A profile of only passes has history; this is not a cold start.
	weights := TagWeights{"ホラー": -0.3, "朗読": -0.3, "クール": -0.3}

	ranked, state := Rank(Input{
		Candidates: catalog(),
		Weights:    weights,
		HasHistory: true,
	}, DefaultConfig())

	if state != StateWarm {
		t.Errorf("state = %v, want %v", state, StateWarm)
	}
	// rei sinks to the bottom with -0.9.
	if ranked[len(ranked)-1].ID != "rei" {
		t.Errorf("last = %s, want rei", ranked[len(ranked)-1].ID)
	}
}

func TestBuildDeck(t *testing.T) {
	ranked, state := Rank(Input{Candidates: catalog()}, DefaultConfig())

	deck := BuildDeck(ranked, state, 2)

	if deck.Current == nil || deck.Current.ID != "akari" {
		t.Fatalf("current = %+v, want akari", deck.Current)
	}
	if deck.Next == nil || deck.Next.ID != "rei" {
		t.Fatalf("next = %+v, want rei", deck.Next)
	}
	if deck.Remaining != 4 {
		t.Errorf("remaining = %d, want 4", deck.Remaining)
	}
	if deck.LikedCount != 2 {
		t.Errorf("liked count = %d, want 2", deck.LikedCount)
	}
	if deck.State != StateCold {
		t.Errorf("state = %v, want %v", deck.State, StateCold)
	}
}

func TestBuildDeckSingleCandidate(t *testing.T) {
	ranked := []ScoredCandidate{{Candidate: Candidate{ID: "only"}}}

	deck := BuildDeck(ranked, StateWarm, 0)

	if deck.Current == nil || deck.Current.ID != "only" {
		t.Fatal("current must be the single candidate")
	}
	if deck.Next != nil {
		t.Error("next must be nil with one candidate left")
	}
}

func TestBuildDeckExhausted(t *testing.T) {
	deck := BuildDeck(nil, StateExhausted, 3)

	if deck.Current != nil || deck.Next != nil {
		t.Error("exhausted deck must have no cards")
	}
	if deck.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", deck.Remaining)
	}
}

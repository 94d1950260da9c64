// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package recommend

import "sort"

// Input carries the session state a ranking pass reads.
type Input struct {
	// Candidates is the full catalog slice in catalog order (boosted first,
	// then newest first). Ties in score preserve this order.
	Candidates []Candidate

	// Seen holds the IDs of candidates already swiped or skipped this
	// session.
	Seen map[string]struct{}

	// Weights is the device's accumulated tag preference profile.
	Weights TagWeights

	// CF holds the collaborative scores for the current identity; empty when
	// anonymous or when the remote scorer is unavailable.
	CF CFScores

	// HasHistory is true once any tag weight is non-zero. It separates a
	// true cold start from a profile that has netted back to zero scores.
	HasHistory bool
}

// Rank orders the unseen candidates best-first and reports which scoring
// mode produced the order.
//
// Cold start (no history, no collaborative scores) keeps catalog order but
// floats boosted candidates to the front. Otherwise candidates are scored:
// content only when the collaborative cache is empty, blended when it is
// not. The sort is stable throughout, so equal scores keep catalog order.
func Rank(in Input, cfg Config) ([]ScoredCandidate, State) {
	unseen := make([]ScoredCandidate, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if _, ok := in.Seen[c.ID]; ok {
			continue
		}
		unseen = append(unseen, ScoredCandidate{Candidate: c})
	}

	if len(unseen) == 0 {
		return unseen, StateExhausted
	}

	hybrid := len(in.CF) > 0

	if !in.HasHistory && !hybrid {
		sort.SliceStable(unseen, func(i, j int) bool {
			return unseen[i].Boosted && !unseen[j].Boosted
		})
		return unseen, StateCold
	}

	for i := range unseen {
		content := ContentScore(unseen[i].Tags, unseen[i].Boosted, in.Weights, cfg)
		if hybrid {
			cf := in.CF[unseen[i].ID]
			unseen[i].Score = blend(content, cf, cfg)
			unseen[i].CFDominant = cfDominant(content, cf, cfg)
		} else {
			unseen[i].Score = content
		}
	}

	sort.SliceStable(unseen, func(i, j int) bool {
		return unseen[i].Score > unseen[j].Score
	})

	if hybrid {
		return unseen, StateHybrid
	}
	return unseen, StateWarm
}

/// BuildDeck turns a ranked slice into the deck view: top card, the card
// behind it, and the remaining count.
func BuildDeck(ranked []ScoredCandidate, state State, likedCount int) Deck {
	deck := Deck{
		Remaining:  len(ranked),
		State:      state,
		LikedCount: likedCount,
	}
	if len(ranked) > 0 {
		deck.Current = &ranked[0]
	}
	if len(ranked) > 1 {
		deck.Next = &ranked[1]
	}
	return deck
}

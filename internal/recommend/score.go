// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package recommend

// ContentScore computes the content score of a candidate against the given
// tag weights: the sum of the weights of its tags, plus the boost bonus for
// boosted candidates. Tags absent from the weight map contribute 0, so a
// fresh user scores every non-boosted candidate at exactly 0.
func ContentScore(tags []string, boosted bool, weights TagWeights, cfg Config) float64 {
	score := 0.0
	for _, tag := range tags {
		score += weights[tag]
	}
	if boosted {
		score += cfg.BoostBonus
	}
	return score
}

// blend fuses a content score with a collaborative score using the
// configured weights.
func blend(content, cf float64, cfg Config) float64 {
	return cfg.ContentWeight*content + cfg.CFWeight*cf
}

// cfDominant reports whether the collaborative contribution to a blended
// score outweighs the content contribution. Surfaced on deck responses as
// the "picked for you" badge.
func cfDominant(content, cf float64, cfg Config) bool {
	return cfg.CFWeight*cf > cfg.ContentWeight*content
}

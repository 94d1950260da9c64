// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package catalog

import (
	"time"

	"github.com/vvibe/vvibe/internal/recommend"
)

// SampleCandidates returns the built-in demo profiles served when the
// catalog holds no usable rows. The deck is never empty on a fresh install.
func SampleCandidates() []recommend.Candidate {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	return []recommend.Candidate{
		{
			ID:          "akari",
			Name:        "星乃あかり",
			Handle:      "@hoshino_akari",
			Description: "歌ってゲームして、たまにポンコツ。あかりんの声、聴いてみて!",
			Tags:        []string{"歌", "ゲーム", "天然"},
			ThemeColor:  "#FF6B9D",
			Boosted:     true,
			CreatedAt:   base,
		},
		{
			ID:          "rei",
			Name:        "月城レイ",
			Handle:      "@tsukishiro_rei",
			Description: "深夜のホラー朗読、聴く勇気ある?",
			Tags:        []string{"ホラー", "朗読", "クール"},
			ThemeColor:  "#4A90D9",
			CreatedAt:   base.Add(-time.Hour),
		},
		{
			ID:          "midori",
			Name:        "森野みどり",
			Handle:      "@morino_midori",
			Description: "癒しのASMRと雑談をお届け。おやすみ前にどうぞ。",
			Tags:        []string{"癒し", "ASMR", "雑談"},
			ThemeColor:  "#52C788",
			CreatedAt:   base.Add(-2 * time.Hour),
		},
	}
}

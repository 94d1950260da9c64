// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package recommend

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestContentScore(t *testing.T) {
	cfg := DefaultConfig()
	weights := TagWeights{"歌": 2.0, "ゲーム": -0.3, "ASMR": 0.7}

	tests := []struct {
		name    string
		tags    []string
		boosted bool
		want    float64
	}{
		{
			name: "sum of known tag weights",
			tags: []string{"歌", "ゲーム"},
			want: 1.7,
		},
		{
			name: "unknown tags weigh zero",
			tags: []string{"ホラー", "朗読"},
			want: 0,
		},
		{
			name: "mixed known and unknown",
			tags: []string{"ASMR", "雑談"},
			want: 0.7,
		},
		{
			name:    "boost bonus added on top",
			tags:    []string{"歌"},
			boosted: true,
			want:    3.5,
		},
		{
			name:    "boost bonus alone for fresh profile",
			tags:    []string{"ホラー"},
			boosted: true,
			want:    1.5,
		},
		{
			name: "no tags scores zero",
			tags: nil,
			want: 0,
		},
		{
			name: "negative weights pull the score down",
			tags: []string{"ゲーム"},
			want: -0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContentScore(tt.tags, tt.boosted, weights, cfg)
			if !almostEqual(got, tt.want) {
				t.Errorf("ContentScore = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestContentScoreEmptyWeights(t *testing.T) {
	cfg := DefaultConfig()
	if got := ContentScore([]string{"歌", "天然"}, false, TagWeights{}, cfg); got != 0 {
		t.Errorf("fresh profile must score 0, got %g", got)
	}
	if got := ContentScore([]string{"歌"}, false, nil, cfg); got != 0 {
		t.Errorf("nil weights must score 0, got %g", got)
	}
}

func TestBlend(t *testing.T) {
	cfg := DefaultConfig()
	// 0.4*2.0 + 0.6*5.0 = 3.8
	if got := blend(2.0, 5.0, cfg); !almostEqual(got, 3.8) {
		t.Errorf("blend = %g, want 3.8", got)
	}
	// Absent CF entries contribute 0: blended score is damped content.
	if got := blend(2.0, 0, cfg); !almostEqual(got, 0.8) {
		t.Errorf("blend with zero cf = %g, want 0.8", got)
	}
}

func TestCFDominant(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		content float64
		cf      float64
		want    bool
	}{
		{"cf outweighs content", 1.0, 1.0, true},      // 0.6 > 0.4
		{"content outweighs cf", 3.0, 1.0, false},     // 0.6 < 1.2
		{"zero cf never dominates", 0, 0, false},      // 0 > 0 is false
		{"cf against zero content", 0, 0.1, true},     // 0.06 > 0
		{"exact tie is not dominant", 3.0, 2.0, false}, // 1.2 > 1.2 is false
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfDominant(tt.content, tt.cf, cfg); got != tt.want {
				t.Errorf("cfDominant(%g, %g) = %v, want %v", tt.content, tt.cf, got, tt.want)
			}
		})
	}
}

func TestDirectionValid(t *testing.T) {
	if !DirectionLike.Valid() || !DirectionPass.Valid() {
		t.Error("like and pass must be valid directions")
	}
	if Direction("superlike").Valid() {
		t.Error("unknown direction must be invalid")
	}
	if Direction("").Valid() {
		t.Error("empty direction must be invalid")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero like delta", func(c *Config) { c.LikeDelta = 0 }},
		{"positive pass delta", func(c *Config) { c.PassDelta = 0.3 }},
		{"negative boost bonus", func(c *Config) { c.BoostBonus = -0.5 }},
		{"weights not summing to 1", func(c *Config) { c.CFWeight = 0.7 }},
		{"negative weight", func(c *Config) { c.ContentWeight = -0.2; c.CFWeight = 1.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vvibe/vvibe/internal/config"
	"github.com/vvibe/vvibe/internal/recommend"
)

func testResolver() *Resolver {
	return NewResolver(config.StorageConfig{
		PublicBaseURL: "https://cdn.example.com/storage",
		ImageBucket:   "vliver-images",
		VoiceBucket:   "voice-posts",
	})
}

func TestResolver(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"relative image path", r.ResolveImage("akari/cover.png"), "https://cdn.example.com/storage/vliver-images/akari/cover.png"},
		{"leading slash trimmed", r.ResolveImage("/akari/cover.png"), "https://cdn.example.com/storage/vliver-images/akari/cover.png"},
		{"absolute https passes through", r.ResolveImage("https://else.where/x.png"), "https://else.where/x.png"},
		{"absolute http passes through", r.ResolveVoice("http://else.where/x.mp3"), "http://else.where/x.mp3"},
		{"empty path stays empty", r.ResolveVoice(""), ""},
		{"voice bucket used for voice", r.ResolveVoice("akari/intro.mp3"), "https://cdn.example.com/storage/voice-posts/akari/intro.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestResolverWithoutBase(t *testing.T) {
	r := NewResolver(config.StorageConfig{})
	if got := r.ResolveImage("akari/cover.png"); got != "akari/cover.png" {
		t.Errorf("without a base the path must pass through, got %q", got)
	}
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestNormalize(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		row  candidateRow
		want recommend.Candidate
	}{
		{
			name: "full row",
			row: candidateRow{
				ID:          "akari",
				Name:        "星乃あかり",
				Handle:      nullStr("hoshino_akari"),
				Description: nullStr("歌とゲーム"),
				Tags:        nullStr(`["歌","ゲーム"]`),
				ImagePath:   nullStr("akari/cover.png"),
				VoicePath:   nullStr("akari/intro.mp3"),
				ThemeColor:  nullStr("#FF6B9D"),
				Boosted:     true,
				CreatedAt:   created,
			},
			want: recommend.Candidate{
				ID:          "akari",
				Name:        "星乃あかり",
				Handle:      "@hoshino_akari",
				Description: "歌とゲーム",
				Tags:        []string{"歌", "ゲーム"},
				ImageURL:    "https://cdn.example.com/storage/vliver-images/akari/cover.png",
				VoiceURL:    "https://cdn.example.com/storage/voice-posts/akari/intro.mp3",
				ThemeColor:  "#FF6B9D",
				Boosted:     true,
				CreatedAt:   created,
			},
		},
		{
			name: "null columns become empty values",
			row:  candidateRow{ID: "rei", Name: "月城レイ", CreatedAt: created},
			want: recommend.Candidate{ID: "rei", Name: "月城レイ", Tags: []string{}, CreatedAt: created},
		},
		{
			name: "handle already prefixed",
			row:  candidateRow{ID: "x", Name: "X", Handle: nullStr("@already"), CreatedAt: created},
			want: recommend.Candidate{ID: "x", Name: "X", Handle: "@already", Tags: []string{}, CreatedAt: created},
		},
		{
			name: "malformed tags fall back to empty slice",
			row:  candidateRow{ID: "x", Name: "X", Tags: nullStr("{broken"), CreatedAt: created},
			want: recommend.Candidate{ID: "x", Name: "X", Tags: []string{}, CreatedAt: created},
		},
	}

	r := testResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.row, r)
			if got.ID != tt.want.ID || got.Name != tt.want.Name ||
				got.Handle != tt.want.Handle || got.Description != tt.want.Description ||
				got.ImageURL != tt.want.ImageURL || got.VoiceURL != tt.want.VoiceURL ||
				got.ThemeColor != tt.want.ThemeColor || got.Boosted != tt.want.Boosted {
				t.Errorf("normalize = %+v, want %+v", got, tt.want)
			}
			if got.Tags == nil {
				t.Fatal("tags must never be nil")
			}
			if len(got.Tags) != len(tt.want.Tags) {
				t.Fatalf("tags = %v, want %v", got.Tags, tt.want.Tags)
			}
			for i := range tt.want.Tags {
				if got.Tags[i] != tt.want.Tags[i] {
					t.Errorf("tags = %v, want %v", got.Tags, tt.want.Tags)
				}
			}
		})
	}
}

// fakeLoader serves a canned candidate list or an error.
type fakeLoader struct {
	candidates []recommend.Candidate
	err        error
}

func (l *fakeLoader) Candidates(context.Context) ([]recommend.Candidate, error) {
	return l.candidates, l.err
}

func TestSourceLoad(t *testing.T) {
	loader := &fakeLoader{candidates: []recommend.Candidate{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}}
	s := NewSource(loader)

	if !s.Loading() {
		t.Error("source must report loading before Load")
	}

	s.Load(context.Background())

	if s.Loading() {
		t.Error("source must not report loading after Load")
	}
	if got := s.Candidates(); len(got) != 2 || got[0].ID != "a" {
		t.Errorf("candidates = %v", got)
	}
	if c, ok := s.Lookup("b"); !ok || c.Name != "B" {
		t.Errorf("lookup b = %+v, %v", c, ok)
	}
	if _, ok := s.Lookup("ghost"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestSourceFallsBackToSamples(t *testing.T) {
	tests := []struct {
		name   string
		loader *fakeLoader
	}{
		{"load error", &fakeLoader{err: errors.New("db down")}},
		{"empty catalog", &fakeLoader{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(tt.loader)
			s.Load(context.Background())

			got := s.Candidates()
			if len(got) != 3 {
				t.Fatalf("fallback must serve the 3 samples, got %d", len(got))
			}
			if !got[0].Boosted {
				t.Error("boosted sample must lead the catalog order")
			}
			if _, ok := s.Lookup("midori"); !ok {
				t.Error("sample candidates must be indexed")
			}
		})
	}
}

func TestSampleCandidatesShape(t *testing.T) {
	samples := SampleCandidates()
	seen := map[string]bool{}
	for _, c := range samples {
		if c.ID == "" || c.Name == "" || len(c.Tags) == 0 {
			t.Errorf("sample %q incomplete: %+v", c.ID, c)
		}
		if c.Handle == "" || c.Handle[0] != '@' {
			t.Errorf("sample %q handle must be @-prefixed, got %q", c.ID, c.Handle)
		}
		if seen[c.ID] {
			t.Errorf("duplicate sample id %q", c.ID)
		}
		seen[c.ID] = true
	}
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package catalog

import (
	"strings"

	"github.com/vvibe/vvibe/internal/config"
)

// Resolver turns stored object paths into public URLs. Absolute http(s)
// URLs pass through untouched so externally hosted media keeps working.
type Resolver struct {
	base        string
	imageBucket string
	voiceBucket string
}

// NewResolver builds a resolver from the storage config.
func NewResolver(cfg config.StorageConfig) *Resolver {
	return &Resolver{
		base:        strings.TrimRight(cfg.PublicBaseURL, "/"),
		imageBucket: cfg.ImageBucket,
		voiceBucket: cfg.VoiceBucket,
	}
}

// ResolveImage resolves a profile image path.
func (r *Resolver) ResolveImage(path string) string {
	return r.resolve(r.imageBucket, path)
}

// ResolveVoice resolves a voice post path.
func (r *Resolver) ResolveVoice(path string) string {
	return r.resolve(r.voiceBucket, path)
}

func (r *Resolver) resolve(bucket, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if r.base == "" {
		return path
	}
	return r.base + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package recommend

import (
	"fmt"
	"math"
)

// Config holds the scoring constants. The defaults are the product-defined
// values; Validate guards against configurations that would invert the
// meaning of a swipe.
type Config struct {
	// LikeDelta is added to each of a candidate's tag weights on a like.
	LikeDelta float64

	// PassDelta is added to each tag weight on a pass. Negative: a pass
	// penalizes less than a like rewards, so one like survives a few passes.
	PassDelta float64

	// BoostBonus is added to the content score of boosted candidates.
	BoostBonus float64

	// ContentWeight and CFWeight blend the two score sources. They sum to 1.
	ContentWeight float64
	CFWeight      float64
}

// DefaultConfig returns the product-defined scoring constants.
func DefaultConfig() Config {
	return Config{
		LikeDelta:     1.0,
		PassDelta:     -0.3,
		BoostBonus:    1.5,
		ContentWeight: 0.4,
		CFWeight:      0.6,
	}
}

// Validate checks the constants for values that would silently break ranking.
func (c Config) Validate() error {
	if c.LikeDelta <= 0 {
		return fmt.Errorf("like delta must be positive, got %g", c.LikeDelta)
	}
	if c.PassDelta >= 0 {
		return fmt.Errorf("pass delta must be negative, got %g", c.PassDelta)
	}
	if c.BoostBonus < 0 {
		return fmt.Errorf("boost bonus must be non-negative, got %g", c.BoostBonus)
	}
	if c.ContentWeight < 0 || c.CFWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if math.Abs(c.ContentWeight+c.CFWeight-1.0) > 1e-9 {
		return fmt.Errorf("blend weights must sum to 1, got %g", c.ContentWeight+c.CFWeight)
	}
	return nil
}

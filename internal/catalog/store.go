// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/vvibe/vvibe/internal/recommend"
)

// Store reads the catalog and receives mirrored writes. It implements
// mirror.Writer.
type Store struct {
	db       *sql.DB
	resolver *Resolver
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, resolver *Resolver) *Store {
	return &Store{db: db, resolver: resolver}
}

// candidateRow is the raw join result before normalization. Nullable
// columns stay nullable here.
type candidateRow struct {
	ID          string
	Name        string
	Handle      sql.NullString
	Description sql.NullString
	Tags        sql.NullString
	ImagePath   sql.NullString
	VoicePath   sql.NullString
	ThemeColor  sql.NullString
	Boosted     bool
	CreatedAt   time.Time
}

// candidatesQuery orders the deck source rows once, SQL-side: boosted
// first, then newest. Rankers downstream rely on this order for ties.
const candidatesQuery = `
	SELECT vp.id, pr.name, pr.handle, pr.description, vp.tags,
	       pr.image_path, vp.voice_path, pr.theme_color, pr.is_boosted,
	       vp.created_at
	FROM voice_posts vp
	JOIN vliver_profiles pr ON pr.id = vp.profile_id
	WHERE vp.published
	ORDER BY pr.is_boosted DESC, vp.created_at DESC`

// Candidates loads all published voice posts with their owning profiles.
func (s *Store) Candidates(ctx context.Context) ([]recommend.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, candidatesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []recommend.Candidate
	for rows.Next() {
		var row candidateRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Handle, &row.Description, &row.Tags,
			&row.ImagePath, &row.VoicePath, &row.ThemeColor, &row.Boosted,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, normalize(row, s.resolver))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return out, nil
}

// normalize shapes a raw row into a Candidate: null strings become empty,
// the handle gains its "@" prefix, tags decode to an empty (never nil)
// slice, and media paths go through URL resolution.
func normalize(row candidateRow, resolver *Resolver) recommend.Candidate {
	c := recommend.Candidate{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		ThemeColor:  row.ThemeColor.String,
		Boosted:     row.Boosted,
		CreatedAt:   row.CreatedAt,
		Tags:        []string{},
	}

	if row.Handle.Valid && row.Handle.String != "" {
		handle := row.Handle.String
		if handle[0] != '@' {
			handle = "@" + handle
		}
		c.Handle = handle
	}

	if row.Tags.Valid && row.Tags.String != "" {
		var tags []string
		if err := json.Unmarshal([]byte(row.Tags.String), &tags); err == nil && tags != nil {
			c.Tags = tags
		}
	}

	if resolver != nil {
		c.ImageURL = resolver.ResolveImage(row.ImagePath.String)
		c.VoiceURL = resolver.ResolveVoice(row.VoicePath.String)
	} else {
		c.ImageURL = row.ImagePath.String
		c.VoiceURL = row.VoicePath.String
	}
	return c
}

// UnreadNotifications counts a user's unread notifications.
func (s *Store) UnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = ? AND NOT read`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// UpsertSwipe records a swipe, overwriting an earlier swipe on the same
// candidate by the same user.
func (s *Store) UpsertSwipe(ctx context.Context, userID, candidateID, action string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO swipe_events (user_id, voice_post_id, action, occurred_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, voice_post_id)
		DO UPDATE SET action = excluded.action, occurred_at = excluded.occurred_at`,
		userID, candidateID, action, at,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert swipe event: %w", err)
	}
	return nil
}

// UpsertFavorite records a favorite at its list position.
func (s *Store) UpsertFavorite(ctx context.Context, userID, candidateID string, position int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, voice_post_id, position, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, voice_post_id)
		DO UPDATE SET position = excluded.position`,
		userID, candidateID, position, at,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes a mirrored favorite row.
func (s *Store) DeleteFavorite(ctx context.Context, userID, candidateID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND voice_post_id = ?`,
		userID, candidateID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// SeedSamples inserts the built-in sample profiles into an empty catalog.
// Enabled by config for demo deployments; a non-empty catalog is left
// alone.
func (s *Store) SeedSamples(ctx context.Context) error {
	var posts int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM voice_posts`).Scan(&posts); err != nil {
		return fmt.Errorf("failed to count voice posts: %w", err)
	}
	if posts > 0 {
		return nil
	}

	for _, c := range SampleCandidates() {
		tags, err := json.Marshal(c.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO vliver_profiles (id, name, handle, description, theme_color, is_boosted, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Handle[1:], c.Description, c.ThemeColor, c.Boosted, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", c.ID, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO voice_posts (id, profile_id, title, tags, published, created_at)
			VALUES (?, ?, ?, ?, TRUE, ?)`,
			c.ID, c.ID, c.Name, string(tags), c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to seed voice post %s: %w", c.ID, err)
		}
	}
	return nil
}

// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package mirror

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/vvibe/vvibe/internal/identity"
	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
)

// NewPubSub creates the in-process channel transport shared by the
// publisher and the consumer.
func NewPubSub(bufferSize int) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            int64(bufferSize),
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
}

// Publisher pushes mirror events onto the pipeline. All methods are
// best-effort: failures are logged and counted, never returned.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// PublishSwipe mirrors one swipe action.
func (p *Publisher) PublishSwipe(ctx context.Context, ev SwipeEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	p.publish(ctx, TopicSwipes, &ev)
}

// PublishFavorite mirrors one favorite mutation.
func (p *Publisher) PublishFavorite(ctx context.Context, ev FavoriteEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	p.publish(ctx, TopicFavorites, &ev)
}

type validator interface {
	Validate() error
}

func (p *Publisher) publish(ctx context.Context, topic string, ev validator) {
	err := ev.Validate()
	if err == nil {
		var data []byte
		if data, err = marshalEvent(ev); err == nil {
			msg := message.NewMessage(uuid.New().String(), data)
			msg.Metadata.Set("published_at", time.Now().UTC().Format(time.RFC3339Nano))
			err = p.pub.Publish(topic, msg)
		}
	}

	metrics.RecordMirrorPublish(topic, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).
			Msg("mirror publish dropped")
	}
}

// FavoriteMirror adapts the publisher to the favorites store's mirror hook.
// The owning identity is read from the request context at mutation time;
// anonymous requests mirror nothing.
type FavoriteMirror struct {
	pub *Publisher
}

// NewFavoriteMirror builds the adapter.
func NewFavoriteMirror(pub *Publisher) *FavoriteMirror {
	return &FavoriteMirror{pub: pub}
}

// FavoriteAdded mirrors an added favorite when the request carries an
// identity.
func (m *FavoriteMirror) FavoriteAdded(ctx context.Context, candidateID string, position int) {
	id := identity.FromContext(ctx)
	if id == nil {
		return
	}
	m.pub.PublishFavorite(ctx, FavoriteEvent{
		UserID:      id.ID,
		CandidateID: candidateID,
		Position:    position,
	})
}

// FavoriteRemoved mirrors a removed favorite when the request carries an
// identity.
func (m *FavoriteMirror) FavoriteRemoved(ctx context.Context, candidateID string) {
	id := identity.FromContext(ctx)
	if id == nil {
		return
	}
	m.pub.PublishFavorite(ctx, FavoriteEvent{
		UserID:      id.ID,
		CandidateID: candidateID,
		Removed:     true,
	})
}

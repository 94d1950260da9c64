// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vvibe/vvibe/internal/logging"
	"github.com/vvibe/vvibe/internal/metrics"
)

// Writer receives mirrored rows. Implemented by the catalog store.
type Writer interface {
	UpsertSwipe(ctx context.Context, userID, candidateID, action string, at time.Time) error
	UpsertFavorite(ctx context.Context, userID, candidateID string, position int, at time.Time) error
	DeleteFavorite(ctx context.Context, userID, candidateID string) error
}

// Consumer drains the pipeline into the relational store. Writes are rate
// limited so a swipe burst cannot saturate the database. Every message is
// acked regardless of outcome; mirroring is best effort and failed writes
// are logged and counted, never retried.
type Consumer struct {
	sub     message.Subscriber
	writer  Writer
	limiter *rate.Limiter
	logger  zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// Ready is closed once both topic subscriptions are live. Publishes before
// that point are dropped by the non-persistent transport.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// NewConsumer builds a consumer over the shared pipeline transport.
func NewConsumer(sub message.Subscriber, writer Writer, writesPerSecond float64, burst int) *Consumer {
	return &Consumer{
		sub:     sub,
		writer:  writer,
		limiter: rate.NewLimiter(rate.Limit(writesPerSecond), burst),
		logger:  logging.WithComponent("mirror"),
		ready:   make(chan struct{}),
	}
}

// Serve consumes both topics until the context is cancelled. It implements
// the suture service contract.
func (c *Consumer) Serve(ctx context.Context) error {
	swipes, err := c.sub.Subscribe(ctx, TopicSwipes)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicSwipes, err)
	}
	favorites, err := c.sub.Subscribe(ctx, TopicFavorites)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicFavorites, err)
	}
	c.readyOnce.Do(func() { close(c.ready) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.drain(ctx, TopicSwipes, swipes, c.handleSwipe)
	}()
	go func() {
		defer wg.Done()
		c.drain(ctx, TopicFavorites, favorites, c.handleFavorite)
	}()
	wg.Wait()

	return ctx.Err()
}

func (c *Consumer) drain(ctx context.Context, topic string, msgs <-chan *message.Message, handle func(context.Context, []byte) error) {
	for msg := range msgs {
		if err := c.limiter.Wait(ctx); err != nil {
			msg.Ack()
			return
		}

		err := handle(ctx, msg.Payload)
		metrics.RecordMirrorWrite(topic, err)
		if err != nil {
			c.logger.Warn().Err(err).Str("topic", topic).
				Str("message_id", msg.UUID).Msg("mirror write dropped")
		}
		msg.Ack()
	}
}

func (c *Consumer) handleSwipe(ctx context.Context, payload []byte) error {
	var ev SwipeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("failed to decode swipe event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	return c.writer.UpsertSwipe(ctx, ev.UserID, ev.CandidateID, ev.Action, ev.OccurredAt)
}

func (c *Consumer) handleFavorite(ctx context.Context, payload []byte) error {
	var ev FavoriteEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("failed to decode favorite event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Removed {
		return c.writer.DeleteFavorite(ctx, ev.UserID, ev.CandidateID)
	}
	return c.writer.UpsertFavorite(ctx, ev.UserID, ev.CandidateID, ev.Position, ev.OccurredAt)
}

package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"overlay-service/internal/config"
)

// Publisher fans a payload out to every subscriber of a channel topic.
// Topic names are "channel.{broadcaster}" with the broadcaster lowercased
// upstream. Publishing happens strictly after the storage commit of the
// mutation it describes.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Topic builds the pub/sub topic name for a broadcaster.
func Topic(prefix, broadcaster string) string {
	return prefix + broadcaster
}

// Bus is the redis-backed Publisher. Every service instance subscribes to
// the topic pattern and forwards messages to its local websocket hub, so
// renderers see mutations regardless of which instance handled them.
type Bus struct {
	rdb    *redis.Client
	prefix string
}

func NewBus(cfg *config.RedisConfig) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Bus{rdb: rdb, prefix: cfg.TopicPrefix}, nil
}

// TopicPrefix exposes the configured prefix for topic construction.
func (b *Bus) TopicPrefix() string {
	return b.prefix
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal broadcast payload: %w", err)
	}
	return b.rdb.Publish(ctx, topic, raw).Err()
}

// StartForwarder subscribes to every channel topic and hands raw messages
// to onMsg until ctx is cancelled.
func (b *Bus) StartForwarder(ctx context.Context, onMsg func(topic string, payload []byte)) error {
	sub := b.rdb.PSubscribe(ctx, b.prefix+"*")

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				onMsg(m.Channel, []byte(m.Payload))
			}
		}
	}()

	return nil
}

func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// LogPublisher is a Publisher that only logs; used when redis is not
// configured in local development.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	log.Printf("broadcast: %s %s", topic, raw)
	return nil
}

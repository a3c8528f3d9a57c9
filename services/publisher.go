package services

import (
	"bostad-scraper/models"
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher announces newly stored listings.
type Publisher interface {
	PublishListing(ctx context.Context, listing models.Listing) error
	Close() error
}

// RedisPublisher appends listings to a Redis stream capped at maxLen
// entries.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(addr string, db int, stream string, maxLen int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: int64(maxLen),
	}
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// PublishListing adds one entry with the listing url and its JSON encoding.
func (p *RedisPublisher) PublishListing(ctx context.Context, listing models.Listing) error {
	body, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"url":     listing.URL,
			"listing": string(body),
		},
	}).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package services

import (
	"bostad-scraper/models"
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	const stream = "test_bostad_listings"

	publisher := NewRedisPublisher("localhost:6379", 0, stream, 100)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()
	require.NoError(t, client.Del(ctx, stream).Err())
	defer client.Del(ctx, stream)

	listing := models.Listing{
		Location: "Kista",
		Address:  "Kistagången 4",
		Price:    models.IntPtr(9500),
		URL:      "https://bostad.blocket.se/p2/sv/home/101",
	}
	require.NoError(t, publisher.PublishListing(ctx, listing))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, listing.URL, entries[0].Values["url"])

	var decoded models.Listing
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["listing"].(string)), &decoded))
	assert.Equal(t, listing, decoded)
}

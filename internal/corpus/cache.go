package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache mirrors freshly loaded box scores into Redis for dashboard readers.
// It is write-through only; the resolver always works from sqlite.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WriteGame caches one game's final line and box score.
func (c *Cache) WriteGame(ctx context.Context, game Game, lines []PlayerLine) error {
	payload := struct {
		Game    Game         `json:"game"`
		Players []PlayerLine `json:"players"`
	}{game, lines}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling boxscore: %w", err)
	}
	key := fmt.Sprintf("corpus:game:%s", game.ID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching game %s: %w", game.ID, err)
	}
	return nil
}

// WriteDateIndex replaces the cached list of game ids for one date.
func (c *Cache) WriteDateIndex(ctx context.Context, date string, gameIDs []string) error {
	key := fmt.Sprintf("corpus:games:%s", date)

	values := make([]interface{}, len(gameIDs))
	for i, id := range gameIDs {
		values[i] = id
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
	}
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("caching date index %s: %w", date, err)
	}
	return nil
}

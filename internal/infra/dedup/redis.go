package dedup

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the fast-path duplicate filter for webhook events, keyed by
// conversationId and eventType. It is best effort only: when Redis is down
// events flow through and the outcome store's terminal guard still prevents
// double application.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		TTL:    24 * time.Hour,
	}
}

func (s *RedisStore) Seen(ctx context.Context, conversationID, eventType string) bool {
	n, err := s.Client.Exists(ctx, key(conversationID, eventType)).Result()
	if err != nil {
		log.Printf("⚠️ [DEDUP] redis check failed, letting event through: %v", err)
		return false
	}
	return n > 0
}

func (s *RedisStore) Mark(ctx context.Context, conversationID, eventType string) {
	if err := s.Client.SetNX(ctx, key(conversationID, eventType), 1, s.TTL).Err(); err != nil {
		log.Printf("⚠️ [DEDUP] redis mark failed: %v", err)
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func key(conversationID, eventType string) string {
	return "outcome:" + conversationID + ":" + eventType
}

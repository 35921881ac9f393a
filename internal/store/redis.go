package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore keeps the document under a single key. Useful when
// several trellis processes serve the same document.
type RedisDocumentStore struct {
	client *redis.Client
	key    string
}

func NewRedisDocumentStore(client *redis.Client, key string) *RedisDocumentStore {
	return &RedisDocumentStore{client: client, key: key}
}

func (s *RedisDocumentStore) CurrentText(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, nil
}

func (s *RedisDocumentStore) SetText(ctx context.Context, text []byte) error {
	if err := s.client.Set(ctx, s.key, text, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisDocumentStore) Close() error {
	return s.client.Close()
}

var _ DocumentStore = (*RedisDocumentStore)(nil)

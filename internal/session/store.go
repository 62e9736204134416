package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrKeyNotFound is returned by Store.Get for a missing or expired key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExists is returned by Store.Insert when the key is taken.
	ErrKeyExists = errors.New("key already exists")
)

// Store keeps serialized sessions with a TTL. Insert never overwrites.
type Store interface {
	Insert(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type redisStore struct {
	client redis.UniversalClient
}

// NewRedisStore returns a Store on client.
func NewRedisStore(client redis.UniversalClient) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Insert(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrKeyExists
	}
	return err
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return v, err
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

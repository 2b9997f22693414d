package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/airtime/internal/history"
)

// Redis key layout.
const (
	historyKeyPrefix = "airtime:history:"
	channelsKey      = "airtime:channels"
)

// RedisStore keeps each channel's history as a single CBOR blob in Redis.
// The blob is small by construction (the compactor keeps samples bounded),
// so whole-blob rewrites are cheaper than maintaining per-record structures.
//
// Update calls are serialized per channel with in-process locks. Running
// multiple service instances against the same Redis requires external
// per-channel serialization; this deployment runs one writer.
type RedisStore struct {
	client *redis.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		locks:  make(map[string]*sync.Mutex),
	}
}

// historyKey returns the Redis key holding a channel's history blob.
func historyKey(channelID string) string {
	return historyKeyPrefix + channelID
}

// Load fetches and decodes a channel's history. A channel that has never
// been written yields an empty history.
func (s *RedisStore) Load(ctx context.Context, channelID string) (history.History, error) {
	data, err := s.client.Get(ctx, historyKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return history.History{}, nil
	}
	if err != nil {
		return history.History{}, fmt.Errorf("load history for %s: %w", channelID, err)
	}

	h, err := history.Decode(data)
	if err != nil {
		return history.History{}, fmt.Errorf("load history for %s: %w", channelID, err)
	}
	return h, nil
}

// Save encodes and writes a channel's history and registers the channel.
func (s *RedisStore) Save(ctx context.Context, channelID string, h history.History) error {
	data, err := history.Encode(h)
	if err != nil {
		return fmt.Errorf("save history for %s: %w", channelID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, historyKey(channelID), data, 0)
	pipe.SAdd(ctx, channelsKey, channelID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history for %s: %w", channelID, err)
	}
	return nil
}

// Update applies fn to the channel's history under the channel's lock and
// persists the result.
func (s *RedisStore) Update(ctx context.Context, channelID string, fn func(history.History) (history.History, error)) error {
	lock := s.channelLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	h, err := s.Load(ctx, channelID)
	if err != nil {
		return err
	}
	next, err := fn(h)
	if err != nil {
		return err
	}
	return s.Save(ctx, channelID, next)
}

// Channels lists every channel with a persisted history, sorted.
func (s *RedisStore) Channels(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, channelsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// channelLock returns the mutex serializing writes for one channel.
func (s *RedisStore) channelLock(channelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[channelID] = lock
	}
	return lock
}

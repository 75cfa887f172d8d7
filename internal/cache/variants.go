// Package cache holds generated variants between generation and selection.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

// VariantStore keeps the latest generation result per campaign.
type VariantStore interface {
	Save(ctx context.Context, result *model.GenerationResult) error
	Latest(ctx context.Context, campaignID string) (*model.GenerationResult, error)
	Delete(ctx context.Context, campaignID string) error
}

func variantsKey(campaignID string) string {
	return "variants:" + campaignID
}

func errNoVariants(campaignID string) error {
	return appErrors.NotFound("no variants generated for campaign %s", campaignID)
}

// RedisVariantStore stores results as JSON with a TTL.
type RedisVariantStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisVariantStore(rdb *redis.Client, ttl time.Duration) *RedisVariantStore {
	return &RedisVariantStore{rdb: rdb, ttl: ttl}
}

func (s *RedisVariantStore) Save(ctx context.Context, result *model.GenerationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, variantsKey(result.CampaignID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save variants: %w", err)
	}
	return nil
}

func (s *RedisVariantStore) Latest(ctx context.Context, campaignID string) (*model.GenerationResult, error) {
	data, err := s.rdb.Get(ctx, variantsKey(campaignID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errNoVariants(campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	var result model.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return &result, nil
}

func (s *RedisVariantStore) Delete(ctx context.Context, campaignID string) error {
	if err := s.rdb.Del(ctx, variantsKey(campaignID)).Err(); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}

type memoryEntry struct {
	result    model.GenerationResult
	expiresAt time.Time
}

// MemoryVariantStore is the single-process store used when Redis is not
// configured.
type MemoryVariantStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryVariantStore(clock clockwork.Clock, ttl time.Duration) *MemoryVariantStore {
	return &MemoryVariantStore{clock: clock, ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryVariantStore) Save(_ context.Context, result *model.GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[result.CampaignID] = memoryEntry{result: *result, expiresAt: s.clock.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryVariantStore) Latest(_ context.Context, campaignID string) (*model.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[campaignID]
	if !ok {
		return nil, errNoVariants(campaignID)
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, campaignID)
		return nil, errNoVariants(campaignID)
	}
	result := e.result
	return &result, nil
}

func (s *MemoryVariantStore) Delete(_ context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, campaignID)
	return nil
}

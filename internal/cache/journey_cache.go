package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pilotscope/internal/model"
)

// JourneyCache stores in-progress journeys by session id. Get returns nil, nil when absent.
type JourneyCache interface {
	Set(ctx context.Context, journey *model.UserJourney) error
	Get(ctx context.Context, sessionID string) (*model.UserJourney, error)
	Delete(ctx context.Context, sessionID string) error
}

type journeyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewJourneyCache(client *redis.Client, ttl time.Duration) JourneyCache {
	return &journeyCache{
		client: client,
		ttl:    ttl,
	}
}

func journeyKey(sessionID string) string {
	return "journey:" + sessionID
}

func (c *journeyCache) Set(ctx context.Context, journey *model.UserJourney) error {
	data, err := json.Marshal(journey)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, journeyKey(journey.SessionID), data, c.ttl).Err()
}

func (c *journeyCache) Get(ctx context.Context, sessionID string) (*model.UserJourney, error) {
	data, err := c.client.Get(ctx, journeyKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var journey model.UserJourney
	if err := json.Unmarshal([]byte(data), &journey); err != nil {
		return nil, err
	}
	return &journey, nil
}

func (c *journeyCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, journeyKey(sessionID)).Err()
}

type journeyEntry struct {
	data    []byte
	expires time.Time
}

// memoryJourneyCache keeps JSON copies so callers never share a journey value
type memoryJourneyCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]journeyEntry
}

func NewMemoryJourneyCache(ttl time.Duration) JourneyCache {
	return &memoryJourneyCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]journeyEntry),
	}
}

func (c *memoryJourneyCache) Set(_ context.Context, journey *model.UserJourney) error {
	data, err := json.Marshal(journey)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, id)
		}
	}
	c.entries[journey.SessionID] = journeyEntry{data: data, expires: now.Add(c.ttl)}
	return nil
}

func (c *memoryJourneyCache) Get(_ context.Context, sessionID string) (*model.UserJourney, error) {
	c.mu.Lock()
	e, ok := c.entries[sessionID]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, sessionID)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var journey model.UserJourney
	if err := json.Unmarshal(e.data, &journey); err != nil {
		return nil, err
	}
	return &journey, nil
}

func (c *memoryJourneyCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
	return nil
}

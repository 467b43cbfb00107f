package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartclass/internal/model"
)

// ContextCache keeps the latest fused context and active suggestions of a
// classroom so they can be read without reaching the classroom loop.
type ContextCache interface {
	SetContext(ctx context.Context, classroomID string, fused *model.FusedContext) error
	GetContext(ctx context.Context, classroomID string) (*model.FusedContext, error)
	SetSuggestions(ctx context.Context, classroomID string, suggestions []model.SuggestionAction) error
	GetSuggestions(ctx context.Context, classroomID string) ([]model.SuggestionAction, error)
	Delete(ctx context.Context, classroomID string) error
}

type contextCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContextCache creates a context cache whose entries expire after ttl
func NewContextCache(client *redis.Client, ttl time.Duration) ContextCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &contextCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *contextCache) contextKey(classroomID string) string {
	return fmt.Sprintf("classroom:%s:context", classroomID)
}

func (c *contextCache) suggestionsKey(classroomID string) string {
	return fmt.Sprintf("classroom:%s:suggestions", classroomID)
}

func (c *contextCache) SetContext(ctx context.Context, classroomID string, fused *model.FusedContext) error {
	data, err := json.Marshal(fused)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.contextKey(classroomID), data, c.ttl).Err()
}

func (c *contextCache) GetContext(ctx context.Context, classroomID string) (*model.FusedContext, error) {
	data, err := c.client.Get(ctx, c.contextKey(classroomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var fused model.FusedContext
	if err := json.Unmarshal([]byte(data), &fused); err != nil {
		return nil, err
	}
	return &fused, nil
}

func (c *contextCache) SetSuggestions(ctx context.Context, classroomID string, suggestions []model.SuggestionAction) error {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.suggestionsKey(classroomID), data, c.ttl).Err()
}

// GetSuggestions returns nil when nothing is cached
func (c *contextCache) GetSuggestions(ctx context.Context, classroomID string) ([]model.SuggestionAction, error) {
	data, err := c.client.Get(ctx, c.suggestionsKey(classroomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var suggestions []model.SuggestionAction
	if err := json.Unmarshal([]byte(data), &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (c *contextCache) Delete(ctx context.Context, classroomID string) error {
	return c.client.Del(ctx, c.contextKey(classroomID), c.suggestionsKey(classroomID)).Err()
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartclass/internal/model"
)

// KeywordCache counts domain keywords heard in a classroom (Redis ZSET)
type KeywordCache interface {
	Increment(ctx context.Context, classroomID string, keywords []string) error
	GetTop(ctx context.Context, classroomID string, limit int) ([]model.KeywordCount, error)
	Delete(ctx context.Context, classroomID string) error
}

type keywordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewKeywordCache creates a new keyword cache
func NewKeywordCache(client *redis.Client) KeywordCache {
	return &keywordCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *keywordCache) key(classroomID string) string {
	return fmt.Sprintf("classroom:%s:kw", classroomID)
}

func (c *keywordCache) Increment(ctx context.Context, classroomID string, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	key := c.key(classroomID)
	pipe := c.client.TxPipeline()
	for _, kw := range keywords {
		pipe.ZIncrBy(ctx, key, 1, kw)
	}
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *keywordCache) GetTop(ctx context.Context, classroomID string, limit int) ([]model.KeywordCount, error) {
	if limit <= 0 {
		return []model.KeywordCount{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(classroomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]model.KeywordCount, len(results))
	for i, z := range results {
		counts[i] = model.KeywordCount{
			Keyword: z.Member.(string),
			Count:   int(z.Score),
		}
	}
	return counts, nil
}

func (c *keywordCache) Delete(ctx context.Context, classroomID string) error {
	return c.client.Del(ctx, c.key(classroomID)).Err()
}

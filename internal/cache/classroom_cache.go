package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartclass/internal/model"
)

// ClassroomCache handles Redis operations for classroom metadata
type ClassroomCache interface {
	SetMeta(ctx context.Context, classroom *model.Classroom) error
	GetMeta(ctx context.Context, id string) (*model.Classroom, error)
	SetStatus(ctx context.Context, id string, status model.ClassroomStatus) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type classroomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClassroomCache creates a new classroom cache
func NewClassroomCache(client *redis.Client) ClassroomCache {
	return &classroomCache{
		client: client,
		ttl:    24 * time.Hour, // a lecture never runs longer
	}
}

func (c *classroomCache) key(id string) string {
	return fmt.Sprintf("classroom:%s", id)
}

func (c *classroomCache) SetMeta(ctx context.Context, classroom *model.Classroom) error {
	data, err := json.Marshal(classroom)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(classroom.ID), data, c.ttl).Err()
}

func (c *classroomCache) GetMeta(ctx context.Context, id string) (*model.Classroom, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var classroom model.Classroom
	if err := json.Unmarshal([]byte(data), &classroom); err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (c *classroomCache) SetStatus(ctx context.Context, id string, status model.ClassroomStatus) error {
	classroom, err := c.GetMeta(ctx, id)
	if err != nil {
		return err
	}
	if classroom == nil {
		return fmt.Errorf("classroom %s not found", id)
	}
	classroom.Status = status
	return c.SetMeta(ctx, classroom)
}

func (c *classroomCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *classroomCache) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(id)).Result()
	return n > 0, err
}

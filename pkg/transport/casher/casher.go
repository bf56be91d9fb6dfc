// Package casher provides Redis-based caching of forms and response lists
package casher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key templates namespace cached values per kind
const (
	FORM_KEY_TEMPLATE      = "form:%s"
	RESPONSES_KEY_TEMPLATE = "responses:%s"
)

// Casher handles caching operations using Redis as the backend
type Casher struct {
	client *redis.Client
	logger *logger.Logger
	ttl    time.Duration // zero keeps entries until invalidated
}

// Init creates a new Casher with the provided Redis client, logger and entry ttl
func Init(client *redis.Client, logger *logger.Logger, ttl time.Duration) *Casher {
	return &Casher{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Dial parses a redis:// url and checks the server answers
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Casher) Close() error {
	return c.client.Close()
}

func (c *Casher) IsHealthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func (c *Casher) GetForm(ctx context.Context, formID string) (entity.FormDefinition, bool, error) {
	var form entity.FormDefinition
	found, err := c.get(ctx, fmt.Sprintf(FORM_KEY_TEMPLATE, formID), &form)
	return form, found, err
}

func (c *Casher) SetForm(ctx context.Context, form entity.FormDefinition) error {
	return c.set(ctx, fmt.Sprintf(FORM_KEY_TEMPLATE, form.ID), form)
}

func (c *Casher) GetResponses(ctx context.Context, formID string) ([]entity.Response, bool, error) {
	var list []entity.Response
	found, err := c.get(ctx, fmt.Sprintf(RESPONSES_KEY_TEMPLATE, formID), &list)
	if found && list == nil {
		list = []entity.Response{}
	}
	return list, found, err
}

func (c *Casher) SetResponses(ctx context.Context, formID string, responses []entity.Response) error {
	return c.set(ctx, fmt.Sprintf(RESPONSES_KEY_TEMPLATE, formID), responses)
}

func (c *Casher) InvalidateForm(ctx context.Context, formID string) error {
	return c.del(ctx, fmt.Sprintf(FORM_KEY_TEMPLATE, formID))
}

func (c *Casher) InvalidateResponses(ctx context.Context, formID string) error {
	return c.del(ctx, fmt.Sprintf(RESPONSES_KEY_TEMPLATE, formID))
}

func (c *Casher) set(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to encode payload for cache",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("failed to cash payload with",
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	return nil
}

// get decodes the value at key into out. A missing key is not an error.
func (c *Casher) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.logger.Error("error get cash",
			zap.String("key", key),
			zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("dropping undecodable cache entry",
			zap.String("key", key),
			zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *Casher) del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("error delete from redis",
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyNS = "stopover:job"

// RedisJobs stores jobs as JSON documents that expire after ttl.
type RedisJobs struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisJobs connects to redisURL and checks the connection.
func NewRedisJobs(redisURL string, ttl time.Duration) (*RedisJobs, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisJobsFromClient(c, ttl), nil
}

// NewRedisJobsFromClient wraps an existing client.
func NewRedisJobsFromClient(c *redis.Client, ttl time.Duration) *RedisJobs {
	return &RedisJobs{client: c, ttl: ttl}
}

func jobKey(id string) string { return fmt.Sprintf("%s:%s", keyNS, id) }

func (s *RedisJobs) Save(ctx context.Context, job *Job) error {
	b, err := encode(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobKey(job.ID), b, s.ttl).Err()
}

func (s *RedisJobs) Get(ctx context.Context, id string) (*Job, error) {
	b, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decode(id, b)
}

func (s *RedisJobs) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, jobKey(id)).Err()
}

func encode(job *Job) ([]byte, error) {
	b, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return b, nil
}

func decode(id string, b []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisJobs) Close() error { return s.client.Close() }

// Client returns the underlying Redis client
func (s *RedisJobs) Client() *redis.Client { return s.client }

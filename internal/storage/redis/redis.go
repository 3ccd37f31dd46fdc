package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"refpoints-bot/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Addr           string
	Password       string
	DB             int
	TTL            time.Duration
	ConnectTimeout time.Duration
}

// Storage keeps dialog state in Redis as JSON under "state:<user id>".
type Storage struct {
	client *redis.Client
	ttl    time.Duration
}

var _ storage.StateStore = (*Storage)(nil)

// New connects to Redis, retrying the initial ping with exponential backoff.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Storage, error) {
	const operation = "redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = opts.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to Redis...", zap.String("addr", opts.Addr))

	err := backoff.RetryNotify(
		func() error {
			return client.Ping(ctx).Err()
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Redis ping failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	logger.Info("Successfully connected to Redis")
	return NewWithClient(client, opts.TTL), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (s *Storage) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *Storage) Save(ctx context.Context, userID int64, state storage.UserState) error {
	const operation = "redis.Save"

	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%s: marshal state: %w", operation, err)
	}

	if err := s.client.Set(ctx, buildStateKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: save state: %w", operation, err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, userID int64) (storage.UserState, error) {
	const operation = "redis.Get"

	data, err := s.client.Get(ctx, buildStateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.UserState{}, nil
	}
	if err != nil {
		return storage.UserState{}, fmt.Errorf("%s: get state: %w", operation, err)
	}

	var state storage.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return storage.UserState{}, fmt.Errorf("%s: unmarshal failure: %w", operation, err)
	}
	return state, nil
}

func (s *Storage) Clear(ctx context.Context, userID int64) error {
	const operation = "redis.Clear"

	if err := s.client.Del(ctx, buildStateKey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: clear state: %w", operation, err)
	}
	return nil
}

func buildStateKey(userID int64) string {
	return fmt.Sprintf("state:%d", userID)
}

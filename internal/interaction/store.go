package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	userKeyPrefix = "interaction:user:"
	usersSetKey   = "interaction:users"
)

// Store persists sanitized interactions per user. Implementations must only
// ever see records that already passed the privacy pipeline.
type Store interface {
	Append(ctx context.Context, in UserInteraction) error
	ListRange(ctx context.Context, userID string, r TimeRange) ([]UserInteraction, error)
	PurgeBefore(ctx context.Context, userID string, cutoff time.Time) (int, error)
	PurgeUser(ctx context.Context, userID string) (int, error)
	Users(ctx context.Context) ([]string, error)
}

// RedisStore keeps each user's interactions in a sorted set scored by the
// capture timestamp, which makes range queries and retention purges single
// server-side operations.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("hearth.internal.interaction.store"),
	}
}

func userKey(userID string) string { return userKeyPrefix + userID }

func score(ts time.Time) float64 { return float64(ts.UnixMilli()) }

func (s *RedisStore) Append(ctx context.Context, in UserInteraction) error {
	if s == nil || s.redis == nil {
		return errors.New("interaction: redis store not configured")
	}
	if in.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("interaction: marshal record: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "interaction.store.append")
	defer span.End()

	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, userKey(in.UserID), redis.Z{Score: score(in.Timestamp), Member: data})
	pipe.SAdd(ctx, usersSetKey, in.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("interaction: append record: %w", err)
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, userID string, r TimeRange) ([]UserInteraction, error) {
	if s == nil || s.redis == nil {
		return nil, errors.New("interaction: redis store not configured")
	}

	ctx, span := s.tracer.Start(ctx, "interaction.store.list_range")
	defer span.End()

	min := "-inf"
	if !r.Start.IsZero() {
		min = strconv.FormatFloat(score(r.Start), 'f', -1, 64)
	}
	max := "+inf"
	if !r.End.IsZero() {
		max = strconv.FormatFloat(score(r.End), 'f', -1, 64)
	}

	raw, err := s.redis.ZRangeByScore(ctx, userKey(userID), &redis.ZRangeBy{Min: min, Max: max}).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []UserInteraction{}, nil
		}
		return nil, fmt.Errorf("interaction: list records: %w", err)
	}

	out := make([]UserInteraction, 0, len(raw))
	for _, item := range raw {
		var in UserInteraction
		if err := json.Unmarshal([]byte(item), &in); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// PurgeBefore removes every record older than cutoff. It is idempotent: a
// second call with the same cutoff removes nothing.
func (s *RedisStore) PurgeBefore(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	if s == nil || s.redis == nil {
		return 0, errors.New("interaction: redis store not configured")
	}

	ctx, span := s.tracer.Start(ctx, "interaction.store.purge_before")
	defer span.End()

	max := "(" + strconv.FormatFloat(score(cutoff), 'f', -1, 64)
	removed, err := s.redis.ZRemRangeByScore(ctx, userKey(userID), "-inf", max).Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("interaction: purge records: %w", err)
	}
	return int(removed), nil
}

// PurgeUser deletes all of a user's records and drops them from the sweep
// index.
func (s *RedisStore) PurgeUser(ctx context.Context, userID string) (int, error) {
	if s == nil || s.redis == nil {
		return 0, errors.New("interaction: redis store not configured")
	}

	ctx, span := s.tracer.Start(ctx, "interaction.store.purge_user")
	defer span.End()

	count, err := s.redis.ZCard(ctx, userKey(userID)).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return 0, fmt.Errorf("interaction: count records: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, userKey(userID))
	pipe.SRem(ctx, usersSetKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("interaction: purge user: %w", err)
	}
	return int(count), nil
}

// Users lists every user with stored interactions, for the retention sweep.
func (s *RedisStore) Users(ctx context.Context) ([]string, error) {
	if s == nil || s.redis == nil {
		return nil, errors.New("interaction: redis store not configured")
	}

	ctx, span := s.tracer.Start(ctx, "interaction.store.users")
	defer span.End()

	users, err := s.redis.SMembers(ctx, usersSetKey).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, fmt.Errorf("interaction: list users: %w", err)
	}
	return users, nil
}

package implementation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pdf-rag-be/internal/entity"
	"pdf-rag-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// Key layout. The existence marker and the three per-session keys expire
// independently around the same time; a session with no existence marker is
// expired regardless of any stale counter keys.
func sessionKey(id string) string       { return fmt.Sprintf("session:%s", id) }
func statusKey(id string) string        { return fmt.Sprintf("session:%s:status", id) }
func jobsTotalKey(id string) string     { return fmt.Sprintf("session:%s:jobsTotal", id) }
func jobsCompletedKey(id string) string { return fmt.Sprintf("session:%s:jobsCompleted", id) }

type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) contract.SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionId string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(sessionId)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Touch(ctx context.Context, sessionId string) error {
	key := sessionKey(sessionId)

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.rdb.Set(ctx, key, "1", s.ttl).Err()
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisSessionStore) GetStatus(ctx context.Context, sessionId string) (entity.SessionStatus, bool, error) {
	raw, err := s.rdb.Get(ctx, statusKey(sessionId)).Result()
	if err == redis.Nil {
		return entity.SessionStatusIdle, false, nil
	}
	if err != nil {
		return entity.SessionStatusIdle, false, err
	}

	status, err := entity.ParseSessionStatus(raw)
	if err != nil {
		return entity.SessionStatusIdle, false, err
	}
	return status, true, nil
}

func (s *RedisSessionStore) SetStatus(ctx context.Context, sessionId string, status entity.SessionStatus) error {
	return s.rdb.Set(ctx, statusKey(sessionId), status.String(), s.ttl).Err()
}

func (s *RedisSessionStore) SeedUpload(ctx context.Context, sessionId string, jobsTotal int) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, statusKey(sessionId), entity.SessionStatusIngesting.String(), s.ttl)
	pipe.Set(ctx, jobsTotalKey(sessionId), strconv.Itoa(jobsTotal), s.ttl)
	pipe.Set(ctx, jobsCompletedKey(sessionId), "0", s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) IncrCompleted(ctx context.Context, sessionId string) (int, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, jobsCompletedKey(sessionId))
	pipe.Expire(ctx, jobsCompletedKey(sessionId), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisSessionStore) GetJobsTotal(ctx context.Context, sessionId string) (int, error) {
	raw, err := s.rdb.Get(ctx, jobsTotalKey(sessionId)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt jobsTotal for session %s: %w", sessionId, err)
	}
	return total, nil
}

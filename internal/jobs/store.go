package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrBadTransition = errors.New("invalid job status transition")
)

// Store persists jobs for the polling endpoint. Implementations must
// reject transitions that CanTransition forbids.
type Store interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, j *Job) error
}

// -------------------- in-memory store --------------------

// MemoryStore keeps jobs in a map with lazy TTL eviction. Good enough
// for a single-process deployment and for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *MemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.ttl > 0 && time.Since(j.UpdatedAt) > s.ttl {
		delete(s.jobs, id)
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.jobs[j.ID]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(cur.Status, j.Status) {
		return ErrBadTransition
	}

	cp := *j
	cp.UpdatedAt = time.Now()
	s.jobs[j.ID] = &cp
	*j = cp
	return nil
}

// -------------------- redis store --------------------

const redisKeyPrefix = "treasuryroi:job:"

// RedisStore keeps jobs in Redis with a TTL, so polling survives
// process restarts and multiple API replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, j *Job) error {
	blob, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+j.ID, blob, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *RedisStore) Update(ctx context.Context, j *Job) error {
	cur, err := s.Get(ctx, j.ID)
	if err != nil {
		return err
	}
	if !CanTransition(cur.Status, j.Status) {
		return ErrBadTransition
	}

	j.UpdatedAt = time.Now()
	blob, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+j.ID, blob, s.ttl).Err()
}

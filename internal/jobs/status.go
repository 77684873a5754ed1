package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Task states.
const (
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// ErrUnknownTask is returned for ids that were never issued or have expired.
var ErrUnknownTask = errors.New("unknown task")

// Status is the lookup record for a dispatched job.
type Status struct {
	ID        string          `json:"task_id"`
	Kind      string          `json:"kind"`
	UserID    uint64          `json:"user_id,omitempty"`
	State     string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatusStore keeps job results for a limited time.
type StatusStore interface {
	Put(ctx context.Context, st Status) error
	Get(ctx context.Context, id string) (Status, error)
}

// RedisStatusStore shares results between the API and worker processes.
type RedisStatusStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStatusStore(rdb *redis.Client, ttl time.Duration) *RedisStatusStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStatusStore{rdb: rdb, prefix: "parking:job", ttl: ttl}
}

func (s *RedisStatusStore) Put(ctx context.Context, st Status) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+":"+st.ID, b, s.ttl).Err()
}

func (s *RedisStatusStore) Get(ctx context.Context, id string) (Status, error) {
	b, err := s.rdb.Get(ctx, s.prefix+":"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, ErrUnknownTask
	}
	if err != nil {
		return Status{}, err
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

// MemoryStatusStore is the single-process fallback when Redis is missing.
// Async results written by a separate worker are not visible through it.
type MemoryStatusStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Status
	now     func() time.Time
}

func NewMemoryStatusStore(ttl time.Duration) *MemoryStatusStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStatusStore{ttl: ttl, entries: map[string]Status{}, now: time.Now}
}

func (s *MemoryStatusStore) Put(_ context.Context, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.entries {
		if now.Sub(e.UpdatedAt) > s.ttl {
			delete(s.entries, id)
		}
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = now
	}
	s.entries[st.ID] = st
	return nil
}

func (s *MemoryStatusStore) Get(_ context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.entries[id]
	if !ok || s.now().Sub(st.UpdatedAt) > s.ttl {
		delete(s.entries, id)
		return Status{}, ErrUnknownTask
	}
	return st, nil
}

package artifact

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewMemoryStore 构建进程内产物存储。条目在 ttl 后过期，总量超过 capacity 时
// 淘汰最旧条目；两者共同保证内存占用有上界（重启即清空，无持久化）。
func NewMemoryStore(ttl time.Duration, capacity int) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, errors.New("artifact ttl must be positive")
	}
	if capacity <= 0 {
		return nil, errors.New("artifact capacity must be positive")
	}
	return &MemoryStore{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}, nil
}

// MemoryStore 是 Store 的有界内存实现，按插入顺序淘汰。
type MemoryStore struct {
	ttl      time.Duration
	capacity int

	mu      sync.Mutex
	entries map[string]memoryEntry
	order   []string
	now     func() time.Time
}

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// Put 以随机 UUID 为标识符保存产物。UUID 由 crypto/rand 驱动，进程生命周期内
// 不会碰撞，也不可预测。
func (s *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	stored := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	for len(s.order) >= s.capacity {
		s.evictOldestLocked()
	}

	s.entries[id] = memoryEntry{data: stored, storedAt: s.now()}
	s.order = append(s.order, id)
	return id, nil
}

// Get 返回产物字节的副本；未知或过期的标识符返回 ErrNotFound。
func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expiredLocked(entry) {
		s.removeLocked(id)
		return nil, ErrNotFound
	}

	return append([]byte(nil), entry.data...), nil
}

func (s *MemoryStore) expiredLocked(entry memoryEntry) bool {
	return s.now().Sub(entry.storedAt) > s.ttl
}

func (s *MemoryStore) pruneLocked() {
	kept := s.order[:0]
	for _, id := range s.order {
		entry, ok := s.entries[id]
		if ok && !s.expiredLocked(entry) {
			kept = append(kept, id)
			continue
		}
		delete(s.entries, id)
	}
	s.order = kept
}

func (s *MemoryStore) evictOldestLocked() {
	if len(s.order) == 0 {
		return
	}
	oldest := s.order[0]
	s.order = s.order[1:]
	delete(s.entries, oldest)
}

func (s *MemoryStore) removeLocked(id string) {
	delete(s.entries, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

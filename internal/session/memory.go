package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/n1rocket/go-profile-validity/internal/domain"
)

// MemoryStore keeps notices in process. Sessions expire after ttl and the
// least recently used sessions are evicted beyond size.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, map[string]Message]
}

// NewMemoryStore creates an in-process store
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 10000
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, map[string]Message](size, nil, ttl),
	}
}

// Append implements Store
func (s *MemoryStore) Append(_ context.Context, sid string, notice domain.Notice) (Message, error) {
	if sid == "" {
		return Message{}, ErrNoSession
	}

	msg := NewMessage(notice)

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, ok := s.cache.Get(sid)
	if !ok {
		msgs = make(map[string]Message)
	}
	msgs[msg.ID] = msg
	s.cache.Add(sid, msgs)

	return msg, nil
}

// Drain implements Store
func (s *MemoryStore) Drain(_ context.Context, sid string) ([]Message, error) {
	if sid == "" {
		return nil, ErrNoSession
	}

	s.mu.Lock()
	msgs, ok := s.cache.Get(sid)
	if ok {
		s.cache.Remove(sid)
	}
	s.mu.Unlock()

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m)
	}
	sortMessages(out)
	return out, nil
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

var _ Store = (*MemoryStore)(nil)

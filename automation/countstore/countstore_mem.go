package countstore

import (
	"context"
	"strings"
	"sync"
)

// MemCountStore keeps counts in process memory. Counts do not survive a
// restart, so a restart mid-day can allow up to a full day's cap again; runs
// that need stronger accounting configure the Redis store.
type MemCountStore struct {
	mu     sync.Mutex
	counts map[string]int
}

var _ CountStore = (*MemCountStore)(nil)

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		counts: make(map[string]int),
	}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[bucketKey(name, day)], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(name, day)
	s.counts[bucketKey(name, day)]++
	return nil
}

func (s *MemCountStore) TryReserve(ctx context.Context, name, day string, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(name, day)
	k := bucketKey(name, day)
	if s.counts[k] >= limit {
		return false, nil
	}
	s.counts[k]++
	return true, nil
}

func (s *MemCountStore) Release(ctx context.Context, name, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := bucketKey(name, day)
	if s.counts[k] > 0 {
		s.counts[k]--
	}
	return nil
}

// pruneLocked drops this action's buckets for other days, so the map never
// grows past one bucket per action name.
func (s *MemCountStore) pruneLocked(name, day string) {
	prefix := name + "/"
	current := bucketKey(name, day)
	for k := range s.counts {
		if strings.HasPrefix(k, prefix) && k != current {
			delete(s.counts, k)
		}
	}
}

package historyarchive

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
)

const defaultMemoryLocations = 256

// MemoryStore keeps series for the most recently used locations in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, map[string]int]
}

// NewMemoryStore bounds the archive to size locations.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = defaultMemoryLocations
	}
	cache, err := lru.New[string, map[string]int](size)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Load implements historical.Archive.
func (s *MemoryStore) Load(_ context.Context, locationKey string, from, to time.Time) ([]historical.ArchivedPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.cache.Get(locationKey)
	if !ok {
		return nil, nil
	}
	var out []historical.ArchivedPoint
	for d := dayOf(from); !d.After(dayOf(to)); d = d.AddDate(0, 0, 1) {
		if aqi, ok := days[d.Format(dayLayout)]; ok {
			out = append(out, historical.ArchivedPoint{Day: d, AQI: aqi})
		}
	}
	return out, nil
}

// Save implements historical.Archive. Existing days are kept.
func (s *MemoryStore) Save(_ context.Context, locationKey string, points []historical.ArchivedPoint) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.cache.Get(locationKey)
	if !ok {
		days = make(map[string]int, len(points))
	}
	for _, p := range points {
		key := dayOf(p.Day).Format(dayLayout)
		if _, exists := days[key]; !exists {
			days[key] = p.AQI
		}
	}
	s.cache.Add(locationKey, days)
	return nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	cut := dayOf(cutoff).Format(dayLayout)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, key := range s.cache.Keys() {
		days, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		for day := range days {
			if day < cut {
				delete(days, day)
				removed++
			}
		}
		if len(days) == 0 {
			s.cache.Remove(key)
		}
	}
	return removed, nil
}

// Close drops every archived series.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

var _ Store = (*MemoryStore)(nil)

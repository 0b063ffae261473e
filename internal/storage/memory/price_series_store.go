package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

// PriceSeriesStore is an in-memory implementation of storage.PriceSeriesStore.
type PriceSeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePoint // keyed by (series_id, timestamp_ms)
}

// NewPriceSeriesStore creates a new in-memory price series store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{
		data: make(map[string]*domain.PricePoint),
	}
}

func priceKey(seriesID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", seriesID, timestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PriceSeriesStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))

	// First pass: validate and check duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.SeriesID == "" || p.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		key := priceKey(p.SeriesID, p.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[priceKey(p.SeriesID, p.TimestampMs)] = &pointCopy
	}

	return nil
}

// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
func (s *PriceSeriesStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.PricePoint, error) {
	return s.filter(func(p *domain.PricePoint) bool {
		return p.SeriesID == seriesID
	}), nil
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByTimeRange(_ context.Context, seriesID string, start, end int64) ([]*domain.PricePoint, error) {
	return s.filter(func(p *domain.PricePoint) bool {
		return p.SeriesID == seriesID && p.TimestampMs >= start && p.TimestampMs <= end
	}), nil
}

// ListSeries returns the distinct series IDs in sorted order.
func (s *PriceSeriesStore) ListSeries(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.data {
		seen[p.SeriesID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *PriceSeriesStore) filter(match func(*domain.PricePoint) bool) []*domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if match(p) {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

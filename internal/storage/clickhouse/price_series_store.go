package clickhouse

import (
	"context"
	"fmt"
	"time"

	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

// PriceSeriesStore implements storage.PriceSeriesStore using ClickHouse.
type PriceSeriesStore struct {
	conn *Conn
}

// NewPriceSeriesStore creates a new PriceSeriesStore.
func NewPriceSeriesStore(conn *Conn) *PriceSeriesStore {
	return &PriceSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are checked before the insert.
func (s *PriceSeriesStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) (err error) {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		seriesID    string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.SeriesID == "" || p.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.SeriesID, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	defer func(start time.Time) { observe("insert_price_points", start, err) }(time.Now())

	for _, p := range points {
		exists, err := s.exists(ctx, p.SeriesID, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_series (series_id, timestamp_ms, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.SeriesID, uint64(p.TimestampMs), p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
func (s *PriceSeriesStore) GetBySeries(ctx context.Context, seriesID string) (points []*domain.PricePoint, err error) {
	defer func(start time.Time) { observe("get_price_series", start, err) }(time.Now())

	query := `
		SELECT series_id, timestamp_ms, value
		FROM price_series
		WHERE series_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query by series id: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) (points []*domain.PricePoint, err error) {
	defer func(t time.Time) { observe("get_price_range", t, err) }(time.Now())

	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT series_id, timestamp_ms, value
		FROM price_series
		WHERE series_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// ListSeries returns the distinct series ids, sorted.
func (s *PriceSeriesStore) ListSeries(ctx context.Context) (ids []string, err error) {
	defer func(start time.Time) { observe("list_price_series", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, `SELECT DISTINCT series_id FROM price_series ORDER BY series_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query series ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan series id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series ids: %w", err)
	}
	return ids, nil
}

func (s *PriceSeriesStore) exists(ctx context.Context, seriesID string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_series
		WHERE series_id = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, seriesID, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanPricePoints(rows chRows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var timestampMs uint64

		if err := rows.Scan(&p.SeriesID, &timestampMs, &p.Value); err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}
	return points, nil
}

package storage

import (
	"context"

	"index-dashboard/internal/domain"
)

// PriceSeriesStore provides access to price_series storage.
type PriceSeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.PricePoint, error)

	// ListSeries returns the distinct series IDs in sorted order.
	ListSeries(ctx context.Context) ([]string, error)
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.TransactionRecord) error

	// UpdateStatus moves a record to status, setting hash and error when non-empty.
	// Returns ErrNotFound if id does not exist and ErrInvalidInput if the record is final.
	UpdateStatus(ctx context.Context, id string, status domain.TxStatus, txHash, errMsg string, updatedAt int64) error

	// GetByID retrieves a record by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.TransactionRecord, error)

	// GetByHash retrieves a record by transaction hash. Returns ErrNotFound if not exists.
	GetByHash(ctx context.Context, txHash string) (*domain.TransactionRecord, error)

	// ListByAddress retrieves records sent from address, newest first.
	ListByAddress(ctx context.Context, from string) ([]*domain.TransactionRecord, error)
}

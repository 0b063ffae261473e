package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

const transactionColumns = `id, kind, tx_hash, from_address, to_address, amount, status, error, created_at, updated_at`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *TransactionStore) Insert(ctx context.Context, r *domain.TransactionRecord) (err error) {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_transaction", start, err) }(time.Now())

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID,
		string(r.Kind),
		r.TxHash,
		r.From,
		r.To,
		r.Amount,
		string(r.Status),
		r.Error,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		if serr := storageError(err); serr != nil {
			return serr
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateStatus moves a non-final record to status.
func (s *TransactionStore) UpdateStatus(ctx context.Context, id string, status domain.TxStatus, txHash, errMsg string, updatedAt int64) (err error) {
	defer func(start time.Time) { observe("update_transaction", start, err) }(time.Now())

	query := `
		UPDATE transactions
		SET status = $2,
			tx_hash = CASE WHEN $3::text = '' THEN tx_hash ELSE $3::text END,
			error = CASE WHEN $4::text = '' THEN error ELSE $4::text END,
			updated_at = $5
		WHERE id = $1 AND status NOT IN ('CONFIRMED', 'FAILED')
	`

	tag, err := s.pool.Exec(ctx, query, id, string(status), txHash, errMsg, updatedAt)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish unknown id from a record that is already final.
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check transaction exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidInput
}

// GetByID retrieves a record by ID. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(ctx context.Context, id string) (r *domain.TransactionRecord, err error) {
	defer func(start time.Time) { observe("get_transaction", start, err) }(time.Now())

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	r, err = scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(storageError(err), storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return r, nil
}

// GetByHash retrieves a record by transaction hash (case-insensitive).
func (s *TransactionStore) GetByHash(ctx context.Context, txHash string) (r *domain.TransactionRecord, err error) {
	defer func(start time.Time) { observe("get_transaction_by_hash", start, err) }(time.Now())

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tx_hash <> '' AND lower(tx_hash) = lower($1)
		ORDER BY created_at DESC
		LIMIT 1
	`

	r, err = scanTransaction(s.pool.QueryRow(ctx, query, txHash))
	if err != nil {
		if errors.Is(storageError(err), storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by hash: %w", err)
	}
	return r, nil
}

// ListByAddress retrieves records sent from address, newest first.
func (s *TransactionStore) ListByAddress(ctx context.Context, from string) (records []*domain.TransactionRecord, err error) {
	defer func(start time.Time) { observe("list_transactions", start, err) }(time.Now())

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE lower(from_address) = lower($1)
		ORDER BY created_at DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("query transactions by address: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return records, nil
}

// scanTransaction scans a single row into TransactionRecord.
func scanTransaction(row pgx.Row) (*domain.TransactionRecord, error) {
	var r domain.TransactionRecord
	var kind, status string

	err := row.Scan(
		&r.ID,
		&kind,
		&r.TxHash,
		&r.From,
		&r.To,
		&r.Amount,
		&status,
		&r.Error,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.TxKind(kind)
	r.Status = domain.TxStatus(status)
	return &r, nil
}

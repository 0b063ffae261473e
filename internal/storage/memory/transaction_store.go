package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransactionRecord // keyed by id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.TransactionRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *TransactionStore) Insert(_ context.Context, r *domain.TransactionRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	recordCopy := *r
	s.data[r.ID] = &recordCopy
	return nil
}

// UpdateStatus moves a record to status.
func (s *TransactionStore) UpdateStatus(_ context.Context, id string, status domain.TxStatus, txHash, errMsg string, updatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[id]
	if !ok {
		return storage.ErrNotFound
	}
	if r.Status.IsFinal() {
		return storage.ErrInvalidInput
	}

	r.Status = status
	if txHash != "" {
		r.TxHash = txHash
	}
	if errMsg != "" {
		r.Error = errMsg
	}
	r.UpdatedAt = updatedAt
	return nil
}

// GetByID retrieves a record by ID.
func (s *TransactionStore) GetByID(_ context.Context, id string) (*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// GetByHash retrieves a record by transaction hash (case-insensitive).
func (s *TransactionStore) GetByHash(_ context.Context, txHash string) (*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data {
		if r.TxHash != "" && strings.EqualFold(r.TxHash, txHash) {
			recordCopy := *r
			return &recordCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListByAddress retrieves records sent from address, newest first.
func (s *TransactionStore) ListByAddress(_ context.Context, from string) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransactionRecord
	for _, r := range s.data {
		if strings.EqualFold(r.From, from) {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

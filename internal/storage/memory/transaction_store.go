package memory

import (
	"context"
	"sort"
	"sync"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]domain.Transaction // keyed by transaction id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]domain.Transaction),
	}
}

// LoadAll returns all transactions ordered by (time ASC, id ASC).
func (s *TransactionStore) LoadAll(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// ReplaceAll swaps the dataset. Nothing changes on validation failure.
func (s *TransactionStore) ReplaceAll(_ context.Context, txs []domain.Transaction) error {
	if err := storage.ValidateTransactions(txs); err != nil {
		return err
	}

	data := make(map[string]domain.Transaction, len(txs))
	for _, t := range txs {
		data[t.ID] = t
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	return nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

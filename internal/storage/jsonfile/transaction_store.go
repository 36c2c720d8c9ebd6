package jsonfile

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

// TransactionStore keeps the dataset in <dir>/transactions.json.
type TransactionStore struct {
	mu   sync.Mutex
	path string
}

// NewTransactionStore creates a store rooted at dir.
func NewTransactionStore(dir string) *TransactionStore {
	return &TransactionStore{path: filepath.Join(dir, TransactionsFile)}
}

// LoadAll returns the stored dataset ordered by time ASC.
// A missing file yields an empty dataset.
func (s *TransactionStore) LoadAll(_ context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txs []domain.Transaction
	if err := readJSON(s.path, &txs); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []domain.Transaction{}, nil
		}
		return nil, err
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Time < txs[j].Time
	})
	return txs, nil
}

// ReplaceAll rewrites the file with txs.
func (s *TransactionStore) ReplaceAll(_ context.Context, txs []domain.Transaction) error {
	if err := storage.ValidateTransactions(txs); err != nil {
		return err
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.path, txs)
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

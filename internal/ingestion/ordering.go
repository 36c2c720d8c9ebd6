package ingestion

import (
	"errors"
	"sort"

	"algo-payout-lab/internal/domain"
)

// ErrInvalidOrdering is returned when transactions are not properly ordered.
var ErrInvalidOrdering = errors.New("transactions are not in deterministic order")

// SortTransactions orders transactions by (time ASC, id ASC).
func SortTransactions(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return compareTransactions(txs[i], txs[j]) < 0
	})
}

// ValidateOrdering checks that txs are strictly ordered by (time, id).
// Returns ErrInvalidOrdering if not.
func ValidateOrdering(txs []domain.Transaction) error {
	for i := 1; i < len(txs); i++ {
		if compareTransactions(txs[i-1], txs[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// Merge combines previous and fetched by ID. Fetched records replace
// previous ones with the same ID. The result is sorted and truncated to
// maxRows (no limit when maxRows <= 0).
func Merge(previous, fetched []domain.Transaction, maxRows int) []domain.Transaction {
	byID := make(map[string]domain.Transaction, len(previous)+len(fetched))
	for _, tx := range previous {
		byID[tx.ID] = tx
	}
	for _, tx := range fetched {
		byID[tx.ID] = tx
	}

	merged := make([]domain.Transaction, 0, len(byID))
	for _, tx := range byID {
		merged = append(merged, tx)
	}
	SortTransactions(merged)

	if maxRows > 0 && len(merged) > maxRows {
		merged = merged[:maxRows]
	}
	return merged
}

// compareTransactions returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (time ASC, id ASC)
func compareTransactions(a, b domain.Transaction) int {
	if a.Time != b.Time {
		if a.Time < b.Time {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}

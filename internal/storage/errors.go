package storage

import (
	"errors"
	"fmt"

	"algo-payout-lab/internal/domain"
)

// Storage errors.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorrupt is returned when persisted data cannot be decoded.
	ErrCorrupt = errors.New("corrupt data")
)

// ValidateTransactions checks that every transaction has a non-empty, unique ID.
func ValidateTransactions(txs []domain.Transaction) error {
	seen := make(map[string]struct{}, len(txs))
	for i, t := range txs {
		if t.ID == "" {
			return fmt.Errorf("%w: transaction %d has empty id", ErrInvalidInput, i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate transaction id %s", ErrInvalidInput, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

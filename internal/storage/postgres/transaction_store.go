package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

// TransactionStore is a PostgreSQL implementation of storage.TransactionStore.
// Decimals travel as text and are cast to NUMERIC server-side.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new PostgreSQL transaction store.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// LoadAll returns the dataset ordered by (time ASC, id ASC).
func (s *TransactionStore) LoadAll(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, time, sender, amount::text, price::text, value::text
		FROM payments
		ORDER BY time ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var (
			t            domain.Transaction
			amount       string
			price, value *string
		)
		if err := rows.Scan(&t.ID, &t.Time, &t.Sender, &amount, &price, &value); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: payment %s amount: %v", storage.ErrCorrupt, t.ID, err)
		}
		if t.Price, err = parseNullDecimal(price); err != nil {
			return nil, fmt.Errorf("%w: payment %s price: %v", storage.ErrCorrupt, t.ID, err)
		}
		if t.Value, err = parseNullDecimal(value); err != nil {
			return nil, fmt.Errorf("%w: payment %s value: %v", storage.ErrCorrupt, t.ID, err)
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return txs, nil
}

// ReplaceAll deletes the current dataset and inserts txs in one transaction.
func (s *TransactionStore) ReplaceAll(ctx context.Context, txs []domain.Transaction) error {
	if err := storage.ValidateTransactions(txs); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM payments`); err != nil {
			return fmt.Errorf("clear payments: %w", err)
		}
		if len(txs) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, t := range txs {
			batch.Queue(`
				INSERT INTO payments (id, time, sender, amount, price, value, updated_at)
				VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, NOW())
			`, t.ID, t.Time, t.Sender, t.Amount.String(), nullDecimalText(t.Price), nullDecimalText(t.Value))
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert payments: %w", err)
		}
		return nil
	})
}

func nullDecimalText(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

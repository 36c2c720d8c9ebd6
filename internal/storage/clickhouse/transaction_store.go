package clickhouse

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore on ClickHouse.
//
// Every ReplaceAll writes a new snapshot under version = latest+1 and then
// records the version in enriched_payment_versions. Readers only see a
// snapshot once its version row exists, so a failed write leaves the
// previous snapshot current. Older snapshots stay queryable for analytics.
type TransactionStore struct {
	conn *Conn
	mu   sync.Mutex // serializes version allocation within the process
}

// NewTransactionStore creates a new ClickHouse transaction store.
func NewTransactionStore(conn *Conn) *TransactionStore {
	return &TransactionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// LoadAll returns the latest snapshot ordered by (time ASC, id ASC).
func (s *TransactionStore) LoadAll(ctx context.Context) ([]domain.Transaction, error) {
	version, err := s.latestVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return []domain.Transaction{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, time, sender, amount, price, value
		FROM enriched_payments
		WHERE version = ?
		ORDER BY time ASC, id ASC
	`, version)
	if err != nil {
		return nil, fmt.Errorf("query enriched payments: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ReplaceAll writes txs as a new snapshot.
func (s *TransactionStore) ReplaceAll(ctx context.Context, txs []domain.Transaction) error {
	if err := storage.ValidateTransactions(txs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}
	version := latest + 1

	if len(txs) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO enriched_payments (version, id, time, sender, amount, price, value)
		`)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}

		for _, t := range txs {
			err = batch.Append(
				version, t.ID, t.Time, t.Sender,
				t.Amount, nullablePtr(t.Price), nullablePtr(t.Value),
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}

		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}

	if err := s.conn.Exec(ctx, `
		INSERT INTO enriched_payment_versions (version, row_count) VALUES (?, ?)
	`, version, uint32(len(txs))); err != nil {
		return fmt.Errorf("record version %d: %w", version, err)
	}

	return nil
}

// latestVersion returns the newest committed snapshot version, 0 if none.
func (s *TransactionStore) latestVersion(ctx context.Context) (uint64, error) {
	var version uint64
	err := s.conn.QueryRow(ctx, `SELECT max(version) FROM enriched_payment_versions`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

func nullablePtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// scanTransactions scans multiple rows.
func scanTransactions(rows chRows) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		var price, value *decimal.Decimal

		if err := rows.Scan(&t.ID, &t.Time, &t.Sender, &t.Amount, &price, &value); err != nil {
			return nil, fmt.Errorf("scan enriched payment row: %w", err)
		}
		if price != nil {
			t.Price = decimal.NullDecimal{Decimal: *price, Valid: true}
		}
		if value != nil {
			t.Value = decimal.NullDecimal{Decimal: *value, Valid: true}
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enriched payment rows: %w", err)
	}

	return txs, nil
}

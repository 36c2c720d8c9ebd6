package domain

import (
	"github.com/shopspring/decimal"
)

// Transaction represents a single outgoing payment from a tracked account.
// Price and Value are set only on enriched copies.
type Transaction struct {
	ID     string              `json:"id"`
	Time   int64               `json:"time"`   // Unix timestamp (seconds, UTC)
	Sender string              `json:"sender"` // source account address
	Amount decimal.Decimal     `json:"amount"` // ALGO
	Price  decimal.NullDecimal `json:"price"`  // USD per ALGO at Time
	Value  decimal.NullDecimal `json:"value"`  // Amount * Price, USD
}

// AmountFromMicroalgos converts an integer amount in microalgos to ALGO.
func AmountFromMicroalgos(micro uint64) decimal.Decimal {
	return decimal.New(int64(micro), -6)
}

// HasPrice reports whether the transaction carries a resolved price.
func (t Transaction) HasPrice() bool {
	return t.Price.Valid
}

// WithPrice returns a copy carrying price and the derived USD value.
func (t Transaction) WithPrice(price decimal.Decimal) Transaction {
	t.Price = decimal.NullDecimal{Decimal: price, Valid: true}
	t.Value = decimal.NullDecimal{Decimal: t.Amount.Mul(price), Valid: true}
	return t
}

// WithoutPrice returns a copy with price and value cleared.
func (t Transaction) WithoutPrice() Transaction {
	t.Price = decimal.NullDecimal{}
	t.Value = decimal.NullDecimal{}
	return t
}

// MaxTime returns the latest timestamp in txs, or def when txs is empty.
func MaxTime(txs []Transaction, def int64) int64 {
	if len(txs) == 0 {
		return def
	}
	max := txs[0].Time
	for _, t := range txs[1:] {
		if t.Time > max {
			max = t.Time
		}
	}
	return max
}

package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"algo-payout-lab/internal/domain"
)

// Report is the payout report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RangeStart  int64 // Unix seconds of the earliest payment, 0 when empty
	RangeEnd    int64 // Unix seconds of the latest payment, 0 when empty

	// Totals over the whole dataset
	Summary domain.Summary

	// Calendar months (UTC) that have at least one payment, ascending
	Monthly []MonthRow

	// One row per sender, sorted by sender address
	Senders []SenderRow

	// Payments in stored order
	Transactions []domain.Transaction
}

// MonthRow aggregates one calendar month.
type MonthRow struct {
	Month       string // YYYY-MM
	Count       int
	Priced      int
	TotalAmount decimal.Decimal
	TotalValue  decimal.Decimal
}

// SenderRow aggregates one sender account.
type SenderRow struct {
	Sender  string
	Summary domain.Summary
}

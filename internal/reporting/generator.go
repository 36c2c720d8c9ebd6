package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	store storage.TransactionStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.TransactionStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report over the persisted dataset.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	txs, err := g.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return Build(txs, g.now()), nil
}

// Build computes a report over txs.
func Build(txs []domain.Transaction, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt:  generatedAt,
		Summary:      domain.Summarize(txs),
		Monthly:      MonthlyTotals(txs),
		Senders:      senderRows(txs),
		Transactions: txs,
	}
	if len(txs) > 0 {
		r.RangeStart, r.RangeEnd = txs[0].Time, txs[0].Time
		for _, tx := range txs[1:] {
			if tx.Time < r.RangeStart {
				r.RangeStart = tx.Time
			}
			if tx.Time > r.RangeEnd {
				r.RangeEnd = tx.Time
			}
		}
	}
	return r
}

// MonthlyTotals groups txs by UTC calendar month.
// Unpriced payments count toward the amount but not the value.
func MonthlyTotals(txs []domain.Transaction) []MonthRow {
	byMonth := make(map[string]*MonthRow)
	for _, tx := range txs {
		key := time.Unix(tx.Time, 0).UTC().Format("2006-01")
		row, ok := byMonth[key]
		if !ok {
			row = &MonthRow{Month: key, TotalAmount: decimal.Zero, TotalValue: decimal.Zero}
			byMonth[key] = row
		}
		row.Count++
		row.TotalAmount = row.TotalAmount.Add(tx.Amount)
		if tx.Value.Valid {
			row.Priced++
			row.TotalValue = row.TotalValue.Add(tx.Value.Decimal)
		}
	}

	rows := make([]MonthRow, 0, len(byMonth))
	for _, row := range byMonth {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

func senderRows(txs []domain.Transaction) []SenderRow {
	bySender := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		bySender[tx.Sender] = append(bySender[tx.Sender], tx)
	}

	rows := make([]SenderRow, 0, len(bySender))
	for sender, group := range bySender {
		rows = append(rows, SenderRow{Sender: sender, Summary: domain.Summarize(group)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sender < rows[j].Sender })
	return rows
}

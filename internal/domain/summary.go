package domain

import "github.com/shopspring/decimal"

// Summary aggregates an enriched transaction set for presentation.
type Summary struct {
	Count       int             `json:"count"`
	Priced      int             `json:"priced"`
	TotalAmount decimal.Decimal `json:"total_amount"` // ALGO
	TotalValue  decimal.Decimal `json:"total_value"`  // USD
	AverageRate decimal.Decimal `json:"average_rate"` // USD per ALGO
}

// Summarize computes totals over txs.
// Transactions without a price add to TotalAmount but not to TotalValue,
// so AverageRate is value-weighted over the whole set.
// AverageRate is zero when TotalValue is not positive.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		Count:       len(txs),
		TotalAmount: decimal.Zero,
		TotalValue:  decimal.Zero,
		AverageRate: decimal.Zero,
	}
	for _, t := range txs {
		s.TotalAmount = s.TotalAmount.Add(t.Amount)
		if t.Value.Valid {
			s.TotalValue = s.TotalValue.Add(t.Value.Decimal)
			s.Priced++
		}
	}
	if s.TotalValue.IsPositive() && !s.TotalAmount.IsZero() {
		s.AverageRate = s.TotalValue.DivRound(s.TotalAmount, 8)
	}
	return s
}

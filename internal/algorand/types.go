package algorand

import (
	"context"
	"time"
)

// Indexer lists payment transactions from an Algorand indexer.
type Indexer interface {
	// SearchPayments returns one page of pay transactions matching q.
	// A non-2xx response is returned as *SourceFetchError.
	SearchPayments(ctx context.Context, q PaymentQuery) (*PaymentPage, error)
}

// Address roles accepted by the indexer.
const (
	RoleSender   = "sender"
	RoleReceiver = "receiver"
)

// PaymentQuery filters pay transactions for one address.
type PaymentQuery struct {
	Address string
	Role    string    // RoleSender when empty
	After   time.Time // exclusive lower bound (indexer after-time)
	Before  time.Time // exclusive upper bound (indexer before-time)
	Limit   int
	Next    string // continuation token from the previous page
}

// PaymentPage is one page of results.
type PaymentPage struct {
	Transactions []RawTransaction
	NextToken    string // empty when there are no more pages
}

// RawTransaction is the subset of an indexer transaction we consume.
type RawTransaction struct {
	ID        string          `json:"id"`
	RoundTime int64           `json:"round-time"`
	Sender    string          `json:"sender"`
	Payment   *PaymentDetails `json:"payment-transaction"`
}

// PaymentDetails holds pay-specific fields.
type PaymentDetails struct {
	Amount   uint64 `json:"amount"` // microalgos
	Receiver string `json:"receiver"`
}

// Microalgos returns the payment amount, zero when the payment section is absent.
func (t RawTransaction) Microalgos() uint64 {
	if t.Payment == nil {
		return 0
	}
	return t.Payment.Amount
}

// searchResponse is the raw indexer response for /v2/transactions.
type searchResponse struct {
	CurrentRound int64            `json:"current-round"`
	NextToken    string           `json:"next-token"`
	Transactions []RawTransaction `json:"transactions"`
}

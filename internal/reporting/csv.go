package reporting

import (
	"fmt"
	"strings"
	"time"

	"algo-payout-lab/internal/domain"
)

// CSVHeader is the first line of RenderCSV output.
const CSVHeader = "ID,Date (UTC),Wallet,Sold Amount (ALGO),USD Value,Rate (USD/ALGO)"

// RenderCSV renders payments as CSV string.
// Unknown price and value are written as empty fields.
func RenderCSV(txs []domain.Transaction) string {
	var sb strings.Builder

	// Header
	sb.WriteString(CSVHeader)
	sb.WriteString("\n")

	// Rows
	for _, tx := range txs {
		value, price := "", ""
		if tx.HasPrice() {
			value = tx.Value.Decimal.String()
			price = tx.Price.Decimal.String()
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s\n",
			tx.ID,
			time.Unix(tx.Time, 0).UTC().Format("2006-01-02T15:04:05.000Z"),
			tx.Sender,
			tx.Amount.String(),
			value,
			price,
		))
	}

	return sb.String()
}

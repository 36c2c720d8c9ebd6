package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Payout Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Summary.Count > 0 {
		sb.WriteString(fmt.Sprintf("Range: %s to %s\n\n",
			time.Unix(r.RangeStart, 0).UTC().Format(time.RFC3339),
			time.Unix(r.RangeEnd, 0).UTC().Format(time.RFC3339)))
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Payments | %d |\n", r.Summary.Count))
	sb.WriteString(fmt.Sprintf("| Priced | %d |\n", r.Summary.Priced))
	sb.WriteString(fmt.Sprintf("| Total ALGO | %s |\n", r.Summary.TotalAmount.StringFixed(6)))
	sb.WriteString(fmt.Sprintf("| Total USD | %s |\n", r.Summary.TotalValue.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg USD/ALGO | %s |\n", r.Summary.AverageRate.StringFixed(4)))
	sb.WriteString("\n")

	// Monthly
	sb.WriteString("## Monthly Totals\n\n")
	if len(r.Monthly) > 0 {
		sb.WriteString("| Month | Payments | Priced | ALGO | USD |\n")
		sb.WriteString("|-------|----------|--------|------|-----|\n")
		for _, m := range r.Monthly {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
				m.Month, m.Count, m.Priced, m.TotalAmount.StringFixed(6), m.TotalValue.StringFixed(2)))
		}
	} else {
		sb.WriteString("No payments.\n")
	}
	sb.WriteString("\n")

	// Senders
	sb.WriteString("## Senders\n\n")
	if len(r.Senders) > 0 {
		sb.WriteString("| Sender | Payments | ALGO | USD | Avg USD/ALGO |\n")
		sb.WriteString("|--------|----------|------|-----|--------------|\n")
		for _, s := range r.Senders {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				s.Sender, s.Summary.Count, s.Summary.TotalAmount.StringFixed(6),
				s.Summary.TotalValue.StringFixed(2), s.Summary.AverageRate.StringFixed(4)))
		}
	} else {
		sb.WriteString("No senders.\n")
	}
	sb.WriteString("\n")

	// Unpriced payments
	var unpriced []string
	for _, tx := range r.Transactions {
		if !tx.HasPrice() {
			unpriced = append(unpriced, tx.ID)
		}
	}
	if len(unpriced) > 0 {
		sb.WriteString("## Unpriced Payments\n\n")
		for _, id := range unpriced {
			sb.WriteString(fmt.Sprintf("- %s\n", id))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

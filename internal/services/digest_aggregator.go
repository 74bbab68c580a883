package services

import (
	"fmt"

	"spendwise/internal/core"
)

// DigestSummary is one user's spend over a week, grouped by category label.
type DigestSummary struct {
	Week      core.Period
	Total     core.Money
	Breakdown map[string]core.Money
	Count     int
}

// AggregateDigest sums expenses and groups them by category label in a single
// pass. ok is false when there is nothing to report.
func AggregateDigest(expenses []core.Expense, week core.Period) (summary DigestSummary, ok bool) {
	if len(expenses) == 0 {
		return DigestSummary{Week: week}, false
	}

	summary = DigestSummary{
		Week:      week,
		Breakdown: make(map[string]core.Money),
		Count:     len(expenses),
	}
	for _, e := range expenses {
		summary.Total = summary.Total.Add(e.Amount)
		label := e.CategoryLabel()
		summary.Breakdown[label] = summary.Breakdown[label].Add(e.Amount)
	}
	return summary, true
}

func DigestMessage(total core.Money) string {
	return fmt.Sprintf("You spent %s this week.", total.Dollars())
}

package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"spendwise/internal/core"
)

// Ports for outbound adapters.
type (
	DigestExporter interface {
		ExportDigest(ctx context.Context, user core.User, d core.WeeklyDigest) (rowRef string, err error)
	}

	AlertExporter interface {
		ExportAlert(ctx context.Context, user core.User, a core.BudgetAlert) (rowRef string, err error)
	}

	Exporter interface {
		DigestExporter
		AlertExporter
	}
)

const dateLayout = "2006-01-02"

// DigestRow renders a digest as
// [week_start, week_end, user_email, total, breakdown, message].
func DigestRow(user core.User, d core.WeeklyDigest) []any {
	return []any{
		d.WeekStart.Format(dateLayout),
		d.WeekEnd.Format(dateLayout),
		user.Email,
		d.TotalSpent.String(),
		FormatBreakdown(d.CategoryBreakdown),
		d.Message,
	}
}

// AlertRow renders an alert as
// [created_at, user_email, type, amount, budget, percentage, message].
func AlertRow(user core.User, a core.BudgetAlert) []any {
	return []any{
		a.CreatedAt.Format(dateLayout),
		user.Email,
		string(a.Type),
		a.Amount.String(),
		a.Budget.String(),
		fmt.Sprintf("%.1f", a.Percentage),
		a.Message,
	}
}

// FormatBreakdown joins category totals as "name: amount; ..." sorted by
// name so rows are stable.
func FormatBreakdown(breakdown map[string]core.Money) string {
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+breakdown[k].String())
	}
	return strings.Join(parts, "; ")
}

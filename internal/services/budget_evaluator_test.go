package services

import (
	"testing"

	"spendwise/internal/core"

	"github.com/shopspring/decimal"
)

func TestEvaluateBudget(t *testing.T) {
	budget := core.Money{Cents: 50000}

	tests := []struct {
		name          string
		spentCents    int64
		wantLevel     BudgetLevel
		wantRemaining int64
		wantOver      int64
	}{
		{"nothing spent", 0, BudgetOK, 50000, 0},
		{"just under warning", 39995, BudgetOK, 10005, 0},
		{"exactly 80 percent", 40000, BudgetWarning, 10000, 0},
		{"between thresholds", 45000, BudgetWarning, 5000, 0},
		{"exactly at budget", 50000, BudgetExceeded, 0, 0},
		{"over budget", 61234, BudgetExceeded, 0, 11234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBudget(core.Money{Cents: tt.spentCents}, budget)
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v (pct %v)", got.Level, tt.wantLevel, got.Percent)
			}
			if got.Remaining.Cents != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", got.Remaining.Cents, tt.wantRemaining)
			}
			if got.OverBudgetAmount.Cents != tt.wantOver {
				t.Errorf("OverBudgetAmount = %d, want %d", got.OverBudgetAmount.Cents, tt.wantOver)
			}
		})
	}
}

func TestThresholdFor(t *testing.T) {
	tests := []struct {
		pct  string
		want BudgetLevel
	}{
		{"0", BudgetOK},
		{"79.99", BudgetOK},
		{"80", BudgetWarning},
		{"99.999", BudgetWarning},
		{"100", BudgetExceeded},
		{"250", BudgetExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			if got := ThresholdFor(decimal.RequireFromString(tt.pct)); got != tt.want {
				t.Errorf("ThresholdFor(%s) = %v, want %v", tt.pct, got, tt.want)
			}
		})
	}
}

func TestBudgetStatus_AlertMessage(t *testing.T) {
	budget := core.Money{Cents: 50000}

	tests := []struct {
		name     string
		spent    int64
		wantType core.AlertType
		want     string
	}{
		{
			name:     "warning",
			spent:    42050,
			wantType: core.AlertBudgetWarning,
			want:     "Budget warning: You've used 84.1% of your monthly budget. You've spent $420.50 out of $500.00.",
		},
		{
			name:     "exceeded",
			spent:    61000,
			wantType: core.AlertBudgetExceeded,
			want:     "You've exceeded your monthly budget! You've spent $610.00 out of $500.00 (122.0%).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := EvaluateBudget(core.Money{Cents: tt.spent}, budget)
			if !status.NeedsAlert() {
				t.Fatal("NeedsAlert() = false")
			}
			if status.AlertType() != tt.wantType {
				t.Errorf("AlertType() = %v, want %v", status.AlertType(), tt.wantType)
			}
			if got := status.AlertMessage(); got != tt.want {
				t.Errorf("AlertMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

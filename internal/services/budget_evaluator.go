package services

import (
	"fmt"

	"spendwise/internal/core"

	"github.com/shopspring/decimal"
)

type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

// BudgetStatus is the evaluation of one month's spend against the budget.
type BudgetStatus struct {
	Spent            core.Money      `json:"spent"`
	Budget           core.Money      `json:"budget"`
	Remaining        core.Money      `json:"remaining"`
	OverBudgetAmount core.Money      `json:"overBudgetAmount"`
	Percentage       float64         `json:"percentage"`
	Level            BudgetLevel     `json:"status"`
	Percent          decimal.Decimal `json:"-"`
}

type budgetThreshold struct {
	percent decimal.Decimal
	level   BudgetLevel
}

// sorted by percent descending
var budgetThresholds = []budgetThreshold{
	{percent: decimal.NewFromInt(100), level: BudgetExceeded},
	{percent: decimal.NewFromInt(80), level: BudgetWarning},
}

// ThresholdFor returns the level of the highest threshold reached by pct.
func ThresholdFor(pct decimal.Decimal) BudgetLevel {
	for _, t := range budgetThresholds {
		if pct.GreaterThanOrEqual(t.percent) {
			return t.level
		}
	}
	return BudgetOK
}

// EvaluateBudget computes percentage used and the resulting level.
func EvaluateBudget(spent, budget core.Money) BudgetStatus {
	pct := spent.PercentOf(budget)
	pctFloat, _ := pct.Float64()

	status := BudgetStatus{
		Spent:      spent,
		Budget:     budget,
		Remaining:  budget.Sub(spent),
		Percentage: pctFloat,
		Percent:    pct,
		Level:      ThresholdFor(pct),
	}
	if status.Remaining.Cents < 0 {
		status.OverBudgetAmount = core.Money{Cents: -status.Remaining.Cents}
		status.Remaining = core.Money{}
	}
	return status
}

// NeedsAlert is true at or above the warning threshold.
func (s BudgetStatus) NeedsAlert() bool {
	return s.Level != BudgetOK
}

// AlertType picks exceeded when over budget, warning otherwise.
func (s BudgetStatus) AlertType() core.AlertType {
	if s.Level == BudgetExceeded {
		return core.AlertBudgetExceeded
	}
	return core.AlertBudgetWarning
}

// AlertMessage renders the user-facing alert text.
func (s BudgetStatus) AlertMessage() string {
	if s.Level == BudgetExceeded {
		return fmt.Sprintf("You've exceeded your monthly budget! You've spent %s out of %s (%s%%).",
			s.Spent.Dollars(), s.Budget.Dollars(), s.Percent.StringFixed(1))
	}
	return fmt.Sprintf("Budget warning: You've used %s%% of your monthly budget. You've spent %s out of %s.",
		s.Percent.StringFixed(1), s.Spent.Dollars(), s.Budget.Dollars())
}

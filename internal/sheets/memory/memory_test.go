package memory

import (
	"context"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestMemoryStoreExport(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := core.User{Email: "ana@example.com"}

	ref, err := s.ExportDigest(ctx, user, core.WeeklyDigest{
		WeekStart:         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		WeekEnd:           time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		TotalSpent:        core.Money{Cents: 1234},
		CategoryBreakdown: map[string]core.Money{"rent": {Cents: 1234}},
	})
	if err != nil || ref != "mem:digests:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	ref, err = s.ExportAlert(ctx, user, core.BudgetAlert{Type: core.AlertBudgetWarning})
	if err != nil || ref != "mem:alerts:1" {
		t.Fatalf("unexpected alert export: ref=%q err=%v", ref, err)
	}

	rows := s.DigestRows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 digest row, got %d", len(rows))
	}
	if rows[0][2] != "ana@example.com" || rows[0][4] != "rent: 12.34" {
		t.Errorf("unexpected digest row %v", rows[0])
	}
	if got := s.AlertRows(); len(got) != 1 || got[0][2] != "budget_warning" {
		t.Errorf("unexpected alert rows %v", got)
	}
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"
)

// Store keeps exported rows in memory. It backs EXPORT_BACKEND=memory and
// tests.
type Store struct {
	mu      sync.Mutex
	digests [][]any
	alerts  [][]any
}

var _ ports.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// ExportDigest stores the digest row and returns a synthetic row reference.
func (s *Store) ExportDigest(_ context.Context, user core.User, d core.WeeklyDigest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests = append(s.digests, ports.DigestRow(user, d))
	return fmt.Sprintf("mem:digests:%d", len(s.digests)), nil
}

func (s *Store) ExportAlert(_ context.Context, user core.User, a core.BudgetAlert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, ports.AlertRow(user, a))
	return fmt.Sprintf("mem:alerts:%d", len(s.alerts)), nil
}

func (s *Store) DigestRows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.digests...)
}

func (s *Store) AlertRows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.alerts...)
}

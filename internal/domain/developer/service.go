package developer

import (
	"context"
	"fmt"

	"github.com/healingspace/healingspace/internal/platform/db"
)

type Service struct {
	repo Repository
	pool func() *db.PoolStats
}

// NewService builds the stats service. pool may be nil when no connection
// pool is available.
func NewService(repo Repository, pool func() *db.PoolStats) *Service {
	return &Service{repo: repo, pool: pool}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byRole, err := s.repo.UsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	st := &Stats{UsersByRole: byRole, Totals: *totals}
	for _, n := range byRole {
		st.TotalUsers += n
	}
	if s.pool != nil {
		st.Pool = s.pool()
	}
	return st, nil
}

package developer

import "context"

type Repository interface {
	UsersByRole(ctx context.Context) (map[string]int64, error)
	Totals(ctx context.Context) (*Totals, error)
}

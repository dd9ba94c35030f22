package investment

import "context"

type Repository interface {
	Create(ctx context.Context, inv *Investment) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Investment, error)
}

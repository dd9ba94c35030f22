package uow

import (
	"context"

	"peerfund-service/internal/domain/investment"
	"peerfund-service/internal/domain/loan"
)

type Repos struct {
	Loans       loan.Repository
	Investments investment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}

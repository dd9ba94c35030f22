package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerfund-service/internal/domain/investment"
	"peerfund-service/internal/domain/loan"
	"peerfund-service/internal/domain/uow"
	"peerfund-service/internal/infrastructure/logger"
	"peerfund-service/internal/infrastructure/metrics"

	"gorm.io/gorm"
)

// Notifier receives the id of a loan that just became fully funded.
// Implementations must not block; outcomes are never surfaced to the caller.
type Notifier interface {
	LoanFullyFunded(loanID uint64)
}

type Lifecycle struct {
	loans       loan.Repository
	investments investment.Repository
	uow         uow.UnitOfWork
	notifier    Notifier
	log         *logger.Logger
}

// NewLifecycle: plain repos for the read paths, a UoW for the tx flows.
func NewLifecycle(loans loan.Repository, investments investment.Repository, tx uow.UnitOfWork, n Notifier, log *logger.Logger) *Lifecycle {
	return &Lifecycle{loans: loans, investments: investments, uow: tx, notifier: n, log: log}
}

func (u *Lifecycle) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if in.BorrowerID <= 0 || in.PrincipalAmount <= 0 {
		return nil, errors.New("invalid input")
	}

	l := &loan.Loan{
		BorrowerID:      in.BorrowerID,
		PrincipalAmount: in.PrincipalAmount,
		Rate:            in.Rate,
		ROI:             in.ROI,
		AgreementLink:   in.AgreementLink,
		State:           loan.StateProposed,
		InvestedAmount:  0,
		StateUpdatedAt:  time.Now().UTC(),
	}

	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	metrics.LoanTransitions.WithLabelValues(string(loan.StateProposed)).Inc()
	u.log.Info("loan created", "loan_id", l.ID, "borrower_id", l.BorrowerID, "principal", l.PrincipalAmount)
	return toDTO(l), nil
}

func (u *Lifecycle) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return toDTO(l), nil
}

func (u *Lifecycle) Approve(ctx context.Context, in ApproveInput) (*LoanDTO, error) {
	var dto *LoanDTO

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.State.CanBecome(loan.StateApproved) {
			return fmt.Errorf("%w: loan can only be approved from the proposed state", loan.ErrInvalidTransition)
		}

		proof, by, at := in.ApprovalProof, in.ApprovedBy, in.ApprovedAt.UTC()
		l.ApprovalProof = &proof
		l.ApprovedBy = &by
		l.ApprovedAt = &at
		l.State = loan.StateApproved
		l.StateUpdatedAt = time.Now().UTC()

		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	metrics.LoanTransitions.WithLabelValues(string(loan.StateApproved)).Inc()
	u.log.Info("loan approved", "loan_id", dto.ID, "approved_by", in.ApprovedBy)
	return dto, nil
}

func (u *Lifecycle) Invest(ctx context.Context, in InvestInput) (*LoanDTO, error) {
	var (
		dto         *LoanDTO
		fullyFunded bool
	)

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.State.CanBecome(loan.StateInvested) {
			return fmt.Errorf("%w: loan can only be invested in from the approved state", loan.ErrInvalidTransition)
		}

		total := l.InvestedAmount + in.Amount
		// reject before any write; nothing is mutated on failure
		if total > l.PrincipalAmount {
			return loan.ErrExceedsPrincipal
		}

		l.InvestedAmount = total
		// exact match only: the funding contract is strict equality
		if total == l.PrincipalAmount {
			l.State = loan.StateInvested
			l.StateUpdatedAt = time.Now().UTC()
			fullyFunded = true
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		inv := &investment.Investment{
			LoanID:     l.ID,
			InvestorID: in.InvestorID,
			Amount:     in.Amount,
		}
		if err := r.Investments.Create(ctx, inv); err != nil {
			return err
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	u.log.Info("investment recorded", "loan_id", dto.ID, "investor_id", in.InvestorID, "amount", in.Amount, "invested_amount", dto.InvestedAmount)
	if fullyFunded {
		metrics.LoanTransitions.WithLabelValues(string(loan.StateInvested)).Inc()
		if u.notifier != nil {
			// fire-and-forget: dispatched only after the tx has committed
			u.notifier.LoanFullyFunded(in.LoanID)
		}
	}
	return dto, nil
}

func (u *Lifecycle) Disburse(ctx context.Context, in DisburseInput) (*LoanDTO, error) {
	var dto *LoanDTO

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.State.CanBecome(loan.StateDisbursed) {
			return fmt.Errorf("%w: loan can only be disbursed from the invested state", loan.ErrInvalidTransition)
		}

		now := time.Now().UTC()
		proof, by := in.DisbursementProof, in.DisbursedBy
		l.DisbursementProof = &proof
		l.DisbursedBy = &by
		l.DisbursedAt = &now
		l.State = loan.StateDisbursed
		l.StateUpdatedAt = now

		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	metrics.LoanTransitions.WithLabelValues(string(loan.StateDisbursed)).Inc()
	u.log.Info("loan disbursed", "loan_id", dto.ID, "disbursed_by", in.DisbursedBy)
	return dto, nil
}

// Investments lists the contributions recorded against a loan.
func (u *Lifecycle) Investments(ctx context.Context, loanID uint64) ([]InvestmentDTO, error) {
	if _, err := u.loans.GetByID(ctx, loanID); err != nil {
		return nil, translateNotFound(err)
	}
	invs, err := u.investments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]InvestmentDTO, 0, len(invs))
	for _, inv := range invs {
		out = append(out, InvestmentDTO{
			ID:         inv.ID,
			LoanID:     inv.LoanID,
			InvestorID: inv.InvestorID,
			Amount:     inv.Amount,
			CreatedAt:  inv.CreatedAt,
		})
	}
	return out, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrNotFound
	}
	return err
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		ID:                l.ID,
		BorrowerID:        l.BorrowerID,
		PrincipalAmount:   l.PrincipalAmount,
		Rate:              l.Rate,
		ROI:               l.ROI,
		AgreementLink:     l.AgreementLink,
		State:             string(l.State),
		InvestedAmount:    l.InvestedAmount,
		ApprovalProof:     l.ApprovalProof,
		ApprovedBy:        l.ApprovedBy,
		ApprovedAt:        l.ApprovedAt,
		DisbursementProof: l.DisbursementProof,
		DisbursedBy:       l.DisbursedBy,
		DisbursedAt:       l.DisbursedAt,
		CreatedAt:         l.CreatedAt,
	}
}

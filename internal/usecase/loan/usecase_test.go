package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	investmentDomain "peerfund-service/internal/domain/investment"
	domain "peerfund-service/internal/domain/loan"
	"peerfund-service/internal/domain/uow"
	"peerfund-service/internal/infrastructure/logger"
	"peerfund-service/internal/testutil/investmentmock"
	"peerfund-service/internal/testutil/loanmock"
	"peerfund-service/internal/testutil/notifymock"
	"peerfund-service/internal/testutil/uowmock"

	"gorm.io/gorm"
)

// ----- test harness -----

// memStore emulates the storage collaborator with tx semantics: the closure
// works on a copy of the loan and nothing is committed unless it returns nil.
type memStore struct {
	loan        *domain.Loan
	investments []investmentDomain.Investment
	saveErr     error
	invErr      error
}

func (s *memStore) uow() *uowmock.UoW {
	return &uowmock.UoW{
		WithinLoanTxFn: func(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *domain.Loan) error) error {
			if s.loan == nil || s.loan.ID != loanID {
				return gorm.ErrRecordNotFound
			}
			work := *s.loan
			var pending []investmentDomain.Investment
			repos := uow.Repos{
				Loans: &loanmock.Repo{
					SaveFn: func(ctx context.Context, l *domain.Loan) error {
						if s.saveErr != nil {
							return s.saveErr
						}
						work = *l
						return nil
					},
				},
				Investments: &investmentmock.Repo{
					CreateFn: func(ctx context.Context, inv *investmentDomain.Investment) error {
						if s.invErr != nil {
							return s.invErr
						}
						inv.ID = uint64(len(s.investments)+len(pending)) + 1
						pending = append(pending, *inv)
						return nil
					},
				},
			}
			if err := fn(repos, &work); err != nil {
				return err
			}
			*s.loan = work
			s.investments = append(s.investments, pending...)
			return nil
		},
	}
}

func newLifecycle(s *memStore, n Notifier) *Lifecycle {
	loans := &loanmock.Repo{
		GetByIDFn: func(ctx context.Context, id uint64) (*domain.Loan, error) {
			if s.loan == nil || s.loan.ID != id {
				return nil, gorm.ErrRecordNotFound
			}
			cp := *s.loan
			return &cp, nil
		},
	}
	invs := &investmentmock.Repo{
		ListByLoanIDFn: func(ctx context.Context, loanID uint64) ([]investmentDomain.Investment, error) {
			out := make([]investmentDomain.Investment, 0)
			for _, inv := range s.investments {
				if inv.LoanID == loanID {
					out = append(out, inv)
				}
			}
			return out, nil
		},
	}
	return NewLifecycle(loans, invs, s.uow(), n, logger.NewNop())
}

func approvedLoan(principal, invested float64) *domain.Loan {
	return &domain.Loan{
		ID:              1,
		BorrowerID:      123456,
		PrincipalAmount: principal,
		Rate:            5,
		ROI:             10,
		AgreementLink:   "http://agreement.link",
		State:           domain.StateApproved,
		InvestedAmount:  invested,
		StateUpdatedAt:  time.Now().UTC(),
	}
}

// ----- create -----

func TestCreate_SetsProposedAndZeroInvested(t *testing.T) {
	loans := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			l.ID = 42
			l.CreatedAt = time.Now().UTC()
			return nil
		},
	}
	uc := NewLifecycle(loans, &investmentmock.Repo{}, uowmock.New(), nil, logger.NewNop())

	dto, err := uc.Create(context.Background(), CreateLoanInput{
		BorrowerID:      123456,
		PrincipalAmount: 1000,
		Rate:            5,
		ROI:             10,
		AgreementLink:   "http://agreement.link",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if dto.ID != 42 {
		t.Fatalf("ID = %d, want 42", dto.ID)
	}
	if dto.State != string(domain.StateProposed) {
		t.Fatalf("state = %s, want proposed", dto.State)
	}
	if dto.InvestedAmount != 0 {
		t.Fatalf("invested = %v, want 0", dto.InvestedAmount)
	}
	if dto.ApprovedAt != nil || dto.DisbursedAt != nil {
		t.Fatalf("approval/disbursement fields must be unset at creation")
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	uc := NewLifecycle(&loanmock.Repo{}, &investmentmock.Repo{}, uowmock.New(), nil, logger.NewNop())
	if _, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: 0, PrincipalAmount: 1000}); err == nil {
		t.Fatal("want error for missing borrower")
	}
	if _, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: 1, PrincipalAmount: 0}); err == nil {
		t.Fatal("want error for non-positive principal")
	}
}

// ----- get -----

func TestGet_NotFound(t *testing.T) {
	s := &memStore{}
	uc := newLifecycle(s, nil)
	_, err := uc.Get(context.Background(), 99)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ----- approve -----

func TestApprove_Success(t *testing.T) {
	s := &memStore{loan: &domain.Loan{
		ID: 1, BorrowerID: 123456, PrincipalAmount: 1000,
		State: domain.StateProposed,
	}}
	uc := newLifecycle(s, nil)

	approvedAt := time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)
	dto, err := uc.Approve(context.Background(), ApproveInput{
		LoanID:        1,
		ApprovalProof: "http://proof.image",
		ApprovedBy:    123,
		ApprovedAt:    approvedAt,
	})
	if err != nil {
		t.Fatalf("Approve err: %v", err)
	}
	if dto.State != string(domain.StateApproved) {
		t.Fatalf("state = %s, want approved", dto.State)
	}
	if dto.ApprovalProof == nil || *dto.ApprovalProof != "http://proof.image" {
		t.Fatalf("approval proof not recorded: %+v", dto.ApprovalProof)
	}
	if dto.ApprovedBy == nil || *dto.ApprovedBy != 123 {
		t.Fatalf("approved_by not recorded")
	}
	if dto.ApprovedAt == nil || !dto.ApprovedAt.Equal(approvedAt) {
		t.Fatalf("approved_at = %v, want %v", dto.ApprovedAt, approvedAt)
	}
	if s.loan.State != domain.StateApproved {
		t.Fatalf("persisted state = %s", s.loan.State)
	}
}

func TestApprove_FromApproved_FailsUnchanged(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 0)}
	before := *s.loan
	uc := newLifecycle(s, nil)

	_, err := uc.Approve(context.Background(), ApproveInput{LoanID: 1, ApprovalProof: "x", ApprovedBy: 1, ApprovedAt: time.Now()})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if *s.loan != before {
		t.Fatalf("loan mutated on rejected approve")
	}
}

func TestApprove_NotFound(t *testing.T) {
	s := &memStore{}
	uc := newLifecycle(s, nil)
	_, err := uc.Approve(context.Background(), ApproveInput{LoanID: 7})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ----- invest -----

func TestInvest_Partial_StaysApproved(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 500)}
	n := &notifymock.Notifier{}
	uc := newLifecycle(s, n)

	dto, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: 2, Amount: 300})
	if err != nil {
		t.Fatalf("Invest err: %v", err)
	}
	if dto.InvestedAmount != 800 {
		t.Fatalf("invested = %v, want 800", dto.InvestedAmount)
	}
	if dto.State != string(domain.StateApproved) {
		t.Fatalf("state = %s, want approved", dto.State)
	}
	if len(s.investments) != 1 {
		t.Fatalf("investments = %d, want 1", len(s.investments))
	}
	inv := s.investments[0]
	if inv.LoanID != 1 || inv.InvestorID != 2 || inv.Amount != 300 {
		t.Fatalf("investment = %+v", inv)
	}
	if n.Count() != 0 {
		t.Fatalf("partial funding must not notify")
	}
}

func TestInvest_ExactMatch_TransitionsAndNotifies(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 800)}
	n := &notifymock.Notifier{}
	uc := newLifecycle(s, n)

	dto, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: 3, Amount: 200})
	if err != nil {
		t.Fatalf("Invest err: %v", err)
	}
	if dto.InvestedAmount != 1000 {
		t.Fatalf("invested = %v, want 1000", dto.InvestedAmount)
	}
	if dto.State != string(domain.StateInvested) {
		t.Fatalf("state = %s, want invested", dto.State)
	}
	if n.Count() != 1 || n.Calls[0] != 1 {
		t.Fatalf("notify calls = %+v, want one call for loan 1", n.Calls)
	}
}

func TestInvest_Overfund_RejectedUnchanged(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 900)}
	before := *s.loan
	n := &notifymock.Notifier{}
	uc := newLifecycle(s, n)

	_, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: 4, Amount: 200})
	if !errors.Is(err, domain.ErrExceedsPrincipal) {
		t.Fatalf("err = %v, want ErrExceedsPrincipal", err)
	}
	if *s.loan != before {
		t.Fatalf("loan mutated on rejected invest")
	}
	if len(s.investments) != 0 {
		t.Fatalf("no investment row may be written on rejection")
	}
	if n.Count() != 0 {
		t.Fatalf("no notification on rejection")
	}
}

func TestInvest_WrongState_Fails(t *testing.T) {
	for _, st := range []domain.State{domain.StateProposed, domain.StateInvested, domain.StateDisbursed} {
		s := &memStore{loan: &domain.Loan{ID: 1, PrincipalAmount: 1000, State: st}}
		before := *s.loan
		uc := newLifecycle(s, nil)

		_, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: 2, Amount: 100})
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("state %s: err = %v, want ErrInvalidTransition", st, err)
		}
		if *s.loan != before {
			t.Fatalf("state %s: loan mutated", st)
		}
	}
}

func TestInvest_InvestmentWriteFailure_RollsBack(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 0), invErr: errors.New("insert failed")}
	before := *s.loan
	uc := newLifecycle(s, nil)

	_, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: 2, Amount: 100})
	if err == nil {
		t.Fatal("want error")
	}
	if *s.loan != before {
		t.Fatalf("loan update must roll back with the failed investment write")
	}
	if len(s.investments) != 0 {
		t.Fatalf("investments = %d, want 0", len(s.investments))
	}
}

func TestInvest_NotFound(t *testing.T) {
	s := &memStore{}
	uc := newLifecycle(s, nil)
	_, err := uc.Invest(context.Background(), InvestInput{LoanID: 5, InvestorID: 1, Amount: 10})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ----- disburse -----

func TestDisburse_Success(t *testing.T) {
	l := approvedLoan(1000, 1000)
	l.State = domain.StateInvested
	s := &memStore{loan: l}
	uc := newLifecycle(s, nil)

	start := time.Now().UTC()
	dto, err := uc.Disburse(context.Background(), DisburseInput{
		LoanID:            1,
		DisbursementProof: "http://proof.image",
		DisbursedBy:       123,
	})
	if err != nil {
		t.Fatalf("Disburse err: %v", err)
	}
	if dto.State != string(domain.StateDisbursed) {
		t.Fatalf("state = %s, want disbursed", dto.State)
	}
	if dto.DisbursementProof == nil || *dto.DisbursementProof != "http://proof.image" {
		t.Fatalf("disbursement proof not recorded")
	}
	if dto.DisbursedBy == nil || *dto.DisbursedBy != 123 {
		t.Fatalf("disbursed_by not recorded")
	}
	if dto.DisbursedAt == nil || dto.DisbursedAt.Before(start) {
		t.Fatalf("disbursed_at = %v", dto.DisbursedAt)
	}
}

func TestDisburse_WrongState_Fails(t *testing.T) {
	for _, st := range []domain.State{domain.StateProposed, domain.StateApproved, domain.StateDisbursed} {
		s := &memStore{loan: &domain.Loan{ID: 1, PrincipalAmount: 1000, State: st}}
		before := *s.loan
		uc := newLifecycle(s, nil)

		_, err := uc.Disburse(context.Background(), DisburseInput{LoanID: 1, DisbursementProof: "p", DisbursedBy: 9})
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("state %s: err = %v, want ErrInvalidTransition", st, err)
		}
		if *s.loan != before {
			t.Fatalf("state %s: loan mutated", st)
		}
	}
}

// ----- investments listing -----

func TestInvestments_ListsRecordedContributions(t *testing.T) {
	s := &memStore{loan: approvedLoan(1000, 0)}
	uc := newLifecycle(s, nil)

	for i, amt := range []float64{300, 200} {
		if _, err := uc.Invest(context.Background(), InvestInput{LoanID: 1, InvestorID: int64(i + 1), Amount: amt}); err != nil {
			t.Fatalf("Invest %d err: %v", i, err)
		}
	}
	out, err := uc.Investments(context.Background(), 1)
	if err != nil {
		t.Fatalf("Investments err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Amount+out[1].Amount != s.loan.InvestedAmount {
		t.Fatalf("sum of investments %v != invested amount %v", out[0].Amount+out[1].Amount, s.loan.InvestedAmount)
	}
}

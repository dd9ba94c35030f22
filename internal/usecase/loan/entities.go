package loan

import (
	"time"
)

type CreateLoanInput struct {
	BorrowerID      int64   `json:"borrower_id"`
	PrincipalAmount float64 `json:"principal_amount"`
	Rate            float64 `json:"rate"`
	ROI             float64 `json:"roi"`
	AgreementLink   string  `json:"agreement_link"`
}

type ApproveInput struct {
	LoanID        uint64
	ApprovalProof string
	ApprovedBy    int64
	ApprovedAt    time.Time // date-only is fine; stored as .UTC()
}

type InvestInput struct {
	LoanID     uint64
	InvestorID int64
	Amount     float64
}

type DisburseInput struct {
	LoanID            uint64
	DisbursementProof string
	DisbursedBy       int64
}

type LoanDTO struct {
	ID                uint64     `json:"id"`
	BorrowerID        int64      `json:"borrower_id"`
	PrincipalAmount   float64    `json:"principal_amount"`
	Rate              float64    `json:"rate"`
	ROI               float64    `json:"roi"`
	AgreementLink     string     `json:"agreement_link"`
	State             string     `json:"state"`
	InvestedAmount    float64    `json:"invested_amount"`
	ApprovalProof     *string    `json:"approval_proof,omitempty"`
	ApprovedBy        *int64     `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	DisbursementProof *string    `json:"disbursement_proof,omitempty"`
	DisbursedBy       *int64     `json:"disbursed_by,omitempty"`
	DisbursedAt       *time.Time `json:"disbursed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type InvestmentDTO struct {
	ID         uint64    `json:"id"`
	LoanID     uint64    `json:"loan_id"`
	InvestorID int64     `json:"investor_id"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

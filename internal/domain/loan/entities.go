package loan

import (
	"errors"
	"time"
)

type State string

const (
	StateProposed  State = "proposed"
	StateApproved  State = "approved"
	StateInvested  State = "invested"
	StateDisbursed State = "disbursed"
)

// requiredFrom is the transition guard table: each reachable state is keyed
// to the only state it may be entered from. Adding a state is one row here.
var requiredFrom = map[State]State{
	StateApproved:  StateProposed,
	StateInvested:  StateApproved,
	StateDisbursed: StateInvested,
}

// CanBecome reports whether a loan in state s may move to next.
func (s State) CanBecome(next State) bool {
	from, ok := requiredFrom[next]
	return ok && s == from
}

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("invalid loan state transition")
	ErrExceedsPrincipal  = errors.New("invested amount exceeds loan principal")
)

type Loan struct {
	ID                uint64     `gorm:"primaryKey;column:id" json:"id"`
	BorrowerID        int64      `gorm:"column:borrower_id;index:idx_loans_borrower" json:"borrower_id"`
	PrincipalAmount   float64    `gorm:"column:principal_amount;type:decimal(18,2)" json:"principal_amount"`
	Rate              float64    `gorm:"column:rate;type:decimal(6,4)" json:"rate"`
	ROI               float64    `gorm:"column:roi;type:decimal(6,4)" json:"roi"`
	AgreementLink     string     `gorm:"column:agreement_link;type:text" json:"agreement_link"`
	State             State      `gorm:"column:state;type:enum('proposed','approved','invested','disbursed');default:'proposed'" json:"state"`
	InvestedAmount    float64    `gorm:"column:invested_amount;type:decimal(18,2);default:0" json:"invested_amount"`
	ApprovalProof     *string    `gorm:"column:approval_proof;type:text" json:"approval_proof,omitempty"`
	ApprovedBy        *int64     `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	DisbursementProof *string    `gorm:"column:disbursement_proof;type:text" json:"disbursement_proof,omitempty"`
	DisbursedBy       *int64     `gorm:"column:disbursed_by" json:"disbursed_by,omitempty"`
	DisbursedAt       *time.Time `gorm:"column:disbursed_at" json:"disbursed_at,omitempty"`
	StateUpdatedAt    time.Time  `gorm:"column:state_updated_at;autoCreateTime" json:"state_updated_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

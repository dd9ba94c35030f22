package investment

import "time"

// Investment records a single investor contribution to a loan. Rows are
// written once and never updated.
type Investment struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"id"`
	LoanID     uint64    `gorm:"column:loan_id;not null;index:idx_investments_loan" json:"loan_id"`
	InvestorID int64     `gorm:"column:investor_id;not null" json:"investor_id"`
	Amount     float64   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Investment) TableName() string { return "investments" }

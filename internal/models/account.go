package models

import "time"

// AccountStatus is the lifecycle state of a bank account on record.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

// BankAccount is a salary or fee account kept on record for a campus member.
// Records are maintained by the finance office; this service only reads them.
type BankAccount struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AccountNumber  string        `gorm:"size:32;uniqueIndex;not null" json:"account_number"`
	HolderType     Role          `gorm:"size:16;not null;index:idx_bank_accounts_holder" json:"holder_type"`
	HolderID       uint          `gorm:"not null;index:idx_bank_accounts_holder" json:"holder_id"`
	AccountType    string        `gorm:"size:32;not null;index" json:"account_type"`
	BankName       string        `gorm:"size:128;not null;index" json:"bank_name"`
	BranchName     string        `gorm:"size:128" json:"branch_name"`
	IFSCCode       string        `gorm:"size:11" json:"ifsc_code"`
	CurrentBalance float64       `gorm:"type:numeric(14,2);not null;default:0" json:"current_balance"`
	MinimumBalance float64       `gorm:"type:numeric(14,2);not null;default:0" json:"minimum_balance"`
	Status         AccountStatus `gorm:"size:16;not null;default:active;index" json:"status"`
	IsPrimary      bool          `gorm:"not null;default:false" json:"is_primary"`
	IsActive       bool          `gorm:"not null;default:true" json:"is_active"`
	OpenedOn       time.Time     `json:"opened_on"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

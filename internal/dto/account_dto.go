package dto

import (
	"time"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// AccountListRequest filters bank account listings.
type AccountListRequest struct {
	Page        int    `validate:"omitempty,gte=1"`
	PageSize    int    `validate:"omitempty,gte=1,lte=100"`
	AccountType string `validate:"omitempty,max=32"`
	Status      string `validate:"omitempty,oneof=active inactive suspended closed"`
	BankName    string `validate:"omitempty,max=128"`
}

// AccountResponse serializes a bank account record.
type AccountResponse struct {
	ID             uint      `json:"id"`
	AccountNumber  string    `json:"account_number"`
	HolderType     string    `json:"holder_type"`
	HolderID       uint      `json:"holder_id"`
	AccountType    string    `json:"account_type"`
	BankName       string    `json:"bank_name"`
	BranchName     string    `json:"branch_name"`
	IFSCCode       string    `json:"ifsc_code"`
	CurrentBalance float64   `json:"current_balance"`
	MinimumBalance float64   `json:"minimum_balance"`
	Status         string    `json:"status"`
	IsPrimary      bool      `json:"is_primary"`
	OpenedOn       time.Time `json:"opened_on"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAccountResponse converts an account model into a DTO.
func NewAccountResponse(model models.BankAccount) AccountResponse {
	return AccountResponse{
		ID:             model.ID,
		AccountNumber:  model.AccountNumber,
		HolderType:     string(model.HolderType),
		HolderID:       model.HolderID,
		AccountType:    model.AccountType,
		BankName:       model.BankName,
		BranchName:     model.BranchName,
		IFSCCode:       model.IFSCCode,
		CurrentBalance: model.CurrentBalance,
		MinimumBalance: model.MinimumBalance,
		Status:         string(model.Status),
		IsPrimary:      model.IsPrimary,
		OpenedOn:       model.OpenedOn,
		CreatedAt:      model.CreatedAt,
	}
}

// AccountListResponse wraps paginated accounts.
type AccountListResponse struct {
	Items      []AccountResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// AccountHolderResponse lists every account kept for one holder.
type AccountHolderResponse struct {
	HolderType string            `json:"holder_type"`
	HolderID   uint              `json:"holder_id"`
	Items      []AccountResponse `json:"items"`
	Total      int               `json:"total"`
}

// AccountBalanceResponse is the balance view of an active account.
type AccountBalanceResponse struct {
	AccountNumber  string  `json:"account_number"`
	CurrentBalance float64 `json:"current_balance"`
	Status         string  `json:"status"`
}

// AccountGroupCount is one bucket of a grouped count.
type AccountGroupCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AccountStatisticsResponse summarises account records.
type AccountStatisticsResponse struct {
	TotalAccounts  int64               `json:"total_accounts"`
	ActiveAccounts int64               `json:"active_accounts"`
	TotalBalance   float64             `json:"total_balance"`
	ByType         []AccountGroupCount `json:"by_type"`
	ByStatus       []AccountGroupCount `json:"by_status"`
}

// AccountHolderRequest selects the accounts of one holder.
type AccountHolderRequest struct {
	HolderType string `validate:"required,oneof=student teacher admin"`
	HolderID   uint   `validate:"required,gt=0"`
}

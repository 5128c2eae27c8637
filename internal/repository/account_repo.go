package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// AccountFilter narrows bank account listings.
type AccountFilter struct {
	AccountType string
	Status      models.AccountStatus
	BankName    string
	Page        int
	PageSize    int
}

// AccountGroupCount is one row of a grouped account count.
type AccountGroupCount struct {
	Label string
	Count int64
}

// AccountStatistics summarises active account records.
type AccountStatistics struct {
	TotalAccounts  int64
	ActiveAccounts int64
	TotalBalance   float64
	ByType         []AccountGroupCount
	ByStatus       []AccountGroupCount
}

// AccountRepository reads bank account records. Inactive records are never returned.
type AccountRepository interface {
	List(ctx context.Context, filter AccountFilter) ([]models.BankAccount, int64, error)
	GetByID(ctx context.Context, id uint) (models.BankAccount, error)
	ListByHolder(ctx context.Context, holderType models.Role, holderID uint) ([]models.BankAccount, error)
	Statistics(ctx context.Context) (AccountStatistics, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.BankAccount{}).Where("is_active = ?", true)
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]models.BankAccount, int64, error) {
	query := r.active(ctx)
	if filter.AccountType != "" {
		query = query.Where("account_type = ?", filter.AccountType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if bank := strings.ToLower(strings.TrimSpace(filter.BankName)); bank != "" {
		query = query.Where("LOWER(bank_name) LIKE ?", "%"+bank+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []models.BankAccount
	if err := paginate(query, filter.Page, filter.PageSize).Order("created_at DESC, id DESC").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (models.BankAccount, error) {
	var account models.BankAccount
	if err := r.active(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return models.BankAccount{}, err
	}
	return account, nil
}

func (r *accountRepository) ListByHolder(ctx context.Context, holderType models.Role, holderID uint) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	err := r.active(ctx).
		Where("holder_type = ? AND holder_id = ?", holderType, holderID).
		Order("is_primary DESC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) Statistics(ctx context.Context) (AccountStatistics, error) {
	var stats AccountStatistics
	if err := r.active(ctx).Count(&stats.TotalAccounts).Error; err != nil {
		return AccountStatistics{}, err
	}
	if err := r.active(ctx).Where("status = ?", models.AccountStatusActive).Count(&stats.ActiveAccounts).Error; err != nil {
		return AccountStatistics{}, err
	}

	var balance struct{ Total float64 }
	err := r.active(ctx).
		Select("COALESCE(SUM(current_balance), 0) AS total").
		Where("status = ?", models.AccountStatusActive).
		Scan(&balance).Error
	if err != nil {
		return AccountStatistics{}, err
	}
	stats.TotalBalance = balance.Total

	if stats.ByType, err = r.countBy(ctx, "account_type"); err != nil {
		return AccountStatistics{}, err
	}
	if stats.ByStatus, err = r.countBy(ctx, "status"); err != nil {
		return AccountStatistics{}, err
	}

	return stats, nil
}

func (r *accountRepository) countBy(ctx context.Context, column string) ([]AccountGroupCount, error) {
	var rows []AccountGroupCount
	err := r.active(ctx).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

func seedAccount(t *testing.T, db *gorm.DB, number string, holder models.Role, holderID uint, accountType string, status models.AccountStatus, balance float64) models.BankAccount {
	t.Helper()
	account := models.BankAccount{
		AccountNumber:  number,
		HolderType:     holder,
		HolderID:       holderID,
		AccountType:    accountType,
		BankName:       "State Bank of India",
		BranchName:     "Campus Branch",
		IFSCCode:       "SBIN0001234",
		CurrentBalance: balance,
		Status:         status,
		IsActive:       true,
		OpenedOn:       time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&account).Error)
	return account
}

func TestAccountRepositoryListAndLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	primary := seedAccount(t, db, "1001", models.RoleStudent, 4, "savings", models.AccountStatusActive, 1500)
	seedAccount(t, db, "1002", models.RoleTeacher, 4, "current", models.AccountStatusActive, 9000)
	frozen := seedAccount(t, db, "1003", models.RoleStudent, 4, "savings", models.AccountStatusSuspended, 200)
	hidden := seedAccount(t, db, "1004", models.RoleStudent, 4, "savings", models.AccountStatusActive, 50)
	require.NoError(t, db.Model(&hidden).Update("is_active", false).Error)
	require.NoError(t, db.Model(&frozen).Update("bank_name", "Canara Bank").Error)

	accounts, total, err := repo.List(ctx, AccountFilter{AccountType: "savings", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, accounts, 2)

	accounts, total, err = repo.List(ctx, AccountFilter{BankName: "canara"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, frozen.ID, accounts[0].ID)

	_, total, err = repo.List(ctx, AccountFilter{Status: models.AccountStatusSuspended})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	found, err := repo.GetByID(ctx, primary.ID)
	require.NoError(t, err)
	require.Equal(t, "1001", found.AccountNumber)

	_, err = repo.GetByID(ctx, hidden.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	held, err := repo.ListByHolder(ctx, models.RoleStudent, 4)
	require.NoError(t, err)
	require.Len(t, held, 2)
	for _, account := range held {
		require.Equal(t, models.RoleStudent, account.HolderType)
	}
}

func TestAccountRepositoryStatistics(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)

	seedAccount(t, db, "2001", models.RoleStudent, 1, "savings", models.AccountStatusActive, 1500.5)
	seedAccount(t, db, "2002", models.RoleTeacher, 2, "current", models.AccountStatusActive, 2499.5)
	seedAccount(t, db, "2003", models.RoleAdmin, 3, "savings", models.AccountStatusClosed, 700)

	stats, err := repo.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalAccounts)
	require.Equal(t, int64(2), stats.ActiveAccounts)
	require.InDelta(t, 4000.0, stats.TotalBalance, 0.001)
	require.Equal(t, []AccountGroupCount{{Label: "current", Count: 1}, {Label: "savings", Count: 2}}, stats.ByType)
	require.Equal(t, []AccountGroupCount{{Label: "active", Count: 2}, {Label: "closed", Count: 1}}, stats.ByStatus)
}

func TestAccountRepositoryStatisticsEmpty(t *testing.T) {
	db := setupTestDB(t)

	stats, err := NewAccountRepository(db).Statistics(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.TotalAccounts)
	require.Zero(t, stats.TotalBalance)
	require.Empty(t, stats.ByType)
}

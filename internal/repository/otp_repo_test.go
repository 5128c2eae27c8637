package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

func TestOTPRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOTPRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Replace(ctx, &models.OTPCode{Email: "User@Campus.test", CodeHash: "h1", ExpiresAt: now.Add(time.Minute)}))
	second := &models.OTPCode{Email: "user@campus.test", CodeHash: "h2", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, repo.Replace(ctx, second))

	active, err := repo.FindActive(ctx, "user@campus.test")
	require.NoError(t, err)
	require.Equal(t, "h2", active.CodeHash)

	attempts, reserved, err := repo.ReserveAttempt(ctx, active.ID, 3)
	require.NoError(t, err)
	require.True(t, reserved)
	require.Equal(t, 1, attempts)

	used, err := repo.MarkUsed(ctx, active.ID, 3)
	require.NoError(t, err)
	require.True(t, used)

	used, err = repo.MarkUsed(ctx, active.ID, 3)
	require.NoError(t, err)
	require.False(t, used)

	_, reserved, err = repo.ReserveAttempt(ctx, active.ID, 3)
	require.NoError(t, err)
	require.False(t, reserved, "used codes take no more attempts")

	require.NoError(t, repo.Replace(ctx, &models.OTPCode{Email: "late@campus.test", CodeHash: "h3", ExpiresAt: now.Add(-time.Minute)}))
	removed, err := repo.DeleteStale(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}

func TestOTPRepositoryReserveAttemptStopsAtBudget(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOTPRepository(db)
	ctx := context.Background()

	code := &models.OTPCode{Email: "budget@campus.test", CodeHash: "h", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, repo.Replace(ctx, code))

	for want := 1; want <= 2; want++ {
		attempts, reserved, err := repo.ReserveAttempt(ctx, code.ID, 2)
		require.NoError(t, err)
		require.True(t, reserved)
		require.Equal(t, want, attempts)
	}

	_, reserved, err := repo.ReserveAttempt(ctx, code.ID, 2)
	require.NoError(t, err)
	require.False(t, reserved)

	used, err := repo.MarkUsed(ctx, code.ID, 1)
	require.NoError(t, err)
	require.False(t, used, "codes past the attempt budget cannot be used")

	var stored models.OTPCode
	require.NoError(t, db.First(&stored, code.ID).Error)
	require.Equal(t, 2, stored.Attempts)
	require.False(t, stored.Used)
}

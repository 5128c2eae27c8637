package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// OTPRepository stores hashed one-time login codes.
type OTPRepository interface {
	Replace(ctx context.Context, code *models.OTPCode) error
	FindActive(ctx context.Context, email string) (models.OTPCode, error)
	ReserveAttempt(ctx context.Context, id uint, maxAttempts int) (int, bool, error)
	MarkUsed(ctx context.Context, id uint, maxAttempts int) (bool, error)
	Delete(ctx context.Context, id uint) error
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository constructs the OTP store.
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

// Replace removes every earlier code for the email and stores the new one.
func (r *otpRepository) Replace(ctx context.Context, code *models.OTPCode) error {
	code.Email = strings.ToLower(strings.TrimSpace(code.Email))
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", code.Email).Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *otpRepository) FindActive(ctx context.Context, email string) (models.OTPCode, error) {
	var code models.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND used = ?", strings.ToLower(strings.TrimSpace(email)), false).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return models.OTPCode{}, err
	}
	return code, nil
}

// ReserveAttempt counts a verification attempt before the code is compared. It
// reports false once the code is used or maxAttempts were already reserved.
func (r *otpRepository) ReserveAttempt(ctx context.Context, id uint, maxAttempts int) (int, bool, error) {
	var (
		attempts int
		reserved bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OTPCode{}).
			Where("id = ? AND used = ? AND attempts < ?", id, false, maxAttempts).
			UpdateColumn("attempts", gorm.Expr("attempts + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var code models.OTPCode
		if err := tx.Select("attempts").First(&code, id).Error; err != nil {
			return err
		}
		attempts = code.Attempts
		reserved = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return attempts, reserved, nil
}

// MarkUsed flips the code to used. It reports false if another request used it
// first or the attempt budget is already exceeded.
func (r *otpRepository) MarkUsed(ctx context.Context, id uint, maxAttempts int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND used = ? AND attempts <= ?", id, false, maxAttempts).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *otpRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.OTPCode{}, id).Error
}

func (r *otpRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("used = ? OR expires_at <= ?", true, now.UTC()).
		Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}

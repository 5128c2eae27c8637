package models

import "time"

// OTPCode is a one-time login code sent by email. Only the bcrypt hash is stored.
type OTPCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	CodeHash  string    `gorm:"size:255;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpiredAt reports whether the code can no longer be redeemed at now.
func (o OTPCode) IsExpiredAt(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

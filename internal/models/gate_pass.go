package models

import "time"

// PassAction is the campus crossing a gate pass authorises.
type PassAction string

// PassStatus is the lifecycle state of a gate pass.
type PassStatus string

const (
	// PassActionExit lets a student leave the campus.
	PassActionExit PassAction = "exit"
	// PassActionEnter lets a student return to the campus.
	PassActionEnter PassAction = "enter"

	// PassStatusPending is a live pass waiting to be scanned.
	PassStatusPending PassStatus = "pending"
	// PassStatusProcessed is a pass that was scanned and applied.
	PassStatusProcessed PassStatus = "processed"
	// PassStatusExpired is a pass that outlived its validity window.
	PassStatusExpired PassStatus = "expired"

	// EntryDestination is recorded on every entry pass.
	EntryDestination = "Campus Entry"
	// OverrideDestination is recorded on overrides without an explicit destination.
	OverrideDestination = "Manual Override"
	// OverrideTokenPrefix marks tokens of synthetic override passes.
	OverrideTokenPrefix = "manual-override:"
)

// Valid reports whether the action is a known crossing.
func (a PassAction) Valid() bool {
	return a == PassActionExit || a == PassActionEnter
}

// Target returns the campus status a holder ends up in after the crossing.
func (a PassAction) Target() CampusStatus {
	if a == PassActionEnter {
		return CampusStatusIn
	}
	return CampusStatusOut
}

// ActionFor returns the only crossing a holder with the given status can request.
func ActionFor(status CampusStatus) PassAction {
	if status == CampusStatusOut {
		return PassActionEnter
	}
	return PassActionExit
}

// HolderSnapshot is a frozen copy of the student attributes at issuance time.
type HolderSnapshot struct {
	Name        string `gorm:"size:255" json:"name"`
	RollNumber  string `gorm:"size:64" json:"roll_number"`
	StudentCode string `gorm:"size:64" json:"student_code"`
	Department  string `gorm:"size:128" json:"department"`
	Year        string `gorm:"size:8" json:"year"`
	Phone       string `gorm:"size:20" json:"phone"`
}

// GatePass is one issued campus crossing credential.
//
// At most one pending pass exists per student; the partial unique index enforces it.
type GatePass struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StudentID   uint           `gorm:"not null;index;uniqueIndex:idx_gate_passes_pending_holder,where:status = 'pending'" json:"student_id"`
	Holder      HolderSnapshot `gorm:"embedded;embeddedPrefix:holder_" json:"holder"`
	Destination string         `gorm:"size:255;not null" json:"destination"`
	Action      PassAction     `gorm:"size:8;not null;index" json:"action"`
	Status      PassStatus     `gorm:"size:16;not null;default:pending;index" json:"status"`
	Token       string         `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IssuedAt    time.Time      `gorm:"not null;index" json:"issued_at"`
	ExpiresAt   time.Time      `gorm:"not null;index" json:"expires_at"`
	ProcessedBy *uint          `json:"processed_by"`
	ProcessedAt *time.Time     `json:"processed_at"`
	Remarks     string         `gorm:"size:200" json:"remarks"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsExpiredAt reports whether the validity window closed before now.
func (p GatePass) IsExpiredAt(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

package models

import "time"

// CampusStatus records whether a student is currently inside the campus.
type CampusStatus string

const (
	// CampusStatusIn marks a student as on campus. New students start here.
	CampusStatusIn CampusStatus = "in"
	// CampusStatusOut marks a student as off campus.
	CampusStatusOut CampusStatus = "out"
)

// Student represents an enrolled learner and the holder of gate passes.
type Student struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Email           string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StudentCode     string       `gorm:"size:64;uniqueIndex;not null" json:"student_code"`
	RollNumber      string       `gorm:"size:64;uniqueIndex;not null" json:"roll_number"`
	Department      string       `gorm:"size:128;index" json:"department"`
	Branch          string       `gorm:"size:128" json:"branch"`
	Course          string       `gorm:"size:128" json:"course"`
	Year            string       `gorm:"size:8;index" json:"year"`
	CurrentSemester string       `gorm:"size:8" json:"current_semester"`
	Phone           string       `gorm:"size:20" json:"phone"`
	IsActive        bool         `gorm:"not null;default:true" json:"is_active"`
	CurrentStatus   CampusStatus `gorm:"size:8;not null;default:in;index" json:"current_status"`
	LastGatePassID  *uint        `json:"last_gate_pass_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// HolderStatus is the campus status view of a student used by the gate engine.
type HolderStatus struct {
	StudentID      uint
	CurrentStatus  CampusStatus
	LastGatePassID *uint
	IsActive       bool
}

// Status returns the campus status, treating an unset value as inside.
func (s Student) Status() CampusStatus {
	if s.CurrentStatus == "" {
		return CampusStatusIn
	}
	return s.CurrentStatus
}

// Snapshot freezes the display attributes printed on a gate pass.
func (s Student) Snapshot() HolderSnapshot {
	return HolderSnapshot{
		Name:        s.Name,
		RollNumber:  s.RollNumber,
		StudentCode: s.StudentCode,
		Department:  s.Department,
		Year:        s.Year,
		Phone:       s.Phone,
	}
}

package models

import "time"

// Teacher is a member of the academic faculty.
type Teacher struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	EmployeeID  string    `gorm:"size:64;uniqueIndex;not null" json:"employee_id"`
	Department  string    `gorm:"size:128" json:"department"`
	Designation string    `gorm:"size:128" json:"designation"`
	Phone       string    `gorm:"size:20" json:"phone"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Admin is an administrator allowed to audit and override gate records.
type Admin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	EmployeeID  string    `gorm:"size:64;uniqueIndex;not null" json:"employee_id"`
	Title       string    `gorm:"size:64" json:"title"`
	Department  string    `gorm:"size:128" json:"department"`
	Phone       string    `gorm:"size:20" json:"phone"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NonTeachingStaff covers wardens, guards and office staff. Guards scan gate passes.
type NonTeachingStaff struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StaffCode   string    `gorm:"size:64;uniqueIndex;not null" json:"staff_code"`
	Designation string    `gorm:"size:128" json:"designation"`
	Department  string    `gorm:"size:128" json:"department"`
	Role        string    `gorm:"size:64;index" json:"role"`
	Phone       string    `gorm:"size:20" json:"phone"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the plural form readable.
func (NonTeachingStaff) TableName() string {
	return "non_teaching_staff"
}

package dto

import (
	"time"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// OTPSendRequest asks for a login code to be mailed.
type OTPSendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPSendResponse confirms a code was sent.
type OTPSendResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPVerifyRequest exchanges a login code for a session token.
type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,min=4,max=10"`
}

// AuthResponse carries the session token and the authenticated identity.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Role      string          `json:"role"`
	User      IdentityProfile `json:"user"`
}

// IdentityProfile is the public view of any account kind.
type IdentityProfile struct {
	ID          uint   `json:"id"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
	Phone       string `json:"phone,omitempty"`
	StudentCode string `json:"student_code,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	Year        string `json:"year,omitempty"`
	EmployeeID  string `json:"employee_id,omitempty"`
	StaffCode   string `json:"staff_code,omitempty"`
}

// NewIdentityProfile flattens the tagged identity into one response shape.
func NewIdentityProfile(identity models.Identity) IdentityProfile {
	profile := IdentityProfile{
		ID:    identity.ID(),
		Role:  string(identity.Role),
		Name:  identity.Name(),
		Email: identity.Email(),
	}

	switch {
	case identity.Student != nil:
		profile.Department = identity.Student.Department
		profile.Phone = identity.Student.Phone
		profile.StudentCode = identity.Student.StudentCode
		profile.RollNumber = identity.Student.RollNumber
		profile.Year = identity.Student.Year
	case identity.Teacher != nil:
		profile.Department = identity.Teacher.Department
		profile.Designation = identity.Teacher.Designation
		profile.Phone = identity.Teacher.Phone
		profile.EmployeeID = identity.Teacher.EmployeeID
	case identity.Admin != nil:
		profile.Department = identity.Admin.Department
		profile.Designation = identity.Admin.Title
		profile.Phone = identity.Admin.Phone
		profile.EmployeeID = identity.Admin.EmployeeID
	case identity.Staff != nil:
		profile.Department = identity.Staff.Department
		profile.Designation = identity.Staff.Designation
		profile.Phone = identity.Staff.Phone
		profile.StaffCode = identity.Staff.StaffCode
	}

	return profile
}

package dto

import (
	"time"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// AdminStudentListRequest filters the admin student directory.
type AdminStudentListRequest struct {
	Page            int    `validate:"omitempty,gte=1"`
	PageSize        int    `validate:"omitempty,gte=1,lte=100"`
	Search          string `validate:"omitempty,max=100"`
	Department      string `validate:"omitempty,max=128"`
	Year            string `validate:"omitempty,max=8"`
	Status          string `validate:"omitempty,oneof=in out"`
	IncludeInactive bool
}

// AdminStudentResponse is the admin view of a student record.
type AdminStudentResponse struct {
	StudentProfileResponse
	IsActive       bool      `json:"is_active"`
	LastGatePassID *uint     `json:"last_gate_pass_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AdminStudentListResponse wraps paginated students.
type AdminStudentListResponse struct {
	Items      []AdminStudentResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// NewAdminStudentResponse converts a student model into the admin DTO.
func NewAdminStudentResponse(model models.Student) AdminStudentResponse {
	return AdminStudentResponse{
		StudentProfileResponse: NewStudentProfileResponse(model),
		IsActive:               model.IsActive,
		LastGatePassID:         model.LastGatePassID,
		UpdatedAt:              model.UpdatedAt,
	}
}

// TeacherListRequest filters the admin teacher directory.
type TeacherListRequest struct {
	Page        int    `validate:"omitempty,gte=1"`
	PageSize    int    `validate:"omitempty,gte=1,lte=100"`
	Search      string `validate:"omitempty,max=100"`
	Department  string `validate:"omitempty,max=128"`
	Designation string `validate:"omitempty,max=128"`
}

// TeacherResponse serializes a faculty record.
type TeacherResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	EmployeeID  string    `json:"employee_id"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeacherListResponse wraps paginated teachers.
type TeacherListResponse struct {
	Items      []TeacherResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewTeacherResponse converts a teacher model into a DTO.
func NewTeacherResponse(model models.Teacher) TeacherResponse {
	return TeacherResponse{
		ID:          model.ID,
		Name:        model.Name,
		Email:       model.Email,
		EmployeeID:  model.EmployeeID,
		Department:  model.Department,
		Designation: model.Designation,
		Phone:       model.Phone,
		CreatedAt:   model.CreatedAt,
	}
}

package dto

import (
	"time"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// StudentProfileResponse is the full profile a student sees about themselves.
type StudentProfileResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	StudentCode     string    `json:"student_code"`
	RollNumber      string    `json:"roll_number"`
	Department      string    `json:"department"`
	Branch          string    `json:"branch"`
	Course          string    `json:"course"`
	Year            string    `json:"year"`
	CurrentSemester string    `json:"current_semester"`
	Phone           string    `json:"phone"`
	CurrentStatus   string    `json:"current_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewStudentProfileResponse converts a student model into a profile DTO.
func NewStudentProfileResponse(model models.Student) StudentProfileResponse {
	return StudentProfileResponse{
		ID:              model.ID,
		Name:            model.Name,
		Email:           model.Email,
		StudentCode:     model.StudentCode,
		RollNumber:      model.RollNumber,
		Department:      model.Department,
		Branch:          model.Branch,
		Course:          model.Course,
		Year:            model.Year,
		CurrentSemester: model.CurrentSemester,
		Phone:           model.Phone,
		CurrentStatus:   string(model.Status()),
		CreatedAt:       model.CreatedAt,
	}
}

package dto

import (
	"time"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// GatePassIssueRequest is sent by a student asking for a gate pass.
type GatePassIssueRequest struct {
	Destination string `json:"destination" validate:"omitempty,max=255"`
}

// GatePassScanRequest is sent by a guard after scanning a QR code.
type GatePassScanRequest struct {
	Token   string `json:"token" validate:"required"`
	Remarks string `json:"remarks" validate:"omitempty,max=200"`
}

// GateOverrideRequest lets an admin force a student's campus status.
type GateOverrideRequest struct {
	StudentID   uint   `json:"student_id" validate:"required,gt=0"`
	Action      string `json:"action" validate:"required,oneof=exit enter"`
	Destination string `json:"destination" validate:"omitempty,max=255"`
	Remarks     string `json:"remarks" validate:"omitempty,max=200"`
}

// GatePassListRequest filters gate pass listings.
type GatePassListRequest struct {
	Page       int        `query:"page" validate:"omitempty,gte=1"`
	PageSize   int        `query:"page_size" validate:"omitempty,gte=1,lte=100"`
	StudentID  *uint      `query:"student_id"`
	Action     string     `query:"action" validate:"omitempty,oneof=exit enter"`
	Status     string     `query:"status" validate:"omitempty,oneof=pending processed expired"`
	Department string     `query:"department"`
	Year       string     `query:"year"`
	IssuedFrom *time.Time `query:"-"`
	IssuedTo   *time.Time `query:"-"`
}

// ActiveStudentsRequest filters the list of students currently on campus.
type ActiveStudentsRequest struct {
	Page       int    `query:"page" validate:"omitempty,gte=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
	Department string `query:"department"`
	Year       string `query:"year"`
}

// GatePassResponse serializes a gate pass without its token.
type GatePassResponse struct {
	ID          uint                  `json:"id"`
	StudentID   uint                  `json:"student_id"`
	Holder      models.HolderSnapshot `json:"holder"`
	Destination string                `json:"destination"`
	Action      string                `json:"action"`
	Status      string                `json:"status"`
	IssuedAt    time.Time             `json:"issued_at"`
	ExpiresAt   time.Time             `json:"expires_at"`
	ProcessedBy *uint                 `json:"processed_by"`
	ProcessedAt *time.Time            `json:"processed_at"`
	Remarks     string                `json:"remarks"`
}

// GatePassIssueResponse is returned to the student right after issuance.
type GatePassIssueResponse struct {
	Pass            GatePassResponse `json:"pass"`
	Token           string           `json:"token"`
	QRCode          string           `json:"qr_code"`
	ValidForSeconds int              `json:"valid_for_seconds"`
}

// GateScanResponse describes a successful campus crossing.
type GateScanResponse struct {
	Event   string               `json:"event"`
	Message string               `json:"message"`
	Student HolderStatusResponse `json:"student"`
	Pass    GatePassResponse     `json:"pass"`
}

// HolderStatusResponse summarises a student and their campus status.
type HolderStatusResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	RollNumber    string `json:"roll_number"`
	StudentCode   string `json:"student_code"`
	Department    string `json:"department"`
	Year          string `json:"year"`
	Phone         string `json:"phone"`
	CurrentStatus string `json:"current_status"`
}

// GateStatusResponse reports a student's own status and most recent pass.
type GateStatusResponse struct {
	CurrentStatus string            `json:"current_status"`
	LastPass      *GatePassResponse `json:"last_pass"`
}

// GatePassListResponse wraps paginated gate passes.
type GatePassListResponse struct {
	Items      []GatePassResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// ActiveStudentsResponse wraps paginated students on campus.
type ActiveStudentsResponse struct {
	Items      []HolderStatusResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// NewGatePassResponse converts a gate pass model into a DTO.
func NewGatePassResponse(model models.GatePass) GatePassResponse {
	return GatePassResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		Holder:      model.Holder,
		Destination: model.Destination,
		Action:      string(model.Action),
		Status:      string(model.Status),
		IssuedAt:    model.IssuedAt,
		ExpiresAt:   model.ExpiresAt,
		ProcessedBy: model.ProcessedBy,
		ProcessedAt: model.ProcessedAt,
		Remarks:     model.Remarks,
	}
}

// NewGatePassResponseSlice converts gate pass models into DTOs.
func NewGatePassResponseSlice(passes []models.GatePass) []GatePassResponse {
	responses := make([]GatePassResponse, 0, len(passes))
	for _, pass := range passes {
		responses = append(responses, NewGatePassResponse(pass))
	}
	return responses
}

// NewHolderStatusResponse converts a student into a status summary.
func NewHolderStatusResponse(student models.Student) HolderStatusResponse {
	return HolderStatusResponse{
		ID:            student.ID,
		Name:          student.Name,
		RollNumber:    student.RollNumber,
		StudentCode:   student.StudentCode,
		Department:    student.Department,
		Year:          student.Year,
		Phone:         student.Phone,
		CurrentStatus: string(student.Status()),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

// StudentService exposes student self-service reads.
type StudentService interface {
	Profile(ctx context.Context, studentID uint) (dto.StudentProfileResponse, error)
}

type studentService struct {
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		students: students,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Profile(ctx context.Context, studentID uint) (dto.StudentProfileResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrHolderNotFound
		}
		return dto.StudentProfileResponse{}, fmt.Errorf("load student: %w", err)
	}
	if !student.IsActive {
		return dto.StudentProfileResponse{}, ErrHolderNotFound
	}

	return dto.NewStudentProfileResponse(student), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

// DirectoryService answers admin lookups of student and teacher records.
type DirectoryService interface {
	ListStudents(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	GetStudent(ctx context.Context, id uint) (dto.AdminStudentResponse, error)
	ListTeachers(ctx context.Context, req dto.TeacherListRequest) (dto.TeacherListResponse, error)
}

type directoryService struct {
	students  repository.StudentRepository
	teachers  repository.TeacherRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDirectoryService constructs the admin directory service.
func NewDirectoryService(students repository.StudentRepository, teachers repository.TeacherRepository, validate *validator.Validate, logger zerolog.Logger) DirectoryService {
	return &directoryService{
		students:  students,
		teachers:  teachers,
		validator: validate,
		logger:    logger.With().Str("component", "directory_service").Logger(),
	}
}

func (s *directoryService) ListStudents(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	students, total, err := s.students.List(ctx, repository.StudentFilter{
		Search:          strings.TrimSpace(req.Search),
		Department:      strings.TrimSpace(req.Department),
		Year:            strings.TrimSpace(req.Year),
		Status:          models.CampusStatus(req.Status),
		IncludeInactive: req.IncludeInactive,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return dto.AdminStudentListResponse{}, fmt.Errorf("list students: %w", err)
	}

	items := make([]dto.AdminStudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewAdminStudentResponse(student))
	}

	return dto.AdminStudentListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

// GetStudent returns inactive records too; admins need to see them.
func (s *directoryService) GetStudent(ctx context.Context, id uint) (dto.AdminStudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrHolderNotFound
		}
		return dto.AdminStudentResponse{}, fmt.Errorf("load student: %w", err)
	}

	return dto.NewAdminStudentResponse(student), nil
}

func (s *directoryService) ListTeachers(ctx context.Context, req dto.TeacherListRequest) (dto.TeacherListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TeacherListResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	teachers, total, err := s.teachers.List(ctx, repository.TeacherFilter{
		Search:      strings.TrimSpace(req.Search),
		Department:  strings.TrimSpace(req.Department),
		Designation: strings.TrimSpace(req.Designation),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		return dto.TeacherListResponse{}, fmt.Errorf("list teachers: %w", err)
	}

	items := make([]dto.TeacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		items = append(items, dto.NewTeacherResponse(teacher))
	}

	return dto.TeacherListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/handler"
	"github.com/noah-isme/campus-gate-api/internal/service"
)

type stubDirectoryService struct {
	studentReq dto.AdminStudentListRequest
	teacherReq dto.TeacherListRequest
	err        error
}

func (s *stubDirectoryService) ListStudents(_ context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	s.studentReq = req
	if s.err != nil {
		return dto.AdminStudentListResponse{}, s.err
	}
	return dto.AdminStudentListResponse{Pagination: dto.NewPaginationMeta(1, 20, 0)}, nil
}

func (s *stubDirectoryService) GetStudent(_ context.Context, id uint) (dto.AdminStudentResponse, error) {
	if id != 4 {
		return dto.AdminStudentResponse{}, service.ErrHolderNotFound
	}
	return dto.AdminStudentResponse{StudentProfileResponse: dto.StudentProfileResponse{ID: id}}, nil
}

func (s *stubDirectoryService) ListTeachers(_ context.Context, req dto.TeacherListRequest) (dto.TeacherListResponse, error) {
	s.teacherReq = req
	return dto.TeacherListResponse{Pagination: dto.NewPaginationMeta(1, 20, 0)}, nil
}

func newDirectoryApp(svc service.DirectoryService, role string) *fiber.App {
	app := fiber.New()
	handler.NewAdminDirectoryHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin", withSession(1, role)))
	return app
}

func TestAdminDirectoryHandler_ListStudentsFilters(t *testing.T) {
	svc := &stubDirectoryService{}
	app := newDirectoryApp(svc, "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/students?department=CSE&year=3rd&status=out&search=ria&include_inactive=true&page=2&page_size=5", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.AdminStudentListRequest{
		Page:            2,
		PageSize:        5,
		Search:          "ria",
		Department:      "CSE",
		Year:            "3rd",
		Status:          "out",
		IncludeInactive: true,
	}, svc.studentReq)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/teachers?designation=Professor", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Professor", svc.teacherReq.Designation)
}

func TestAdminDirectoryHandler_Errors(t *testing.T) {
	app := newDirectoryApp(&stubDirectoryService{}, "admin")

	cases := []struct {
		target string
		status int
	}{
		{"/api/v1/admin/students/4", fiber.StatusOK},
		{"/api/v1/admin/students/5", fiber.StatusNotFound},
		{"/api/v1/admin/students/abc", fiber.StatusBadRequest},
		{"/api/v1/admin/students?page=-1", fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.target, nil), -1)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.target)
	}

	invalid := newDirectoryApp(&stubDirectoryService{err: validator.ValidationErrors{}}, "admin")
	resp, err := invalid.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/students?status=away", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	forbidden := newDirectoryApp(&stubDirectoryService{}, "staff")
	resp, err = forbidden.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/teachers", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

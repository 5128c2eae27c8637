package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/handler"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/service"
)

type stubGatePassService struct {
	err error

	issuedFor   uint
	issueReq    dto.GatePassIssueRequest
	scannedBy   uint
	scanReq     dto.GatePassScanRequest
	overrideBy  service.ActivityActor
	listReq     dto.GatePassListRequest
	listMineFor uint
	activeReq   dto.ActiveStudentsRequest
}

func (s *stubGatePassService) Issue(_ context.Context, studentID uint, req dto.GatePassIssueRequest) (dto.GatePassIssueResponse, error) {
	s.issuedFor = studentID
	s.issueReq = req
	if s.err != nil {
		return dto.GatePassIssueResponse{}, s.err
	}
	return dto.GatePassIssueResponse{
		Pass:            samplePass(),
		Token:           "signed-token",
		QRCode:          "data:image/png;base64,AAAA",
		ValidForSeconds: 600,
	}, nil
}

func (s *stubGatePassService) Redeem(_ context.Context, operatorID uint, req dto.GatePassScanRequest) (dto.GateScanResponse, error) {
	s.scannedBy = operatorID
	s.scanReq = req
	if s.err != nil {
		return dto.GateScanResponse{}, s.err
	}
	pass := samplePass()
	pass.Status = "processed"
	return dto.GateScanResponse{
		Event:   "exit",
		Message: "Student exited campus",
		Student: dto.HolderStatusResponse{ID: pass.StudentID, Name: "Asha", CurrentStatus: "out"},
		Pass:    pass,
	}, nil
}

func (s *stubGatePassService) Override(_ context.Context, actor service.ActivityActor, _ dto.GateOverrideRequest) (dto.GatePassResponse, error) {
	s.overrideBy = actor
	if s.err != nil {
		return dto.GatePassResponse{}, s.err
	}
	return samplePass(), nil
}

func (s *stubGatePassService) CurrentStatus(context.Context, uint) (dto.GateStatusResponse, error) {
	if s.err != nil {
		return dto.GateStatusResponse{}, s.err
	}
	pass := samplePass()
	return dto.GateStatusResponse{CurrentStatus: "in", LastPass: &pass}, nil
}

func (s *stubGatePassService) ListMine(_ context.Context, studentID uint, req dto.GatePassListRequest) (dto.GatePassListResponse, error) {
	s.listMineFor = studentID
	s.listReq = req
	return dto.GatePassListResponse{Items: []dto.GatePassResponse{samplePass()}, Pagination: dto.NewPaginationMeta(1, 20, 1)}, s.err
}

func (s *stubGatePassService) ListAll(_ context.Context, req dto.GatePassListRequest) (dto.GatePassListResponse, error) {
	s.listReq = req
	return dto.GatePassListResponse{Items: []dto.GatePassResponse{samplePass()}, Pagination: dto.NewPaginationMeta(1, 20, 1)}, s.err
}

func (s *stubGatePassService) ActiveStudents(_ context.Context, req dto.ActiveStudentsRequest) (dto.ActiveStudentsResponse, error) {
	s.activeReq = req
	return dto.ActiveStudentsResponse{
		Items:      []dto.HolderStatusResponse{{ID: 3, Name: "Asha", CurrentStatus: "in"}},
		Pagination: dto.NewPaginationMeta(1, 20, 1),
	}, s.err
}

func (s *stubGatePassService) ExpireStale(context.Context) (int64, error) { return 0, nil }

func samplePass() dto.GatePassResponse {
	issued := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	return dto.GatePassResponse{
		ID:        11,
		StudentID: 3,
		Holder: models.HolderSnapshot{
			Name:       "Asha",
			RollNumber: "21CS001",
			Department: "CSE",
			Year:       "3rd",
		},
		Destination: "Library",
		Action:      "exit",
		Status:      "pending",
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(10 * time.Minute),
	}
}

func newGateApp(svc service.GatePassService, id uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/gate", withSession(id, role))
	handler.NewGatePassHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestGatePassHandler_IssueCreated(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 3, "student")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/gate/passes", map[string]string{"destination": "Library"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)

	var issued dto.GatePassIssueResponse
	require.NoError(t, json.Unmarshal(body.Data, &issued))
	require.Equal(t, "signed-token", issued.Token)
	require.Equal(t, uint(3), svc.issuedFor)
	require.Equal(t, "Library", svc.issueReq.Destination)
}

func TestGatePassHandler_IssueWithoutBody(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 3, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/gate/passes", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Empty(t, svc.issueReq.Destination)
}

func TestGatePassHandler_RoleGuards(t *testing.T) {
	cases := []struct {
		name   string
		id     uint
		role   string
		method string
		path   string
		status int
	}{
		{"anonymous issue", 0, "", http.MethodPost, "/api/v1/gate/passes", fiber.StatusUnauthorized},
		{"staff cannot issue", 5, "staff", http.MethodPost, "/api/v1/gate/passes", fiber.StatusForbidden},
		{"student cannot scan", 3, "student", http.MethodPost, "/api/v1/gate/scan", fiber.StatusForbidden},
		{"teacher cannot scan", 4, "teacher", http.MethodPost, "/api/v1/gate/scan", fiber.StatusForbidden},
		{"staff cannot override", 5, "staff", http.MethodPost, "/api/v1/gate/overrides", fiber.StatusForbidden},
		{"student cannot list all", 3, "student", http.MethodGet, "/api/v1/gate/passes", fiber.StatusForbidden},
		{"admin may view active", 1, "admin", http.MethodGet, "/api/v1/gate/active", fiber.StatusOK},
		{"staff may view active", 5, "staff", http.MethodGet, "/api/v1/gate/active", fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGateApp(&stubGatePassService{}, tc.id, tc.role)
			resp, err := app.Test(jsonRequest(t, tc.method, tc.path, map[string]string{"token": "x"}), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestGatePassHandler_ScanSuccess(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 9, "staff")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/gate/scan", map[string]string{
		"token":   "signed-token",
		"remarks": "bag checked",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "Student exited campus", body.Message)
	require.Equal(t, uint(9), svc.scannedBy)
	require.Equal(t, "bag checked", svc.scanReq.Remarks)
}

func TestGatePassHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidCredential, fiber.StatusBadRequest},
		{service.ErrCredentialExpired, fiber.StatusBadRequest},
		{service.ErrDestinationRequired, fiber.StatusBadRequest},
		{service.ErrAlreadyUsed, fiber.StatusConflict},
		{service.ErrStatusMismatch, fiber.StatusConflict},
		{service.ErrDuplicatePendingPass, fiber.StatusConflict},
		{service.ErrHolderNotFound, fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrAlreadyUsed), fiber.StatusConflict},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := newGateApp(&stubGatePassService{err: tc.err}, 9, "admin")
			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/gate/scan", map[string]string{"token": "t"}), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			if tc.status == fiber.StatusInternalServerError {
				require.Equal(t, "internal server error", body.Message)
			} else {
				require.Equal(t, tc.err.Error(), body.Message)
			}
		})
	}
}

func TestGatePassHandler_OverrideUsesActor(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 1, "admin")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/gate/overrides", map[string]interface{}{
		"student_id": 3,
		"action":     "enter",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, service.ActivityActor{ID: 1, Role: "admin"}, svc.overrideBy)
}

func TestGatePassHandler_ListFilters(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 1, "admin")

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/gate/passes?page=2&page_size=10&student_id=3&action=exit&status=processed&department=CSE&issued_from=2024-03-01&issued_to=2024-03-04", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, 2, svc.listReq.Page)
	require.Equal(t, 10, svc.listReq.PageSize)
	require.NotNil(t, svc.listReq.StudentID)
	require.Equal(t, uint(3), *svc.listReq.StudentID)
	require.Equal(t, "exit", svc.listReq.Action)
	require.Equal(t, "processed", svc.listReq.Status)
	require.Equal(t, "CSE", svc.listReq.Department)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *svc.listReq.IssuedFrom)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), *svc.listReq.IssuedTo)
}

func TestGatePassHandler_ListRejectsBadQuery(t *testing.T) {
	app := newGateApp(&stubGatePassService{}, 1, "admin")

	for _, query := range []string{"page=oops", "page_size=-1", "student_id=abc", "issued_from=yesterday"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gate/passes?"+query, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestGatePassHandler_ListMineScopesToSession(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 3, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gate/passes/mine?status=expired", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.listMineFor)
	require.Equal(t, "expired", svc.listReq.Status)
}

func TestGatePassHandler_ActiveFilters(t *testing.T) {
	svc := &stubGatePassService{}
	app := newGateApp(svc, 5, "staff")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/gate/active?department=ECE&year=2nd", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "ECE", svc.activeReq.Department)
	require.Equal(t, "2nd", svc.activeReq.Year)
}

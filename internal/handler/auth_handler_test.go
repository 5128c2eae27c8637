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

type stubAuthService struct {
	sendErr   error
	verifyErr error
	meRole    models.Role
	meID      uint
}

func (s *stubAuthService) SendOTP(_ context.Context, req dto.OTPSendRequest) (dto.OTPSendResponse, error) {
	if s.sendErr != nil {
		return dto.OTPSendResponse{}, s.sendErr
	}
	return dto.OTPSendResponse{Email: req.Email, Role: "student", ExpiresAt: time.Now().Add(10 * time.Minute)}, nil
}

func (s *stubAuthService) VerifyOTP(context.Context, dto.OTPVerifyRequest) (dto.AuthResponse, error) {
	if s.verifyErr != nil {
		return dto.AuthResponse{}, s.verifyErr
	}
	return dto.AuthResponse{Token: "session", Role: "student", User: dto.IdentityProfile{ID: 3, Role: "student"}}, nil
}

func (s *stubAuthService) Me(_ context.Context, role models.Role, id uint) (dto.IdentityProfile, error) {
	s.meRole = role
	s.meID = id
	return dto.IdentityProfile{ID: id, Role: string(role)}, nil
}

func (s *stubAuthService) PurgeStaleCodes(context.Context) (int64, error) { return 0, nil }

func newAuthApp(svc service.AuthService, session, limiter fiber.Handler) *fiber.App {
	app := fiber.New()
	handler.NewAuthHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/auth"), session, limiter)
	return app
}

func TestAuthHandler_SendOTP(t *testing.T) {
	app := newAuthApp(&stubAuthService{}, nil, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "a@campus.test"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "login code sent", body.Message)
}

func TestAuthHandler_SendOTPErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrUnknownAccount, fiber.StatusUnauthorized},
		{service.ErrOTPCooldown, fiber.StatusTooManyRequests},
		{fmt.Errorf("%w: smtp down", service.ErrOTPDelivery), fiber.StatusBadGateway},
		{errors.New("db down"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := newAuthApp(&stubAuthService{sendErr: tc.err}, nil, nil)
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "a@campus.test"}), -1)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestAuthHandler_VerifyReportsRemainingAttempts(t *testing.T) {
	app := newAuthApp(&stubAuthService{verifyErr: &service.OTPMismatchError{Remaining: 2}}, nil, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{
		"email": "a@campus.test",
		"otp":   "123456",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var details map[string]int
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.Equal(t, 2, details["remaining_attempts"])
}

func TestAuthHandler_VerifySuccess(t *testing.T) {
	app := newAuthApp(&stubAuthService{}, nil, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{
		"email": "a@campus.test",
		"otp":   "123456",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body.Data, &auth))
	require.Equal(t, "session", auth.Token)
}

func TestAuthHandler_MeRequiresSession(t *testing.T) {
	svc := &stubAuthService{}

	app := newAuthApp(svc, withSession(0, ""), nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = newAuthApp(svc, withSession(5, "staff"), nil)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.RoleStaff, svc.meRole)
	require.Equal(t, uint(5), svc.meID)
}

func TestAuthHandler_LimiterGuardsOTPRoutesOnly(t *testing.T) {
	blocked := func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	}
	app := newAuthApp(&stubAuthService{}, withSession(5, "staff"), blocked)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "a@campus.test"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

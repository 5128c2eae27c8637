package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/middleware"
	"github.com/noah-isme/campus-gate-api/internal/service"
	"github.com/noah-isme/campus-gate-api/internal/utils"
)

// AuthHandler exposes the email login code flow.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes. The login code routes sit behind limiter, /me behind session.
func (h *AuthHandler) Register(router fiber.Router, session, limiter fiber.Handler) {
	if session == nil {
		session = passthrough
	}
	if limiter == nil {
		limiter = passthrough
	}

	router.Post("/otp", limiter, h.sendOTP)
	router.Post("/otp/verify", limiter, h.verifyOTP)
	router.Get("/me", session, middleware.WithAuth(h.me, middleware.AuthOptions{RequireUser: true}))
}

func (h *AuthHandler) sendOTP(c *fiber.Ctx) error {
	var payload dto.OTPSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SendOTP(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login code sent", response)
}

func (h *AuthHandler) verifyOTP(c *fiber.Ctx) error {
	var payload dto.OTPVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.VerifyOTP(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	role, ok := sessionRole(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	profile, err := h.service.Me(c.UserContext(), role, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	var (
		validationErrors validator.ValidationErrors
		mismatch         *service.OTPMismatchError
	)
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrUnknownAccount):
		return utils.SendError(c, fiber.StatusUnauthorized, "no active account for this email")
	case errors.Is(err, service.ErrOTPCooldown):
		return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
	case errors.As(err, &mismatch):
		return utils.Fail(c, fiber.StatusUnauthorized, "invalid login code", fiber.Map{
			"remaining_attempts": mismatch.Remaining,
		})
	case errors.Is(err, service.ErrOTPInvalid):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired login code")
	case errors.Is(err, service.ErrOTPDelivery):
		requestLogger(h.logger, c).Warn().Err(err).Msg("login code delivery failed")
		return utils.SendError(c, fiber.StatusBadGateway, "failed to deliver login code")
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("auth operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

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

// GatePassHandler exposes the campus gate endpoints.
type GatePassHandler struct {
	service service.GatePassService
	logger  zerolog.Logger
}

// NewGatePassHandler constructs the gate pass handler.
func NewGatePassHandler(service service.GatePassService, logger zerolog.Logger) *GatePassHandler {
	return &GatePassHandler{
		service: service,
		logger:  logger.With().Str("component", "gate_pass_handler").Logger(),
	}
}

// Register attaches gate routes to an authenticated router group.
func (h *GatePassHandler) Register(router fiber.Router) {
	student := middleware.AuthOptions{Role: middleware.AuthRoleStudent}
	staff := middleware.AuthOptions{Role: middleware.AuthRoleStaff}
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Post("/passes", middleware.WithAuth(h.issue, student))
	router.Get("/passes/mine", middleware.WithAuth(h.listMine, student))
	router.Get("/status", middleware.WithAuth(h.status, student))
	router.Post("/scan", middleware.WithAuth(h.scan, staff))
	router.Get("/active", middleware.WithAuth(h.active, staff))
	router.Get("/passes", middleware.WithAuth(h.listAll, admin))
	router.Post("/overrides", middleware.WithAuth(h.override, admin))
}

func (h *GatePassHandler) issue(c *fiber.Ctx) error {
	var payload dto.GatePassIssueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	response, err := h.service.Issue(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "gate pass issued", response)
}

func (h *GatePassHandler) scan(c *fiber.Ctx) error {
	var payload dto.GatePassScanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Redeem(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, response.Message, response)
}

func (h *GatePassHandler) override(c *fiber.Ctx) error {
	var payload dto.GateOverrideRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Override(c.UserContext(), activityActorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "campus status overridden", response)
}

func (h *GatePassHandler) status(c *fiber.Ctx) error {
	response, err := h.service.CurrentStatus(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gate status retrieved", response)
}

func (h *GatePassHandler) listMine(c *fiber.Ctx) error {
	req, err := parseGatePassList(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListMine(c.UserContext(), userIDFromContext(c), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gate passes retrieved", response)
}

func (h *GatePassHandler) listAll(c *fiber.Ctx) error {
	req, err := parseGatePassList(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	req.StudentID = studentID
	req.Department = c.Query("department")
	req.Year = c.Query("year")

	response, err := h.service.ListAll(c.UserContext(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gate passes retrieved", response)
}

func (h *GatePassHandler) active(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ActiveStudents(c.UserContext(), dto.ActiveStudentsRequest{
		Page:       page,
		PageSize:   pageSize,
		Department: c.Query("department"),
		Year:       c.Query("year"),
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students on campus retrieved", response)
}

func parseGatePassList(c *fiber.Ctx) (dto.GatePassListRequest, error) {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return dto.GatePassListRequest{}, err
	}
	from, err := parseQueryTime(c, "issued_from", false)
	if err != nil {
		return dto.GatePassListRequest{}, err
	}
	to, err := parseQueryTime(c, "issued_to", true)
	if err != nil {
		return dto.GatePassListRequest{}, err
	}

	return dto.GatePassListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		Status:     c.Query("status"),
		IssuedFrom: from,
		IssuedTo:   to,
	}, nil
}

func (h *GatePassHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrInvalidCredential),
		errors.Is(err, service.ErrCredentialExpired),
		errors.Is(err, service.ErrDestinationRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyUsed),
		errors.Is(err, service.ErrStatusMismatch),
		errors.Is(err, service.ErrDuplicatePendingPass):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrHolderNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("gate operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

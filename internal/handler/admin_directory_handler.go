package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/middleware"
	"github.com/noah-isme/campus-gate-api/internal/service"
	"github.com/noah-isme/campus-gate-api/internal/utils"
)

// AdminDirectoryHandler serves admin student and teacher listings.
type AdminDirectoryHandler struct {
	service service.DirectoryService
	logger  zerolog.Logger
}

// NewAdminDirectoryHandler constructs the handler.
func NewAdminDirectoryHandler(service service.DirectoryService, logger zerolog.Logger) *AdminDirectoryHandler {
	return &AdminDirectoryHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_directory_handler").Logger(),
	}
}

// Register attaches directory routes to the admin router group.
func (h *AdminDirectoryHandler) Register(router fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}
	router.Get("/students", middleware.WithAuth(h.listStudents, admin))
	router.Get("/students/:id", middleware.WithAuth(h.getStudent, admin))
	router.Get("/teachers", middleware.WithAuth(h.listTeachers, admin))
}

func (h *AdminDirectoryHandler) listStudents(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListStudents(c.UserContext(), dto.AdminStudentListRequest{
		Page:            page,
		PageSize:        pageSize,
		Search:          c.Query("search"),
		Department:      c.Query("department"),
		Year:            c.Query("year"),
		Status:          c.Query("status"),
		IncludeInactive: c.QueryBool("include_inactive"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to list students")
	}

	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *AdminDirectoryHandler) getStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.GetStudent(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "failed to load student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *AdminDirectoryHandler) listTeachers(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListTeachers(c.UserContext(), dto.TeacherListRequest{
		Page:        page,
		PageSize:    pageSize,
		Search:      c.Query("search"),
		Department:  c.Query("department"),
		Designation: c.Query("designation"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to list teachers")
	}

	return utils.SendSuccess(c, "teachers retrieved", response)
}

func (h *AdminDirectoryHandler) handleError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrHolderNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(msg)
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

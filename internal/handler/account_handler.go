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

// AccountHandler serves read-only bank account records to admins.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register attaches account routes. Static paths go before /:id.
func (h *AccountHandler) Register(router fiber.Router) {
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}
	router.Get("", middleware.WithAuth(h.list, admin))
	router.Get("/statistics", middleware.WithAuth(h.statistics, admin))
	router.Get("/holder/:holderType/:holderId", middleware.WithAuth(h.byHolder, admin))
	router.Get("/:id", middleware.WithAuth(h.get, admin))
	router.Get("/:id/balance", middleware.WithAuth(h.balance, admin))
}

func (h *AccountHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.List(c.UserContext(), dto.AccountListRequest{
		Page:        page,
		PageSize:    pageSize,
		AccountType: c.Query("account_type"),
		Status:      c.Query("status"),
		BankName:    c.Query("bank_name"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to list accounts")
	}

	return utils.SendSuccess(c, "accounts retrieved", response)
}

func (h *AccountHandler) statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return h.handleError(c, err, "failed to summarise accounts")
	}
	return utils.SendSuccess(c, "account statistics retrieved", stats)
}

func (h *AccountHandler) byHolder(c *fiber.Ctx) error {
	holderID, err := parseUintParam(c, "holderId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid holder identifier")
	}

	response, err := h.service.ListByHolder(c.UserContext(), dto.AccountHolderRequest{
		HolderType: c.Params("holderType"),
		HolderID:   holderID,
	})
	if err != nil {
		return h.handleError(c, err, "failed to list holder accounts")
	}

	return utils.SendSuccess(c, "accounts retrieved", response)
}

func (h *AccountHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	account, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "failed to load account")
	}

	return utils.SendSuccess(c, "account retrieved", account)
}

func (h *AccountHandler) balance(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	balance, err := h.service.Balance(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "failed to load account balance")
	}

	return utils.SendSuccess(c, "account balance retrieved", balance)
}

func (h *AccountHandler) handleError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAccountNotActive):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(msg)
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

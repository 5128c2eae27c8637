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

var (
	// ErrAccountNotFound indicates the account does not exist or was retired.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNotActive indicates a balance was requested for a non-active account.
	ErrAccountNotActive = errors.New("account is not active")
)

// AccountService exposes read-only bank account records to admins.
type AccountService interface {
	List(ctx context.Context, req dto.AccountListRequest) (dto.AccountListResponse, error)
	Get(ctx context.Context, id uint) (dto.AccountResponse, error)
	Balance(ctx context.Context, id uint) (dto.AccountBalanceResponse, error)
	ListByHolder(ctx context.Context, req dto.AccountHolderRequest) (dto.AccountHolderResponse, error)
	Statistics(ctx context.Context) (dto.AccountStatisticsResponse, error)
}

type accountService struct {
	repo      repository.AccountRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(repo repository.AccountRepository, validate *validator.Validate, logger zerolog.Logger) AccountService {
	return &accountService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "account_service").Logger(),
	}
}

func (s *accountService) List(ctx context.Context, req dto.AccountListRequest) (dto.AccountListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountListResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	accounts, total, err := s.repo.List(ctx, repository.AccountFilter{
		AccountType: strings.ToLower(strings.TrimSpace(req.AccountType)),
		Status:      models.AccountStatus(req.Status),
		BankName:    req.BankName,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		return dto.AccountListResponse{}, fmt.Errorf("list accounts: %w", err)
	}

	return dto.AccountListResponse{
		Items:      toAccountResponses(accounts),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *accountService) Get(ctx context.Context, id uint) (dto.AccountResponse, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return dto.AccountResponse{}, err
	}
	return dto.NewAccountResponse(account), nil
}

func (s *accountService) Balance(ctx context.Context, id uint) (dto.AccountBalanceResponse, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return dto.AccountBalanceResponse{}, err
	}
	if account.Status != models.AccountStatusActive {
		return dto.AccountBalanceResponse{}, ErrAccountNotActive
	}

	return dto.AccountBalanceResponse{
		AccountNumber:  account.AccountNumber,
		CurrentBalance: account.CurrentBalance,
		Status:         string(account.Status),
	}, nil
}

func (s *accountService) ListByHolder(ctx context.Context, req dto.AccountHolderRequest) (dto.AccountHolderResponse, error) {
	req.HolderType = strings.ToLower(strings.TrimSpace(req.HolderType))
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountHolderResponse{}, err
	}

	accounts, err := s.repo.ListByHolder(ctx, models.Role(req.HolderType), req.HolderID)
	if err != nil {
		return dto.AccountHolderResponse{}, fmt.Errorf("list holder accounts: %w", err)
	}

	items := toAccountResponses(accounts)
	return dto.AccountHolderResponse{
		HolderType: req.HolderType,
		HolderID:   req.HolderID,
		Items:      items,
		Total:      len(items),
	}, nil
}

func (s *accountService) Statistics(ctx context.Context) (dto.AccountStatisticsResponse, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return dto.AccountStatisticsResponse{}, fmt.Errorf("account statistics: %w", err)
	}

	return dto.AccountStatisticsResponse{
		TotalAccounts:  stats.TotalAccounts,
		ActiveAccounts: stats.ActiveAccounts,
		TotalBalance:   stats.TotalBalance,
		ByType:         toGroupCounts(stats.ByType),
		ByStatus:       toGroupCounts(stats.ByStatus),
	}, nil
}

func (s *accountService) load(ctx context.Context, id uint) (models.BankAccount, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BankAccount{}, ErrAccountNotFound
		}
		return models.BankAccount{}, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func toAccountResponses(accounts []models.BankAccount) []dto.AccountResponse {
	items := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, dto.NewAccountResponse(account))
	}
	return items
}

func toGroupCounts(rows []repository.AccountGroupCount) []dto.AccountGroupCount {
	counts := make([]dto.AccountGroupCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, dto.AccountGroupCount{Label: row.Label, Count: row.Count})
	}
	return counts
}

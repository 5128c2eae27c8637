package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// GatePassFilter narrows gate pass queries.
type GatePassFilter struct {
	StudentID  *uint
	Action     models.PassAction
	Status     models.PassStatus
	Department string
	Year       string
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Page       int
	PageSize   int
}

// RedeemParams describes a pending pass being applied to its holder.
type RedeemParams struct {
	PassID      uint
	StudentID   uint
	From        models.CampusStatus
	To          models.CampusStatus
	ProcessedBy uint
	ProcessedAt time.Time
	Remarks     string
}

// GatePassRepository persists gate passes and applies their status transitions.
type GatePassRepository interface {
	Create(ctx context.Context, pass *models.GatePass) error
	GetByID(ctx context.Context, id uint) (models.GatePass, error)
	FindByToken(ctx context.Context, token string) (models.GatePass, error)
	FindPendingByStudent(ctx context.Context, studentID uint) (models.GatePass, error)
	LatestByStudent(ctx context.Context, studentID uint) (models.GatePass, error)
	List(ctx context.Context, filter GatePassFilter) ([]models.GatePass, int64, error)
	MarkExpired(ctx context.Context, id uint) (bool, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	Redeem(ctx context.Context, params RedeemParams) error
	RecordOverride(ctx context.Context, pass *models.GatePass) error
}

type gatePassRepository struct {
	db *gorm.DB
}

// NewGatePassRepository constructs the gate pass store.
func NewGatePassRepository(db *gorm.DB) GatePassRepository {
	return &gatePassRepository{db: db}
}

func (r *gatePassRepository) Create(ctx context.Context, pass *models.GatePass) error {
	if err := r.db.WithContext(ctx).Create(pass).Error; err != nil {
		if pass.Status == models.PassStatusPending && isUniqueViolation(err) {
			return ErrPendingPassExists
		}
		return err
	}
	return nil
}

func (r *gatePassRepository) GetByID(ctx context.Context, id uint) (models.GatePass, error) {
	var pass models.GatePass
	if err := r.db.WithContext(ctx).First(&pass, id).Error; err != nil {
		return models.GatePass{}, err
	}
	return pass, nil
}

func (r *gatePassRepository) FindByToken(ctx context.Context, token string) (models.GatePass, error) {
	var pass models.GatePass
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&pass).Error; err != nil {
		return models.GatePass{}, err
	}
	return pass, nil
}

func (r *gatePassRepository) FindPendingByStudent(ctx context.Context, studentID uint) (models.GatePass, error) {
	var pass models.GatePass
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.PassStatusPending).
		First(&pass).Error
	if err != nil {
		return models.GatePass{}, err
	}
	return pass, nil
}

func (r *gatePassRepository) LatestByStudent(ctx context.Context, studentID uint) (models.GatePass, error) {
	var pass models.GatePass
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("issued_at DESC").
		Order("id DESC").
		First(&pass).Error
	if err != nil {
		return models.GatePass{}, err
	}
	return pass, nil
}

func (r *gatePassRepository) List(ctx context.Context, filter GatePassFilter) ([]models.GatePass, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.GatePass{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Department != "" {
		query = query.Where("holder_department = ?", filter.Department)
	}
	if filter.Year != "" {
		query = query.Where("holder_year = ?", filter.Year)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issued_at >= ?", filter.IssuedFrom.UTC())
	}
	if filter.IssuedTo != nil {
		query = query.Where("issued_at <= ?", filter.IssuedTo.UTC())
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var passes []models.GatePass
	if err := paginate(query, filter.Page, filter.PageSize).Order("issued_at DESC").Order("id DESC").Find(&passes).Error; err != nil {
		return nil, 0, err
	}

	return passes, total, nil
}

// MarkExpired moves a pending pass to expired. It reports false when the pass had
// already left the pending state.
func (r *gatePassRepository) MarkExpired(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.GatePass{}).
		Where("id = ? AND status = ?", id, models.PassStatusPending).
		Update("status", models.PassStatusExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gatePassRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.GatePass{}).
		Where("status = ? AND expires_at < ?", models.PassStatusPending, now.UTC()).
		Update("status", models.PassStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Redeem marks the pass processed and toggles the holder status in one transaction.
// Both writes are guarded on the values read by the caller: a pass that is no longer
// pending (or is past expiry) yields ErrPassNotPending, a holder whose status moved
// yields ErrHolderStatusChanged, and in either case nothing is written.
func (r *gatePassRepository) Redeem(ctx context.Context, params RedeemParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.GatePass{}).
			Where("id = ? AND student_id = ? AND status = ? AND expires_at >= ?",
				params.PassID, params.StudentID, models.PassStatusPending, params.ProcessedAt.UTC()).
			Updates(map[string]interface{}{
				"status":       models.PassStatusProcessed,
				"processed_by": params.ProcessedBy,
				"processed_at": params.ProcessedAt.UTC(),
				"remarks":      params.Remarks,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPassNotPending
		}

		return transitionHolderStatus(tx, params.StudentID, params.From, params.To, params.PassID)
	})
}

// RecordOverride stores an already processed pass and forces the holder into the
// status implied by its action.
func (r *gatePassRepository) RecordOverride(ctx context.Context, pass *models.GatePass) error {
	if pass.Status != models.PassStatusProcessed {
		return errors.New("override pass must be processed")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pass).Error; err != nil {
			return err
		}
		return forceHolderStatus(tx, pass.StudentID, pass.Action.Target(), pass.ID)
	})
}

package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
}

// StudentFilter narrows the admin student directory.
type StudentFilter struct {
	Search          string
	Department      string
	Year            string
	Status          models.CampusStatus
	IncludeInactive bool
	Page            int
	PageSize        int
}

// HolderStatusFilter narrows the students listed by campus status.
type HolderStatusFilter struct {
	Status     models.CampusStatus
	Department string
	Year       string
	Page       int
	PageSize   int
}

// HolderStatusRepository reads the campus status of students.
type HolderStatusRepository interface {
	Get(ctx context.Context, studentID uint) (models.HolderStatus, error)
	List(ctx context.Context, filter HolderStatusFilter) ([]models.Student, int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(roll_number) LIKE ?", like, like, like)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Year != "" {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Status != "" {
		query = query.Where("current_status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query, filter.Page, filter.PageSize).Order("created_at DESC, id DESC").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

type holderStatusRepository struct {
	db *gorm.DB
}

// NewHolderStatusRepository constructs the campus status store.
func NewHolderStatusRepository(db *gorm.DB) HolderStatusRepository {
	return &holderStatusRepository{db: db}
}

func (r *holderStatusRepository) Get(ctx context.Context, studentID uint) (models.HolderStatus, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Select("id", "current_status", "last_gate_pass_id", "is_active").
		First(&student, studentID).Error
	if err != nil {
		return models.HolderStatus{}, err
	}

	return models.HolderStatus{
		StudentID:      student.ID,
		CurrentStatus:  student.Status(),
		LastGatePassID: student.LastGatePassID,
		IsActive:       student.IsActive,
	}, nil
}

func (r *holderStatusRepository) List(ctx context.Context, filter HolderStatusFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("is_active = ?", true)

	if filter.Status != "" {
		query = query.Where("current_status = ?", filter.Status)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Year != "" {
		query = query.Where("year = ?", filter.Year)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query, filter.Page, filter.PageSize).Order("name ASC").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// transitionHolderStatus moves a student from one campus status to another only if
// the stored status still equals from. It must run inside the caller's transaction.
func transitionHolderStatus(tx *gorm.DB, studentID uint, from, to models.CampusStatus, passID uint) error {
	result := tx.Model(&models.Student{}).
		Where("id = ? AND current_status = ?", studentID, from).
		Updates(map[string]interface{}{
			"current_status":    to,
			"last_gate_pass_id": passID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHolderStatusChanged
	}
	return nil
}

// forceHolderStatus sets the campus status unconditionally. Overrides only.
func forceHolderStatus(tx *gorm.DB, studentID uint, to models.CampusStatus, passID uint) error {
	result := tx.Model(&models.Student{}).
		Where("id = ?", studentID).
		Updates(map[string]interface{}{
			"current_status":    to,
			"last_gate_pass_id": passID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

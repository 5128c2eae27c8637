package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// TeacherFilter narrows the admin teacher directory.
type TeacherFilter struct {
	Search      string
	Department  string
	Designation string
	Page        int
	PageSize    int
}

// TeacherRepository reads faculty records.
type TeacherRepository interface {
	List(ctx context.Context, filter TeacherFilter) ([]models.Teacher, int64, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) List(ctx context.Context, filter TeacherFilter) ([]models.Teacher, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Teacher{}).Where("is_active = ?", true)

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Designation != "" {
		query = query.Where("designation = ?", filter.Designation)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teachers []models.Teacher
	if err := paginate(query, filter.Page, filter.PageSize).Order("created_at DESC, id DESC").Find(&teachers).Error; err != nil {
		return nil, 0, err
	}

	return teachers, total, nil
}

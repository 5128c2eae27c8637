package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// IdentityRepository resolves login identities across every account table.
type IdentityRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (models.Identity, error)
	FindActiveByID(ctx context.Context, role models.Role, id uint) (models.Identity, error)
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository constructs the identity lookup.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

// FindActiveByEmail checks students, teachers, admins and staff in that order and
// returns the first active match, or gorm.ErrRecordNotFound.
func (r *identityRepository) FindActiveByEmail(ctx context.Context, email string) (models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.Identity{}, gorm.ErrRecordNotFound
	}

	for _, role := range []models.Role{models.RoleStudent, models.RoleTeacher, models.RoleAdmin, models.RoleStaff} {
		identity, err := r.find(ctx, role, "email = ?", email)
		if err == nil {
			return identity, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Identity{}, err
		}
	}

	return models.Identity{}, gorm.ErrRecordNotFound
}

func (r *identityRepository) FindActiveByID(ctx context.Context, role models.Role, id uint) (models.Identity, error) {
	return r.find(ctx, role, "id = ?", id)
}

func (r *identityRepository) find(ctx context.Context, role models.Role, cond string, arg interface{}) (models.Identity, error) {
	query := r.db.WithContext(ctx).Where(cond, arg).Where("is_active = ?", true)

	switch role {
	case models.RoleStudent:
		var record models.Student
		if err := query.First(&record).Error; err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: role, Student: &record}, nil
	case models.RoleTeacher:
		var record models.Teacher
		if err := query.First(&record).Error; err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: role, Teacher: &record}, nil
	case models.RoleAdmin:
		var record models.Admin
		if err := query.First(&record).Error; err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: role, Admin: &record}, nil
	case models.RoleStaff:
		var record models.NonTeachingStaff
		if err := query.First(&record).Error; err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: role, Staff: &record}, nil
	default:
		return models.Identity{}, gorm.ErrRecordNotFound
	}
}

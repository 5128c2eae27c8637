package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

func TestDirectoryListStudentsFiltersAndPaginates(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDirectoryService(repository.NewStudentRepository(db), repository.NewTeacherRepository(db), testValidator(), testLogger())
	ctx := context.Background()

	createStudent(t, db, "21CS300", models.CampusStatusIn)
	away := createStudent(t, db, "21CS301", models.CampusStatusOut)
	retired := createStudent(t, db, "21CS302", models.CampusStatusIn)
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	resp, err := svc.ListStudents(ctx, dto.AdminStudentListRequest{Status: "out"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, away.ID, resp.Items[0].ID)
	require.Equal(t, "out", resp.Items[0].CurrentStatus)
	require.True(t, resp.Items[0].IsActive)

	resp, err = svc.ListStudents(ctx, dto.AdminStudentListRequest{PageSize: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, int64(2), resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.True(t, resp.Pagination.HasNext)

	resp, err = svc.ListStudents(ctx, dto.AdminStudentListRequest{IncludeInactive: true})
	require.NoError(t, err)
	require.Equal(t, int64(3), resp.Pagination.TotalItems)

	_, err = svc.ListStudents(ctx, dto.AdminStudentListRequest{Status: "away"})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestDirectoryGetStudentIncludesInactive(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDirectoryService(repository.NewStudentRepository(db), repository.NewTeacherRepository(db), testValidator(), testLogger())

	retired := createStudent(t, db, "21CS303", models.CampusStatusIn)
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	resp, err := svc.GetStudent(context.Background(), retired.ID)
	require.NoError(t, err)
	require.False(t, resp.IsActive)
	require.Equal(t, "21CS303", resp.RollNumber)

	_, err = svc.GetStudent(context.Background(), 999)
	require.ErrorIs(t, err, ErrHolderNotFound)
}

func TestDirectoryListTeachers(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDirectoryService(repository.NewStudentRepository(db), repository.NewTeacherRepository(db), testValidator(), testLogger())

	require.NoError(t, db.Create(&models.Teacher{Name: "Asha Rao", Email: "asha@campus.test", EmployeeID: "E10", Department: "CSE", Designation: "Professor", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Teacher{Name: "Vik Das", Email: "vik@campus.test", EmployeeID: "E11", Department: "ECE", Designation: "Lecturer", IsActive: true}).Error)

	resp, err := svc.ListTeachers(context.Background(), dto.TeacherListRequest{Department: " CSE "})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "E10", resp.Items[0].EmployeeID)
	require.Equal(t, 20, resp.Pagination.PageSize)
}

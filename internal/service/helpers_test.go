package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func ptrUint(v uint) *uint {
	return &v
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "campus.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.Admin{},
		&models.NonTeachingStaff{},
		&models.GatePass{},
		&models.OTPCode{},
		&models.ActivityLog{},
		&models.BankAccount{},
	))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, roll string, status models.CampusStatus) models.Student {
	t.Helper()
	student := models.Student{
		Name:          "Student " + roll,
		Email:         strings.ToLower(roll) + "@campus.test",
		StudentCode:   "S-" + roll,
		RollNumber:    roll,
		Department:    "CSE",
		Year:          "3rd",
		Phone:         "9000000000",
		IsActive:      true,
		CurrentStatus: status,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func loadStudent(t *testing.T, db *gorm.DB, id uint) models.Student {
	t.Helper()
	var student models.Student
	require.NoError(t, db.First(&student, id).Error)
	return student
}

func loadPass(t *testing.T, db *gorm.DB, id uint) models.GatePass {
	t.Helper()
	var pass models.GatePass
	require.NoError(t, db.First(&pass, id).Error)
	return pass
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []GateEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event GateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrPendingPassExists is returned when a student already holds a pending gate pass.
	ErrPendingPassExists = errors.New("pending gate pass already exists")
	// ErrPassNotPending is returned when a status-guarded pass update finds the pass
	// already resolved or past its expiry.
	ErrPassNotPending = errors.New("gate pass is no longer pending")
	// ErrHolderStatusChanged is returned when the holder's campus status moved away
	// from the expected value before the write.
	ErrHolderStatusChanged = errors.New("holder campus status changed")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

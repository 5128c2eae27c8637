package models

import "strings"

// Role tags the kind of account behind an authenticated identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
)

// ParseRole normalises a role string, returning false for unknown roles.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	default:
		return "", false
	}
}

// Identity is an account resolved once at authentication time. Exactly one of the
// typed record pointers is set, matching Role.
type Identity struct {
	Role    Role
	Student *Student
	Teacher *Teacher
	Admin   *Admin
	Staff   *NonTeachingStaff
}

// ID returns the primary key of the underlying record.
func (i Identity) ID() uint {
	switch i.Role {
	case RoleStudent:
		if i.Student != nil {
			return i.Student.ID
		}
	case RoleTeacher:
		if i.Teacher != nil {
			return i.Teacher.ID
		}
	case RoleAdmin:
		if i.Admin != nil {
			return i.Admin.ID
		}
	case RoleStaff:
		if i.Staff != nil {
			return i.Staff.ID
		}
	}
	return 0
}

// Name returns the display name of the underlying record.
func (i Identity) Name() string {
	switch {
	case i.Student != nil:
		return i.Student.Name
	case i.Teacher != nil:
		return i.Teacher.Name
	case i.Admin != nil:
		return i.Admin.Name
	case i.Staff != nil:
		return i.Staff.Name
	}
	return ""
}

// Email returns the login email of the underlying record.
func (i Identity) Email() string {
	switch {
	case i.Student != nil:
		return i.Student.Email
	case i.Teacher != nil:
		return i.Teacher.Email
	case i.Admin != nil:
		return i.Admin.Email
	case i.Staff != nil:
		return i.Staff.Email
	}
	return ""
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleCitizen   UserRole = "CITIZEN"
	UserRoleModerator UserRole = "MODERATOR"
	UserRoleAdmin     UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCitizen, UserRoleModerator, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	Id         uuid.UUID
	Phone      string
	Name       *string
	Email      *string
	Role       UserRole
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserWithReportCount is the admin listing projection.
type UserWithReportCount struct {
	User
	ReportCount int64
}

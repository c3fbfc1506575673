package specification

import (
	"gorm.io/gorm"
)

type ByPhone struct {
	Phone string
}

func (s ByPhone) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("phone = ?", s.Phone)
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

type ByVerified struct {
	Verified bool
}

func (s ByVerified) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_verified = ?", s.Verified)
}

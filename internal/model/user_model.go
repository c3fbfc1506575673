package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Phone      string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Name       *string   `gorm:"type:varchar(255)"`
	Email      *string   `gorm:"type:varchar(255)"`
	Role       string    `gorm:"type:varchar(20);not null;default:'CITIZEN';index"`
	IsVerified bool      `gorm:"default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

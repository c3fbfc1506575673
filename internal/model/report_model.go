package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Report struct {
	Id             uuid.UUID                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title          string                         `gorm:"type:varchar(255);not null"`
	Description    string                         `gorm:"type:text;not null"`
	Category       string                         `gorm:"type:varchar(50);not null;index"`
	SubCategory    *string                        `gorm:"type:varchar(100)"`
	Priority       string                         `gorm:"type:varchar(20);not null;default:'MEDIUM';index"`
	Status         string                         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Latitude       float64                        `gorm:"not null"`
	Longitude      float64                        `gorm:"not null"`
	Address        string                         `gorm:"type:text;not null"`
	Landmark       *string                        `gorm:"type:varchar(255)"`
	Images         datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	ImageEmbedding *pgvector.Vector               `gorm:"type:vector"` // NULL when the image could not be embedded
	SimilarReports datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	DuplicateOfId  *uuid.UUID                     `gorm:"type:uuid"`
	Upvotes        int                            `gorm:"not null;default:0"`
	ReporterId     uuid.UUID                      `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time                      `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time                      `gorm:"autoUpdateTime"`
}

func (Report) TableName() string {
	return "reports"
}

type StatusUpdate struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    string    `gorm:"type:varchar(20);not null"`
	Message   string    `gorm:"type:text"`
	UpdatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (StatusUpdate) TableName() string {
	return "status_updates"
}

type Vote struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_report"`
	ReportId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_report;index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (Vote) TableName() string {
	return "votes"
}

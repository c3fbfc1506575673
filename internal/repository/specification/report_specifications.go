package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reports.category = ?", s.Category)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reports.status = ?", s.Status)
}

type ByPriority struct {
	Priority string
}

func (s ByPriority) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reports.priority = ?", s.Priority)
}

type ReportedBy struct {
	ReporterID uuid.UUID
}

func (s ReportedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reports.reporter_id = ?", s.ReporterID)
}

// HasEmbedding restricts reports to the similarity population.
type HasEmbedding struct{}

func (s HasEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reports.image_embedding IS NOT NULL")
}

type ByReportID struct {
	ReportID uuid.UUID
}

func (s ByReportID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("report_id = ?", s.ReportID)
}

// CreatedSince keeps rows created at or after Since.
type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}

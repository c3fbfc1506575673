package dto

import (
	"time"

	"github.com/google/uuid"
)

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address   string   `json:"address" validate:"required,max=500"`
	Landmark  *string  `json:"landmark" validate:"omitempty,max=255"`
}

type CreateReportRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Description string          `json:"description" validate:"required,min=10,max=5000"`
	Category    string          `json:"category" validate:"required"`
	SubCategory *string         `json:"sub_category" validate:"omitempty,max=100"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Location    LocationRequest `json:"location" validate:"required"`
	Images      []string        `json:"images" validate:"max=5,dive,required,max=2048"`
}

type CreateReportResponse struct {
	Report             ReportResponse                `json:"report"`
	SimilarReports     []SimilarityCandidateResponse `json:"similar_reports"`
	EmbeddingGenerated bool                          `json:"embedding_generated"`
}

type CheckDuplicatesRequest struct {
	Images []string `json:"images" validate:"required,min=1,max=5,dive,required,max=2048"`
}

type CheckDuplicatesResponse struct {
	Candidates         []SimilarityCandidateResponse `json:"candidates"`
	EmbeddingGenerated bool                          `json:"embedding_generated"`
}

type SimilarityCandidateResponse struct {
	ReportId   uuid.UUID `json:"report_id"`
	Similarity float64   `json:"similarity"`
	Status     string    `json:"status"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

// SimilarReportsRequest is the standalone lookup by vector. Radius filtering
// applies only when latitude, longitude and radius_meters are all present.
type SimilarReportsRequest struct {
	Embedding    []float32 `json:"embedding" validate:"required,min=1"`
	Threshold    *float64  `json:"threshold" validate:"omitempty,gte=0,lte=1"`
	Limit        *int      `json:"limit" validate:"omitempty,gte=1,lte=50"`
	Latitude     *float64  `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64  `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	RadiusMeters *float64  `json:"radius_meters" validate:"omitempty,gt=0,lte=50000"`
}

type SimilarReportResponse struct {
	ReportResponse
	Similarity float64 `json:"similarity"`
}

type SimilarReportsResponse struct {
	SimilarReports []SimilarReportResponse `json:"similar_reports"`
	Count          int                     `json:"count"`
}

// SearchFilter is the closed set of list filters.
type SearchFilter struct {
	Page     int    `query:"page" validate:"gte=1"`
	Limit    int    `query:"limit" validate:"gte=1,lte=100"`
	Category string `query:"category" validate:"omitempty,oneof=ROADS_TRANSPORT UTILITIES ENVIRONMENT PUBLIC_SAFETY INFRASTRUCTURE WASTE_MANAGEMENT PARKS_RECREATION HOUSING HEALTH_SANITATION OTHER"`
	Status   string `query:"status" validate:"omitempty,oneof=PENDING ACKNOWLEDGED IN_PROGRESS RESOLVED REJECTED DUPLICATE"`
	Priority string `query:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

type MyReportsFilter struct {
	Page   int    `query:"page" validate:"gte=1"`
	Limit  int    `query:"limit" validate:"gte=1,lte=100"`
	Status string `query:"status" validate:"omitempty,oneof=all PENDING ACKNOWLEDGED IN_PROGRESS RESOLVED REJECTED DUPLICATE"`
}

type ReporterResponse struct {
	Id    uuid.UUID `json:"id"`
	Phone string    `json:"phone"`
	Name  *string   `json:"name"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Landmark  *string `json:"landmark"`
}

type ReportResponse struct {
	Id             uuid.UUID         `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	SubCategory    *string           `json:"sub_category"`
	Priority       string            `json:"priority"`
	Status         string            `json:"status"`
	Location       LocationResponse  `json:"location"`
	Images         []string          `json:"images"`
	SimilarReports []uuid.UUID       `json:"similar_reports"`
	DuplicateOfId  *uuid.UUID        `json:"duplicate_of_id"`
	Upvotes        int               `json:"upvotes"`
	VotesCount     int64             `json:"votes_count"`
	Reporter       *ReporterResponse `json:"reporter,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ReportListResponse struct {
	Reports    []ReportResponse `json:"reports"`
	Pagination Pagination       `json:"pagination"`
}

type StatusUpdateResponse struct {
	Id        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedBy uuid.UUID `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportDetailResponse struct {
	ReportResponse
	StatusUpdates []StatusUpdateResponse `json:"status_updates"`
	HasVoted      bool                   `json:"has_voted"`
}

type UpdateStatusRequest struct {
	Id            uuid.UUID  `json:"-"`
	Status        string     `json:"status" validate:"required,oneof=PENDING ACKNOWLEDGED IN_PROGRESS RESOLVED REJECTED DUPLICATE"`
	Message       string     `json:"message" validate:"max=1000"`
	DuplicateOfId *uuid.UUID `json:"duplicate_of_id"`
}

type UpdateStatusResponse struct {
	Report       ReportResponse       `json:"report"`
	StatusUpdate StatusUpdateResponse `json:"status_update"`
}

type ToggleVoteResponse struct {
	Voted   bool `json:"voted"`
	Upvotes int  `json:"upvotes"`
}

// PublishEmbedReportMessage is the backfill queue payload.
type PublishEmbedReportMessage struct {
	ReportId uuid.UUID `json:"report_id"`
}

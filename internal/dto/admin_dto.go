package dto

import "github.com/google/uuid"

type AdminStatsResponse struct {
	TotalReports    int64            `json:"total_reports"`
	PendingReports  int64            `json:"pending_reports"`
	ResolvedReports int64            `json:"resolved_reports"`
	TotalUsers      int64            `json:"total_users"`
	RecentReports   []ReportResponse `json:"recent_reports"`
}

type AdminUserFilter struct {
	Role     string `query:"role" validate:"omitempty,oneof=CITIZEN MODERATOR ADMIN"`
	Verified string `query:"verified" validate:"omitempty,oneof=true false"`
}

type AdminUserResponse struct {
	UserResponse
	ReportCount int64 `json:"report_count"`
}

type AdminUpdateUserRequest struct {
	Id         uuid.UUID `json:"-"`
	Role       *string   `json:"role" validate:"omitempty,oneof=CITIZEN MODERATOR ADMIN"`
	IsVerified *bool     `json:"is_verified"`
}

type LogListResponse struct {
	Logs  []LogEntryResponse `json:"logs"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type LogEntryResponse struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Module    string                 `json:"module,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

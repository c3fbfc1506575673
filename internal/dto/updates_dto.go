package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	UpdateTypeStatusChange = "report_status_change"
	UpdateTypeVote         = "vote_update"
)

type UpdateItem struct {
	Type      string                 `json:"type"`
	ReportId  uuid.UUID              `json:"report_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

type PollUpdatesResponse struct {
	Updates   []UpdateItem `json:"updates"`
	Timestamp time.Time    `json:"timestamp"`
}

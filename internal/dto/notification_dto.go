package dto

import "metrocare-be/internal/model"

type NotificationListResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Total         int64                `json:"total"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

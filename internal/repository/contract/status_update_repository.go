package contract

import (
	"context"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/repository/specification"

	"github.com/google/uuid"
)

// StatusUpdateFeedItem is a status update joined with its report for the updates feed.
type StatusUpdateFeedItem struct {
	Update        *entity.StatusUpdate
	ReportTitle   string
	CurrentStatus entity.ReportStatus
}

type StatusUpdateRepository interface {
	Create(ctx context.Context, update *entity.StatusUpdate) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error)
	FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*StatusUpdateFeedItem, error)
}

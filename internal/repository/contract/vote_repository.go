package contract

import (
	"context"
	"time"

	"metrocare-be/internal/entity"

	"github.com/google/uuid"
)

type VoteFeedItem struct {
	Vote        *entity.Vote
	ReportTitle string
}

type VoteRepository interface {
	FindByUserAndReport(ctx context.Context, userId, reportId uuid.UUID) (*entity.Vote, error)
	Create(ctx context.Context, vote *entity.Vote) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByReport(ctx context.Context, reportId uuid.UUID) (int64, error)
	CountByReports(ctx context.Context, reportIds []uuid.UUID) (map[uuid.UUID]int64, error)
	FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*VoteFeedItem, error)
}

package service

import (
	"context"
	"slices"
	"time"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/repository/unitofwork"
)

const (
	pollWindow    = 5 * time.Minute
	pollKindLimit = 10
)

type IUpdatesService interface {
	// Poll returns status changes and votes on the caller's reports since
	// lastCheck. A zero lastCheck means the last five minutes.
	Poll(ctx context.Context, lastCheck time.Time) (*dto.PollUpdatesResponse, error)
}

type updatesService struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

func NewUpdatesService(uowFactory unitofwork.RepositoryFactory) IUpdatesService {
	return &updatesService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (s *updatesService) Poll(ctx context.Context, lastCheck time.Time) (*dto.PollUpdatesResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if lastCheck.IsZero() {
		lastCheck = now.Add(-pollWindow)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	statusUpdates, err := uow.StatusUpdateRepository().FindForReporterSince(ctx, caller.UserId, lastCheck, pollKindLimit)
	if err != nil {
		return nil, err
	}
	votes, err := uow.VoteRepository().FindForReporterSince(ctx, caller.UserId, lastCheck, pollKindLimit)
	if err != nil {
		return nil, err
	}

	updates := make([]dto.UpdateItem, 0, len(statusUpdates)+len(votes))
	for _, item := range statusUpdates {
		updates = append(updates, dto.UpdateItem{
			Type:     dto.UpdateTypeStatusChange,
			ReportId: item.Update.ReportId,
			Data: map[string]interface{}{
				"title":          item.ReportTitle,
				"status":         string(item.Update.Status),
				"current_status": string(item.CurrentStatus),
				"message":        item.Update.Message,
				"updated_by":     item.Update.UpdatedBy,
			},
			Timestamp: item.Update.CreatedAt,
		})
	}
	for _, item := range votes {
		updates = append(updates, dto.UpdateItem{
			Type:     dto.UpdateTypeVote,
			ReportId: item.Vote.ReportId,
			Data: map[string]interface{}{
				"title":    item.ReportTitle,
				"voter_id": item.Vote.UserId,
			},
			Timestamp: item.Vote.CreatedAt,
		})
	}

	slices.SortStableFunc(updates, func(a, b dto.UpdateItem) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return &dto.PollUpdatesResponse{Updates: updates, Timestamp: now}, nil
}

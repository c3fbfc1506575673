package unitofwork

import (
	"context"

	"metrocare-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ReportRepository() contract.ReportRepository
	StatusUpdateRepository() contract.StatusUpdateRepository
	VoteRepository() contract.VoteRepository
	NotificationRepository() contract.NotificationRepository
}

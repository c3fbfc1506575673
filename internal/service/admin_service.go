package service

import (
	"context"
	"errors"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/admin/dashboard"
	"metrocare-be/pkg/admin/user"
)

type IAdminService interface {
	GetDashboardStats(ctx context.Context) (*dto.AdminStatsResponse, error)

	// User Management
	GetAllUsers(ctx context.Context, filter dto.AdminUserFilter) ([]dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, req dto.AdminUpdateUserRequest) (*dto.UserResponse, error)

	// Logs
	GetSystemLogs(ctx context.Context, page, limit int, level string) (*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogEntryResponse, error)
}

type adminService struct {
	uowFactory          unitofwork.RepositoryFactory
	logger              logger.ILogger
	dashboardAggregator *dashboard.Aggregator
	userManager         *user.Manager
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
	dashboardAggregator *dashboard.Aggregator,
	userManager *user.Manager,
) IAdminService {
	return &adminService{
		uowFactory:          uowFactory,
		logger:              logger,
		dashboardAggregator: dashboardAggregator,
		userManager:         userManager,
	}
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stats, err := s.dashboardAggregator.GetStats(ctx, uow)
	if err != nil {
		return nil, err
	}

	recent, err := summarizeReports(ctx, uow, stats.RecentReports)
	if err != nil {
		return nil, err
	}

	return &dto.AdminStatsResponse{
		TotalReports:    stats.TotalReports,
		PendingReports:  stats.PendingReports,
		ResolvedReports: stats.ResolvedReports,
		TotalUsers:      stats.TotalUsers,
		RecentReports:   recent,
	}, nil
}

func (s *adminService) GetAllUsers(ctx context.Context, filter dto.AdminUserFilter) ([]dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := s.userManager.FindAll(ctx, uow, filter)
	if err != nil {
		return nil, err
	}
	return mapper.UsersWithCountToResponse(users), nil
}

func (s *adminService) UpdateUser(ctx context.Context, req dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	actor, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := s.userManager.Update(ctx, uow, actor, req)
	if err != nil {
		return nil, err
	}

	res := mapper.UserToResponse(updated)
	return &res, nil
}

func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level string) (*dto.LogListResponse, error) {
	logs, err := s.dashboardAggregator.GetSystemLogs(s.logger, page, limit, level)
	if err != nil {
		return nil, err
	}

	res := &dto.LogListResponse{Logs: make([]dto.LogEntryResponse, len(logs)), Page: page, Limit: limit}
	for i, l := range logs {
		res.Logs[i] = mapper.LogToResponse(l)
	}
	return res, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*dto.LogEntryResponse, error) {
	entry, err := s.dashboardAggregator.GetLogDetail(s.logger, logId)
	if err != nil {
		if errors.Is(err, logger.ErrLogNotFound) {
			return nil, apperror.NotFound("log entry not found")
		}
		return nil, err
	}
	res := mapper.LogToResponse(*entry)
	return &res, nil
}

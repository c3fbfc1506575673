package dashboard

import (
	"context"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
)

const recentReportsLimit = 10

// Stats is the moderation dashboard snapshot.
type Stats struct {
	TotalReports    int64
	PendingReports  int64
	ResolvedReports int64
	TotalUsers      int64
	RecentReports   []*entity.Report
}

// Aggregator handles dashboard statistics
type Aggregator struct {
	logger logger.ILogger
}

func NewAggregator(logger logger.ILogger) *Aggregator {
	return &Aggregator{
		logger: logger,
	}
}

// GetStats retrieves dashboard statistics
func (a *Aggregator) GetStats(ctx context.Context, uow unitofwork.UnitOfWork) (*Stats, error) {
	reports := uow.ReportRepository()

	total, err := reports.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := reports.Count(ctx, specification.ByStatus{Status: string(entity.ReportStatusPending)})
	if err != nil {
		return nil, err
	}
	resolved, err := reports.Count(ctx, specification.ByStatus{Status: string(entity.ReportStatusResolved)})
	if err != nil {
		return nil, err
	}

	totalUsers, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := reports.FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: recentReportsLimit},
	)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalReports:    total,
		PendingReports:  pending,
		ResolvedReports: resolved,
		TotalUsers:      totalUsers,
		RecentReports:   recent,
	}, nil
}

// GetSystemLogs retrieves system logs
func (a *Aggregator) GetSystemLogs(loggerSvc logger.ILogger, page, limit int, level string) ([]logger.LogEntry, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return loggerSvc.GetLogs(level, limit, (page-1)*limit)
}

// GetLogDetail retrieves a single log entry
func (a *Aggregator) GetLogDetail(loggerSvc logger.ILogger, logId string) (*logger.LogEntry, error) {
	return loggerSvc.GetLogById(logId)
}

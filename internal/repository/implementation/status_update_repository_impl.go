package implementation

import (
	"context"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/model"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusUpdateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportMapper
}

func NewStatusUpdateRepository(db *gorm.DB) contract.StatusUpdateRepository {
	return &StatusUpdateRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportMapper(),
	}
}

func (r *StatusUpdateRepositoryImpl) Create(ctx context.Context, update *entity.StatusUpdate) error {
	m := r.mapper.StatusUpdateToModel(update)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*update = *r.mapper.StatusUpdateToEntity(m)
	return nil
}

func (r *StatusUpdateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error) {
	var models []*model.StatusUpdate
	query := r.db.WithContext(ctx).Model(&model.StatusUpdate{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	updates := make([]*entity.StatusUpdate, len(models))
	for i, m := range models {
		updates[i] = r.mapper.StatusUpdateToEntity(m)
	}
	return updates, nil
}

func (r *StatusUpdateRepositoryImpl) FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*contract.StatusUpdateFeedItem, error) {
	type row struct {
		model.StatusUpdate
		ReportTitle   string
		CurrentStatus string
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("status_updates").
		Select("status_updates.*, reports.title AS report_title, reports.status AS current_status").
		Joins("JOIN reports ON reports.id = status_updates.report_id").
		Where("reports.reporter_id = ?", reporterId).
		Where("status_updates.created_at >= ?", since).
		Order("status_updates.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*contract.StatusUpdateFeedItem, len(rows))
	for i := range rows {
		items[i] = &contract.StatusUpdateFeedItem{
			Update:        r.mapper.StatusUpdateToEntity(&rows[i].StatusUpdate),
			ReportTitle:   rows[i].ReportTitle,
			CurrentStatus: entity.ReportStatus(rows[i].CurrentStatus),
		}
	}
	return items, nil
}

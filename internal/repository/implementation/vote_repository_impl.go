package implementation

import (
	"context"
	"errors"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/model"
	"metrocare-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportMapper
}

func NewVoteRepository(db *gorm.DB) contract.VoteRepository {
	return &VoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportMapper(),
	}
}

func (r *VoteRepositoryImpl) FindByUserAndReport(ctx context.Context, userId, reportId uuid.UUID) (*entity.Vote, error) {
	var m model.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND report_id = ?", userId, reportId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VoteToEntity(&m), nil
}

func (r *VoteRepositoryImpl) Create(ctx context.Context, vote *entity.Vote) error {
	m := &model.Vote{
		Id:       vote.Id,
		UserId:   vote.UserId,
		ReportId: vote.ReportId,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*vote = *r.mapper.VoteToEntity(m)
	return nil
}

func (r *VoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Vote{}).Error
}

func (r *VoteRepositoryImpl) CountByReport(ctx context.Context, reportId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).Where("report_id = ?", reportId).Count(&count).Error
	return count, err
}

func (r *VoteRepositoryImpl) CountByReports(ctx context.Context, reportIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(reportIds))
	if len(reportIds) == 0 {
		return counts, nil
	}

	type row struct {
		ReportId uuid.UUID
		Total    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("report_id, COUNT(*) AS total").
		Where("report_id IN ?", reportIds).
		Group("report_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		counts[rw.ReportId] = rw.Total
	}
	return counts, nil
}

func (r *VoteRepositoryImpl) FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*contract.VoteFeedItem, error) {
	type row struct {
		model.Vote
		ReportTitle string
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("votes").
		Select("votes.*, reports.title AS report_title").
		Joins("JOIN reports ON reports.id = votes.report_id").
		Where("reports.reporter_id = ?", reporterId).
		Where("votes.created_at >= ?", since).
		Order("votes.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*contract.VoteFeedItem, len(rows))
	for i := range rows {
		items[i] = &contract.VoteFeedItem{
			Vote:        r.mapper.VoteToEntity(&rows[i].Vote),
			ReportTitle: rows[i].ReportTitle,
		}
	}
	return items, nil
}

package mapper

import (
	"metrocare-be/internal/entity"
	"metrocare-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}

	var embedding []float32
	if r.ImageEmbedding != nil {
		embedding = r.ImageEmbedding.Slice()
	}

	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	similar := []uuid.UUID(r.SimilarReports)
	if similar == nil {
		similar = []uuid.UUID{}
	}

	return &entity.Report{
		Id:          r.Id,
		Title:       r.Title,
		Description: r.Description,
		Category:    entity.Category(r.Category),
		SubCategory: r.SubCategory,
		Priority:    entity.Priority(r.Priority),
		Status:      entity.ReportStatus(r.Status),
		Location: entity.Location{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Address:   r.Address,
			Landmark:  r.Landmark,
		},
		Images:         images,
		ImageEmbedding: embedding,
		SimilarReports: similar,
		DuplicateOfId:  r.DuplicateOfId,
		Upvotes:        r.Upvotes,
		ReporterId:     r.ReporterId,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (m *ReportMapper) ToModel(r *entity.Report) *model.Report {
	if r == nil {
		return nil
	}

	var embedding *pgvector.Vector
	if len(r.ImageEmbedding) > 0 {
		v := pgvector.NewVector(r.ImageEmbedding)
		embedding = &v
	}

	return &model.Report{
		Id:             r.Id,
		Title:          r.Title,
		Description:    r.Description,
		Category:       string(r.Category),
		SubCategory:    r.SubCategory,
		Priority:       string(r.Priority),
		Status:         string(r.Status),
		Latitude:       r.Location.Latitude,
		Longitude:      r.Location.Longitude,
		Address:        r.Location.Address,
		Landmark:       r.Location.Landmark,
		Images:         r.Images,
		ImageEmbedding: embedding,
		SimilarReports: r.SimilarReports,
		DuplicateOfId:  r.DuplicateOfId,
		Upvotes:        r.Upvotes,
		ReporterId:     r.ReporterId,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (m *ReportMapper) ToEntities(reports []*model.Report) []*entity.Report {
	entities := make([]*entity.Report, len(reports))
	for i, r := range reports {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *ReportMapper) ToVector(r *model.Report) *entity.ReportVector {
	if r == nil || r.ImageEmbedding == nil {
		return nil
	}
	return &entity.ReportVector{
		Id:             r.Id,
		ImageEmbedding: r.ImageEmbedding.Slice(),
		Status:         entity.ReportStatus(r.Status),
		Category:       entity.Category(r.Category),
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *ReportMapper) StatusUpdateToEntity(s *model.StatusUpdate) *entity.StatusUpdate {
	if s == nil {
		return nil
	}
	return &entity.StatusUpdate{
		Id:        s.Id,
		ReportId:  s.ReportId,
		Status:    entity.ReportStatus(s.Status),
		Message:   s.Message,
		UpdatedBy: s.UpdatedBy,
		CreatedAt: s.CreatedAt,
	}
}

func (m *ReportMapper) StatusUpdateToModel(s *entity.StatusUpdate) *model.StatusUpdate {
	if s == nil {
		return nil
	}
	return &model.StatusUpdate{
		Id:        s.Id,
		ReportId:  s.ReportId,
		Status:    string(s.Status),
		Message:   s.Message,
		UpdatedBy: s.UpdatedBy,
		CreatedAt: s.CreatedAt,
	}
}

func (m *ReportMapper) VoteToEntity(v *model.Vote) *entity.Vote {
	if v == nil {
		return nil
	}
	return &entity.Vote{
		Id:        v.Id,
		UserId:    v.UserId,
		ReportId:  v.ReportId,
		CreatedAt: v.CreatedAt,
	}
}

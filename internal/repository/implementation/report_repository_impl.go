package implementation

import (
	"context"
	"errors"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/model"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportMapper
}

func NewReportRepository(db *gorm.DB) contract.ReportRepository {
	return &ReportRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportMapper(),
	}
}

func (r *ReportRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReportRepositoryImpl) Create(ctx context.Context, report *entity.Report) error {
	m := r.mapper.ToModel(report)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	var m model.Report
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Report{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReportRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	var models []*model.Report
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Report{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ReportRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Report{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ReportRepositoryImpl) FindVectors(ctx context.Context, specs ...specification.Specification) ([]*entity.ReportVector, error) {
	var models []*model.Report
	query := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Select("id", "image_embedding", "status", "category", "latitude", "longitude", "created_at")
	query = r.applySpecifications(query, append([]specification.Specification{specification.HasEmbedding{}}, specs...)...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	vectors := make([]*entity.ReportVector, 0, len(models))
	for _, m := range models {
		if v := r.mapper.ToVector(m); v != nil {
			vectors = append(vectors, v)
		}
	}
	return vectors, nil
}

func (r *ReportRepositoryImpl) SearchNearest(ctx context.Context, query []float32, limit int) ([]*contract.ScoredReportVector, error) {
	if limit <= 0 {
		limit = 50
	}

	// pgvector cosine distance is 1 - cosine_similarity.
	type result struct {
		model.Report
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(query)

	err := r.db.WithContext(ctx).
		Table("reports").
		Select("reports.id, reports.image_embedding, reports.status, reports.category, reports.latitude, reports.longitude, reports.created_at, 1 - (reports.image_embedding <=> ?) AS similarity", queryVector).
		Where("reports.image_embedding IS NOT NULL").
		Where("vector_dims(reports.image_embedding) = ?", len(query)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "reports.image_embedding <=> ?",
			Vars:               []interface{}{queryVector},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredReportVector, 0, len(results))
	for i := range results {
		v := r.mapper.ToVector(&results[i].Report)
		if v == nil {
			continue
		}
		scored = append(scored, &contract.ScoredReportVector{
			Vector:     v,
			Similarity: results[i].Similarity,
		})
	}
	return scored, nil
}

func (r *ReportRepositoryImpl) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	var value interface{}
	if len(embedding) > 0 {
		value = pgvector.NewVector(embedding)
	}
	res := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ?", id).
		Update("image_embedding", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ReportRepositoryImpl) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var m model.Report
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReportRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReportStatus, duplicateOf *uuid.UUID) error {
	updates := map[string]interface{}{
		"status":          string(status),
		"duplicate_of_id": duplicateOf,
	}
	return r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *ReportRepositoryImpl) AdjustUpvotes(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("GREATEST(upvotes + ?, 0)", delta)).Error
}

package implementation

import (
	"context"
	"errors"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/model"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/specification"

	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var modelUsers []*model.User
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	users := make([]*entity.User, len(modelUsers))
	for i, u := range modelUsers {
		users[i] = r.mapper.ToEntity(u)
	}
	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) FindAllWithReportCount(ctx context.Context, specs ...specification.Specification) ([]*entity.UserWithReportCount, error) {
	type row struct {
		model.User
		ReportCount int64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("users").
		Select("users.*, (SELECT COUNT(*) FROM reports WHERE reports.reporter_id = users.id) AS report_count")
	query = r.applySpecifications(query, specs...)

	if err := query.Order("users.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*entity.UserWithReportCount, len(rows))
	for i := range rows {
		users[i] = &entity.UserWithReportCount{
			User:        *r.mapper.ToEntity(&rows[i].User),
			ReportCount: rows[i].ReportCount,
		}
	}
	return users, nil
}

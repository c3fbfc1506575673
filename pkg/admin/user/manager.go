package user

import (
	"context"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
)

// Manager handles user-related admin operations
type Manager struct {
	logger logger.ILogger
}

func NewManager(logger logger.ILogger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// FindAll lists users with their report counts, newest first.
func (m *Manager) FindAll(ctx context.Context, uow unitofwork.UnitOfWork, filter dto.AdminUserFilter) ([]*entity.UserWithReportCount, error) {
	var specs []specification.Specification
	if filter.Role != "" {
		specs = append(specs, specification.ByRole{Role: filter.Role})
	}
	if filter.Verified != "" {
		specs = append(specs, specification.ByVerified{Verified: filter.Verified == "true"})
	}
	return uow.UserRepository().FindAllWithReportCount(ctx, specs...)
}

// Update changes role and verification. Only an ADMIN may grant ADMIN.
func (m *Manager) Update(ctx context.Context, uow unitofwork.UnitOfWork, actor identity.Caller, req dto.AdminUpdateUserRequest) (*entity.User, error) {
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		if !role.Valid() {
			return nil, apperror.BadRequest("invalid role")
		}
		if role == entity.UserRoleAdmin && actor.Role != identity.RoleAdmin {
			return nil, apperror.Forbidden("only admins can grant admin role")
		}
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	if req.Role != nil {
		user.Role = entity.UserRole(*req.Role)
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}

	m.logger.Info("ADMIN", "Updated user", map[string]interface{}{
		"userId":      user.Id.String(),
		"role":        string(user.Role),
		"is_verified": user.IsVerified,
		"admin":       actor.UserId.String(),
	})
	return user, nil
}

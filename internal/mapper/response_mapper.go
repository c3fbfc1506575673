package mapper

import (
	"metrocare-be/internal/dto"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/pkg/similarity"

	"github.com/google/uuid"
)

// ReportToResponse converts a report to its API shape. reporter may be nil.
func ReportToResponse(r *entity.Report, votes int64, reporter *entity.User) dto.ReportResponse {
	res := dto.ReportResponse{
		Id:          r.Id,
		Title:       r.Title,
		Description: r.Description,
		Category:    string(r.Category),
		SubCategory: r.SubCategory,
		Priority:    string(r.Priority),
		Status:      string(r.Status),
		Location: dto.LocationResponse{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Address:   r.Location.Address,
			Landmark:  r.Location.Landmark,
		},
		Images:         r.Images,
		SimilarReports: r.SimilarReports,
		DuplicateOfId:  r.DuplicateOfId,
		Upvotes:        r.Upvotes,
		VotesCount:     votes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if res.Images == nil {
		res.Images = []string{}
	}
	if res.SimilarReports == nil {
		res.SimilarReports = []uuid.UUID{}
	}
	if reporter != nil {
		res.Reporter = &dto.ReporterResponse{
			Id:    reporter.Id,
			Phone: reporter.Phone,
			Name:  reporter.Name,
		}
	}
	return res
}

func CandidatesToResponse(candidates []similarity.Candidate) []dto.SimilarityCandidateResponse {
	res := make([]dto.SimilarityCandidateResponse, len(candidates))
	for i, c := range candidates {
		res[i] = dto.SimilarityCandidateResponse{
			ReportId:   c.ReportId,
			Similarity: c.Similarity,
			Status:     c.Status,
			Category:   c.Category,
			CreatedAt:  c.CreatedAt,
		}
	}
	return res
}

func StatusUpdateToResponse(u *entity.StatusUpdate) dto.StatusUpdateResponse {
	return dto.StatusUpdateResponse{
		Id:        u.Id,
		Status:    string(u.Status),
		Message:   u.Message,
		UpdatedBy: u.UpdatedBy,
		CreatedAt: u.CreatedAt,
	}
}

func UserToResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		Id:         u.Id,
		Phone:      u.Phone,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// UsersWithCountToResponse converts the admin listing projection.
func UsersWithCountToResponse(users []*entity.UserWithReportCount) []dto.AdminUserResponse {
	res := make([]dto.AdminUserResponse, len(users))
	for i, u := range users {
		res[i] = dto.AdminUserResponse{
			UserResponse: UserToResponse(&u.User),
			ReportCount:  u.ReportCount,
		}
	}
	return res
}

func LogToResponse(l logger.LogEntry) dto.LogEntryResponse {
	return dto.LogEntryResponse{
		Id:        l.Id,
		Timestamp: l.Timestamp,
		Level:     l.Level,
		Message:   l.Message,
		Module:    l.Module,
		Details:   l.Details,
	}
}

package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"metrocare-be/internal/config"
	"metrocare-be/internal/dto"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/events"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/dedup"

	"github.com/google/uuid"
)

const reportModule = "ReportService"

type IReportService interface {
	Create(ctx context.Context, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error)
	CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.CheckDuplicatesResponse, error)
	FindSimilar(ctx context.Context, req *dto.SimilarReportsRequest) (*dto.SimilarReportsResponse, error)
	List(ctx context.Context, filter *dto.SearchFilter) (*dto.ReportListResponse, error)
	MyReports(ctx context.Context, filter *dto.MyReportsFilter) (*dto.ReportListResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ReportDetailResponse, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error)
	ToggleVote(ctx context.Context, reportId uuid.UUID) (*dto.ToggleVoteResponse, error)
}

type reportService struct {
	uowFactory       unitofwork.RepositoryFactory
	gate             *dedup.Gate
	population       ReportPopulation
	publisherService IPublisherService
	eventPublisher   events.Publisher
	cfg              config.DedupConfig
	logger           logger.ILogger
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	gate *dedup.Gate,
	population ReportPopulation,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	cfg config.DedupConfig,
	logger logger.ILogger,
) IReportService {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	return &reportService{
		uowFactory:       uowFactory,
		gate:             gate,
		population:       population,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		cfg:              cfg,
		logger:           logger,
	}
}

func (s *reportService) Create(ctx context.Context, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	category := entity.Category(req.Category)
	if !category.Valid() {
		return nil, apperror.BadRequest("invalid category")
	}
	if req.SubCategory != nil && !category.AllowsSubcategory(*req.SubCategory) {
		return nil, apperror.BadRequest("subcategory does not belong to category")
	}
	priority := entity.PriorityMedium
	if req.Priority != "" {
		priority = entity.Priority(req.Priority)
	}
	if len(req.Images) > s.cfg.MaxImages {
		return nil, apperror.BadRequest("too many images")
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}

	evaluation := s.gate.Evaluate(ctx, images, s.population)

	now := time.Now()
	report := &entity.Report{
		Id:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		SubCategory: req.SubCategory,
		Priority:    priority,
		Status:      entity.ReportStatusPending,
		Location: entity.Location{
			Latitude:  *req.Location.Latitude,
			Longitude: *req.Location.Longitude,
			Address:   req.Location.Address,
			Landmark:  req.Location.Landmark,
		},
		Images:         images,
		ImageEmbedding: evaluation.Vector,
		SimilarReports: evaluation.CandidateIds(),
		ReporterId:     caller.UserId,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return nil, err
	}

	if !report.HasEmbedding() && len(report.Images) > 0 {
		s.enqueueBackfill(ctx, report.Id)
	}
	s.eventPublisher.PublishReportCreated(ctx, report)

	s.logger.Info(reportModule, "Report created", map[string]interface{}{
		"report_id":      report.Id.String(),
		"similar":        len(evaluation.Candidates),
		"with_embedding": report.HasEmbedding(),
	})

	return &dto.CreateReportResponse{
		Report:             mapper.ReportToResponse(report, 0, nil),
		SimilarReports:     mapper.CandidatesToResponse(evaluation.Candidates),
		EmbeddingGenerated: evaluation.Vector != nil,
	}, nil
}

func (s *reportService) enqueueBackfill(ctx context.Context, reportId uuid.UUID) {
	payload, err := json.Marshal(dto.PublishEmbedReportMessage{ReportId: reportId})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(reportModule, "Failed to enqueue embedding backfill", map[string]interface{}{
			"report_id": reportId.String(),
			"error":     err.Error(),
		})
	}
}

func (s *reportService) CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.CheckDuplicatesResponse, error) {
	if len(req.Images) > s.cfg.MaxImages {
		return nil, apperror.BadRequest("too many images")
	}

	evaluation := s.gate.Evaluate(ctx, req.Images, s.population)
	return &dto.CheckDuplicatesResponse{
		Candidates:         mapper.CandidatesToResponse(evaluation.Candidates),
		EmbeddingGenerated: evaluation.Vector != nil,
	}, nil
}

func (s *reportService) FindSimilar(ctx context.Context, req *dto.SimilarReportsRequest) (*dto.SimilarReportsResponse, error) {
	threshold := s.cfg.SimilarThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := s.cfg.SimilarLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	var source dedup.PopulationSource = s.population
	if req.Latitude != nil && req.Longitude != nil && req.RadiusMeters != nil {
		source = s.population.Within(*req.Latitude, *req.Longitude, *req.RadiusMeters)
	}

	result, err := s.gate.Search(ctx, req.Embedding, source, threshold, limit)
	if err != nil {
		return nil, apperror.Wrap(http.StatusInternalServerError, "failed to find similar reports", err)
	}

	response := &dto.SimilarReportsResponse{SimilarReports: []dto.SimilarReportResponse{}}
	if len(result.Candidates) == 0 {
		return response, nil
	}

	ids := make([]uuid.UUID, len(result.Candidates))
	for i, c := range result.Candidates {
		ids[i] = c.ReportId
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	reports, err := uow.ReportRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	summaries, err := summarizeReports(ctx, uow, reports)
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]dto.ReportResponse, len(summaries))
	for _, summary := range summaries {
		byId[summary.Id] = summary
	}

	// Keep ranking order; reports removed since the scan are dropped.
	for _, c := range result.Candidates {
		summary, ok := byId[c.ReportId]
		if !ok {
			continue
		}
		response.SimilarReports = append(response.SimilarReports, dto.SimilarReportResponse{
			ReportResponse: summary,
			Similarity:     c.Similarity,
		})
	}
	response.Count = len(response.SimilarReports)
	return response, nil
}

func (s *reportService) List(ctx context.Context, filter *dto.SearchFilter) (*dto.ReportListResponse, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	var specs []specification.Specification
	if filter.Category != "" {
		specs = append(specs, specification.ByCategory{Category: filter.Category})
	}
	if filter.Status != "" {
		specs = append(specs, specification.ByStatus{Status: filter.Status})
	}
	if filter.Priority != "" {
		specs = append(specs, specification.ByPriority{Priority: filter.Priority})
	}

	return s.page(ctx, specs, page, limit)
}

func (s *reportService) MyReports(ctx context.Context, filter *dto.MyReportsFilter) (*dto.ReportListResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)

	specs := []specification.Specification{specification.ReportedBy{ReporterID: caller.UserId}}
	if filter.Status != "" && filter.Status != "all" {
		specs = append(specs, specification.ByStatus{Status: filter.Status})
	}

	return s.page(ctx, specs, page, limit)
}

func (s *reportService) page(ctx context.Context, specs []specification.Specification, page, limit int) (*dto.ReportListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.ReportRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	querySpecs := append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	reports, err := uow.ReportRepository().FindAll(ctx, querySpecs...)
	if err != nil {
		return nil, err
	}

	summaries, err := summarizeReports(ctx, uow, reports)
	if err != nil {
		return nil, err
	}

	return &dto.ReportListResponse{
		Reports: summaries,
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

func (s *reportService) Show(ctx context.Context, id uuid.UUID) (*dto.ReportDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apperror.NotFound("report not found")
	}

	summaries, err := summarizeReports(ctx, uow, []*entity.Report{report})
	if err != nil {
		return nil, err
	}

	updates, err := uow.StatusUpdateRepository().FindAll(ctx,
		specification.ByReportID{ReportID: id},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	detail := &dto.ReportDetailResponse{
		ReportResponse: summaries[0],
		StatusUpdates:  make([]dto.StatusUpdateResponse, len(updates)),
	}
	for i, u := range updates {
		detail.StatusUpdates[i] = mapper.StatusUpdateToResponse(u)
	}

	if caller, ok := identity.FromContext(ctx); ok {
		vote, err := uow.VoteRepository().FindByUserAndReport(ctx, caller.UserId, id)
		if err != nil {
			return nil, err
		}
		detail.HasVoted = vote != nil
	}

	return detail, nil
}

// UpdateStatus appends a status update and moves the report to the new
// status in one transaction holding the report row lock.
func (s *reportService) UpdateStatus(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	status := entity.ReportStatus(req.Status)
	if !status.Valid() {
		return nil, apperror.BadRequest("invalid status")
	}

	var duplicateOf *uuid.UUID
	if status == entity.ReportStatusDuplicate {
		if req.DuplicateOfId == nil || *req.DuplicateOfId == uuid.Nil {
			return nil, apperror.BadRequest("duplicate_of_id is required when marking a report as duplicate")
		}
		if *req.DuplicateOfId == req.Id {
			return nil, apperror.BadRequest("a report cannot duplicate itself")
		}
		duplicateOf = req.DuplicateOfId
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// The role is re-read so that a demotion takes effect before the token expires.
	actor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: caller.UserId})
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, apperror.Unauthorized("user not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	report, err := uow.ReportRepository().LockForUpdate(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apperror.NotFound("report not found")
	}

	staff := actor.Role == entity.UserRoleAdmin || actor.Role == entity.UserRoleModerator
	if !staff && report.ReporterId != actor.Id {
		return nil, apperror.Forbidden("not allowed to update this report")
	}

	if duplicateOf != nil {
		original, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: *duplicateOf})
		if err != nil {
			return nil, err
		}
		if original == nil {
			return nil, apperror.BadRequest("duplicate_of_id does not reference an existing report")
		}
	}

	previous := report.Status
	now := time.Now()
	update := &entity.StatusUpdate{
		Id:        uuid.New(),
		ReportId:  report.Id,
		Status:    status,
		Message:   strings.TrimSpace(req.Message),
		UpdatedBy: actor.Id,
		CreatedAt: now,
	}

	if err := uow.StatusUpdateRepository().Create(ctx, update); err != nil {
		return nil, err
	}
	if err := uow.ReportRepository().UpdateStatus(ctx, report.Id, status, duplicateOf); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	report.Status = status
	report.DuplicateOfId = duplicateOf
	report.UpdatedAt = now

	s.eventPublisher.PublishStatusChanged(ctx, report, previous, update)

	return &dto.UpdateStatusResponse{
		Report:       mapper.ReportToResponse(report, 0, nil),
		StatusUpdate: mapper.StatusUpdateToResponse(update),
	}, nil
}

// ToggleVote adds the caller's vote or removes it when present. The report row
// lock serialises concurrent toggles on the same report so the counter always
// equals the number of vote rows.
func (s *reportService) ToggleVote(ctx context.Context, reportId uuid.UUID) (*dto.ToggleVoteResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	report, err := uow.ReportRepository().LockForUpdate(ctx, reportId)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apperror.NotFound("report not found")
	}

	existing, err := uow.VoteRepository().FindByUserAndReport(ctx, caller.UserId, reportId)
	if err != nil {
		return nil, err
	}

	result := &dto.ToggleVoteResponse{}
	if existing != nil {
		if err := uow.VoteRepository().Delete(ctx, existing.Id); err != nil {
			return nil, err
		}
		if err := uow.ReportRepository().AdjustUpvotes(ctx, reportId, -1); err != nil {
			return nil, err
		}
		result.Upvotes = max(report.Upvotes-1, 0)
	} else {
		vote := &entity.Vote{
			Id:        uuid.New(),
			UserId:    caller.UserId,
			ReportId:  reportId,
			CreatedAt: time.Now(),
		}
		if err := uow.VoteRepository().Create(ctx, vote); err != nil {
			return nil, err
		}
		if err := uow.ReportRepository().AdjustUpvotes(ctx, reportId, 1); err != nil {
			return nil, err
		}
		result.Voted = true
		result.Upvotes = report.Upvotes + 1
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	report.Upvotes = result.Upvotes
	s.eventPublisher.PublishReportVoted(ctx, report, caller.UserId, result.Voted, result.Upvotes)

	return result, nil
}

// summarizeReports attaches vote counts and reporter summaries, preserving order.
func summarizeReports(ctx context.Context, uow unitofwork.UnitOfWork, reports []*entity.Report) ([]dto.ReportResponse, error) {
	summaries := make([]dto.ReportResponse, 0, len(reports))
	if len(reports) == 0 {
		return summaries, nil
	}

	ids := make([]uuid.UUID, len(reports))
	reporterIds := make([]uuid.UUID, 0, len(reports))
	seen := make(map[uuid.UUID]bool)
	for i, r := range reports {
		ids[i] = r.Id
		if !seen[r.ReporterId] {
			seen[r.ReporterId] = true
			reporterIds = append(reporterIds, r.ReporterId)
		}
	}

	votes, err := uow.VoteRepository().CountByReports(ctx, ids)
	if err != nil {
		return nil, err
	}

	users, err := uow.UserRepository().FindAll(ctx, specification.ByIDs{IDs: reporterIds})
	if err != nil {
		return nil, err
	}
	reporters := make(map[uuid.UUID]*entity.User, len(users))
	for _, u := range users {
		reporters[u.Id] = u
	}

	for _, r := range reports {
		summaries = append(summaries, mapper.ReportToResponse(r, votes[r.Id], reporters[r.ReporterId]))
	}
	return summaries, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

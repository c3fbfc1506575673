package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"metrocare-be/internal/config"
	"metrocare-be/internal/dto"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/pkg/dedup"
	"metrocare-be/pkg/embedding"
	"metrocare-be/pkg/similarity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapProvider struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   []string
}

func (p *mapProvider) Generate(_ context.Context, imageRef string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, imageRef)
	if v, ok := p.vectors[imageRef]; ok {
		return v, nil
	}
	return nil, embedding.NewGenerationError("fake", imageRef, errors.New("image unreachable"))
}

type reportFixture struct {
	store    *memStore
	provider *mapProvider
	queue    *recordingQueue
	events   *recordingEvents
	svc      IReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		store:    newMemStore(),
		provider: &mapProvider{vectors: map[string][]float32{}},
		queue:    &recordingQueue{},
		events:   &recordingEvents{},
	}
	gate := dedup.NewGate(f.provider, similarity.NewEngine(), logger.NewNopLogger(), dedup.Config{
		Threshold: 0.7,
		Limit:     3,
	})
	f.svc = NewReportService(
		f.store,
		gate,
		NewReportPopulation(f.store, RankerExact, 0),
		f.queue,
		f.events,
		config.DedupConfig{Threshold: 0.7, Limit: 3, MaxImages: 5, SimilarThreshold: 0.8, SimilarLimit: 5},
		logger.NewNopLogger(),
	)
	return f
}

func callerCtx(u *entity.User) context.Context {
	return identity.WithCaller(context.Background(), identity.Caller{
		UserId: u.Id,
		Phone:  u.Phone,
		Role:   identity.Role(u.Role),
	})
}

func newCreateRequest(images ...string) *dto.CreateReportRequest {
	lat, lng := -6.2, 106.8
	return &dto.CreateReportRequest{
		Title:       "Broken street light",
		Description: "The light at the corner has been out for a week",
		Category:    string(entity.CategoryUtilities),
		Location: dto.LocationRequest{
			Latitude:  &lat,
			Longitude: &lng,
			Address:   "Jl. Sudirman 1",
		},
		Images: images,
	}
}

func TestReportService_Create_SurfacesSimilarReports(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)

	now := time.Now()
	r1 := f.store.addReport(citizen.Id, []float32{1, 0}, now.Add(-3*time.Hour))
	f.store.addReport(citizen.Id, []float32{0, 1}, now.Add(-2*time.Hour))
	r3 := f.store.addReport(citizen.Id, []float32{0.9, 0.1}, now.Add(-time.Hour))
	f.provider.vectors["img-a"] = []float32{1, 0}

	res, err := f.svc.Create(callerCtx(citizen), newCreateRequest("img-a", "img-b"))
	require.NoError(t, err)

	require.Len(t, res.SimilarReports, 2)
	assert.Equal(t, r1.Id, res.SimilarReports[0].ReportId)
	assert.Equal(t, r3.Id, res.SimilarReports[1].ReportId)
	assert.InDelta(t, 1.0, res.SimilarReports[0].Similarity, 1e-6)
	assert.True(t, res.EmbeddingGenerated)

	stored := f.store.report(res.Report.Id)
	require.NotNil(t, stored)
	assert.Equal(t, []float32{1, 0}, stored.ImageEmbedding)
	assert.Equal(t, []uuid.UUID{r1.Id, r3.Id}, stored.SimilarReports)
	assert.Equal(t, entity.PriorityMedium, stored.Priority)
	assert.Equal(t, entity.ReportStatusPending, stored.Status)

	// only the first image is embedded
	assert.Equal(t, []string{"img-a"}, f.provider.calls)
	assert.Empty(t, f.queue.payloads)
	assert.Equal(t, []uuid.UUID{res.Report.Id}, f.events.created)
}

func TestReportService_Create_EmbeddingFailureStillPersists(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)
	f.store.addReport(citizen.Id, []float32{1, 0}, time.Now())
	f.provider.vectors["img-ok"] = []float32{1, 0}

	res, err := f.svc.Create(callerCtx(citizen), newCreateRequest("img-broken", "img-ok"))
	require.NoError(t, err)

	assert.Empty(t, res.SimilarReports)
	assert.NotNil(t, res.SimilarReports)
	assert.False(t, res.EmbeddingGenerated)

	stored := f.store.report(res.Report.Id)
	require.NotNil(t, stored)
	assert.Nil(t, stored.ImageEmbedding)
	assert.Empty(t, stored.SimilarReports)
	assert.Equal(t, []string{"img-broken"}, f.provider.calls)

	require.Len(t, f.queue.payloads, 1)
	var msg dto.PublishEmbedReportMessage
	require.NoError(t, json.Unmarshal(f.queue.payloads[0], &msg))
	assert.Equal(t, res.Report.Id, msg.ReportId)
}

func TestReportService_Create_WithoutImages(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)

	res, err := f.svc.Create(callerCtx(citizen), newCreateRequest())
	require.NoError(t, err)

	assert.Empty(t, res.SimilarReports)
	assert.Empty(t, f.provider.calls)
	assert.Empty(t, f.queue.payloads)
	assert.Equal(t, []string{}, f.store.report(res.Report.Id).Images)
}

func TestReportService_Create_Validation(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)

	wrongSub := "Potholes"
	tests := []struct {
		name   string
		ctx    context.Context
		mutate func(r *dto.CreateReportRequest)
		assert func(t *testing.T, err error)
	}{
		{
			name: "anonymous caller",
			ctx:  context.Background(),
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, identity.ErrNoCaller)
			},
		},
		{
			name:   "unknown category",
			ctx:    callerCtx(citizen),
			mutate: func(r *dto.CreateReportRequest) { r.Category = "SPACE" },
			assert: func(t *testing.T, err error) {
				assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
			},
		},
		{
			name:   "subcategory from another category",
			ctx:    callerCtx(citizen),
			mutate: func(r *dto.CreateReportRequest) { r.SubCategory = &wrongSub },
			assert: func(t *testing.T, err error) {
				assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
			},
		},
		{
			name: "too many images",
			ctx:  callerCtx(citizen),
			mutate: func(r *dto.CreateReportRequest) {
				r.Images = []string{"1", "2", "3", "4", "5", "6"}
			},
			assert: func(t *testing.T, err error) {
				assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newCreateRequest()
			if tt.mutate != nil {
				tt.mutate(req)
			}
			_, err := f.svc.Create(tt.ctx, req)
			require.Error(t, err)
			tt.assert(t, err)
		})
	}
	assert.Empty(t, f.events.created)
}

func TestReportService_CheckDuplicates(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)
	existing := f.store.addReport(citizen.Id, []float32{0, 1}, time.Now())
	f.provider.vectors["img"] = []float32{0, 1}

	res, err := f.svc.CheckDuplicates(callerCtx(citizen), &dto.CheckDuplicatesRequest{Images: []string{"img"}})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, existing.Id, res.Candidates[0].ReportId)
	assert.Equal(t, string(entity.CategoryRoadsTransport), res.Candidates[0].Category)

	// population failure degrades to no candidates
	f.store.failFindVectors = errors.New("connection reset")
	res, err = f.svc.CheckDuplicates(callerCtx(citizen), &dto.CheckDuplicatesRequest{Images: []string{"img"}})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.True(t, res.EmbeddingGenerated)
}

func TestReportService_FindSimilar(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)

	now := time.Now()
	older := f.store.addReport(citizen.Id, []float32{1, 0}, now.Add(-time.Hour))
	newer := f.store.addReport(citizen.Id, []float32{1, 0}, now)
	f.store.addReport(citizen.Id, []float32{0, 1}, now)
	f.store.addReport(citizen.Id, []float32{1, 0, 0}, now)
	_, err := f.svc.ToggleVote(callerCtx(citizen), older.Id)
	require.NoError(t, err)

	res, err := f.svc.FindSimilar(context.Background(), &dto.SimilarReportsRequest{Embedding: []float32{2, 0}})
	require.NoError(t, err)

	require.Equal(t, 2, res.Count)
	assert.Equal(t, newer.Id, res.SimilarReports[0].Id)
	assert.Equal(t, older.Id, res.SimilarReports[1].Id)
	assert.InDelta(t, 1.0, res.SimilarReports[1].Similarity, 1e-6)
	assert.EqualValues(t, 1, res.SimilarReports[1].VotesCount)
	require.NotNil(t, res.SimilarReports[0].Reporter)
	assert.Equal(t, citizen.Id, res.SimilarReports[0].Reporter.Id)

	limit := 1
	res, err = f.svc.FindSimilar(context.Background(), &dto.SimilarReportsRequest{Embedding: []float32{2, 0}, Limit: &limit})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, newer.Id, res.SimilarReports[0].Id)

	threshold := 1.0
	res, err = f.svc.FindSimilar(context.Background(), &dto.SimilarReportsRequest{Embedding: []float32{1, 1}, Threshold: &threshold})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.NotNil(t, res.SimilarReports)
}

func TestReportService_FindSimilar_RadiusFilter(t *testing.T) {
	f := newReportFixture(t)
	citizen := f.store.addUser(entity.UserRoleCitizen)

	near := f.store.addReport(citizen.Id, []float32{1, 0}, time.Now())
	far := f.store.addReport(citizen.Id, []float32{1, 0}, time.Now())
	f.store.mu.Lock()
	f.store.reports[near.Id].Location = entity.Location{Latitude: -6.2000, Longitude: 106.8000}
	f.store.reports[far.Id].Location = entity.Location{Latitude: -6.3000, Longitude: 106.8000}
	f.store.mu.Unlock()

	lat, lng, radius := -6.2005, 106.8, 500.0
	res, err := f.svc.FindSimilar(context.Background(), &dto.SimilarReportsRequest{
		Embedding:    []float32{1, 0},
		Latitude:     &lat,
		Longitude:    &lng,
		RadiusMeters: &radius,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, near.Id, res.SimilarReports[0].Id)
}

func TestReportPopulation_PgvectorPrefilter(t *testing.T) {
	store := newMemStore()
	citizen := store.addUser(entity.UserRoleCitizen)

	nearby := store.addReport(citizen.Id, []float32{0.8, 0.2}, time.Now())
	store.mu.Lock()
	store.reports[nearby.Id].Location = entity.Location{Latitude: -6.2000, Longitude: 106.8000}
	store.mu.Unlock()
	for i := 0; i < 3; i++ {
		far := store.addReport(citizen.Id, []float32{1, 0}, time.Now())
		store.mu.Lock()
		store.reports[far.Id].Location = entity.Location{Latitude: -7.0000, Longitude: 110.0000}
		store.mu.Unlock()
	}

	population := NewReportPopulation(store, RankerPgvector, 1)

	t.Run("unrestricted search keeps the nearest rows", func(t *testing.T) {
		members, err := population.Population(context.Background(), []float32{1, 0})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.NotEqual(t, nearby.Id, members[0].ReportId)
	})

	t.Run("radius search finds rows outside the prefilter", func(t *testing.T) {
		members, err := population.Within(-6.2005, 106.8, 500).Population(context.Background(), []float32{1, 0})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, nearby.Id, members[0].ReportId)
	})
}

func TestReportService_FindSimilar_PopulationError(t *testing.T) {
	f := newReportFixture(t)
	f.store.failFindVectors = errors.New("db down")

	_, err := f.svc.FindSimilar(context.Background(), &dto.SimilarReportsRequest{Embedding: []float32{1, 0}})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusCode(err))
}

func TestReportService_ToggleVote(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	voter := f.store.addUser(entity.UserRoleCitizen)
	report := f.store.addReport(owner.Id, nil, time.Now())

	res, err := f.svc.ToggleVote(callerCtx(voter), report.Id)
	require.NoError(t, err)
	assert.True(t, res.Voted)
	assert.Equal(t, 1, res.Upvotes)

	res, err = f.svc.ToggleVote(callerCtx(voter), report.Id)
	require.NoError(t, err)
	assert.False(t, res.Voted)
	assert.Equal(t, 0, res.Upvotes)

	assert.Equal(t, 0, f.store.report(report.Id).Upvotes)
	assert.Equal(t, 0, f.store.voteCount(report.Id))
	assert.Equal(t, 2, f.events.votes)

	_, err = f.svc.ToggleVote(callerCtx(voter), uuid.New())
	assert.Equal(t, http.StatusNotFound, apperror.StatusCode(err))
}

func TestReportService_ToggleVote_ConcurrentVotersKeepCounterConsistent(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	report := f.store.addReport(owner.Id, nil, time.Now())

	const voters = 25
	users := make([]*entity.User, voters)
	for i := range users {
		users[i] = f.store.addUser(entity.UserRoleCitizen)
	}

	toggleAll := func() {
		var wg sync.WaitGroup
		for _, u := range users {
			wg.Add(1)
			go func(u *entity.User) {
				defer wg.Done()
				_, err := f.svc.ToggleVote(callerCtx(u), report.Id)
				assert.NoError(t, err)
			}(u)
		}
		wg.Wait()
	}

	toggleAll()
	assert.Equal(t, voters, f.store.report(report.Id).Upvotes)
	assert.Equal(t, voters, f.store.voteCount(report.Id))

	toggleAll()
	assert.Equal(t, 0, f.store.report(report.Id).Upvotes)
	assert.Equal(t, 0, f.store.voteCount(report.Id))
}

func TestReportService_ToggleVote_SameUserConcurrentToggles(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	voter := f.store.addUser(entity.UserRoleCitizen)

	for round := 0; round < 20; round++ {
		report := f.store.addReport(owner.Id, nil, time.Now())

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.ToggleVote(callerCtx(voter), report.Id)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		votes := f.store.voteCount(report.Id)
		upvotes := f.store.report(report.Id).Upvotes
		assert.Contains(t, []int{0, 1}, votes)
		assert.Equal(t, votes, upvotes)
		assert.GreaterOrEqual(t, upvotes, 0)
	}
}

func TestReportService_UpdateStatus_Permissions(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	stranger := f.store.addUser(entity.UserRoleCitizen)
	moderator := f.store.addUser(entity.UserRoleModerator)
	report := f.store.addReport(owner.Id, nil, time.Now())

	tests := []struct {
		name     string
		actor    *entity.User
		wantCode int
	}{
		{name: "stranger is forbidden", actor: stranger, wantCode: http.StatusForbidden},
		{name: "owner may update", actor: owner},
		{name: "moderator may update", actor: moderator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(callerCtx(tt.actor), &dto.UpdateStatusRequest{
				Id:     report.Id,
				Status: string(entity.ReportStatusAcknowledged),
			})
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, apperror.StatusCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}

	// Every successful update appends a row, even when the status is unchanged.
	updates, err := f.store.NewUnitOfWork(context.Background()).StatusUpdateRepository().FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, updates, 2)
}

func TestReportService_UpdateStatus_UsesStoredRole(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	demoted := f.store.addUser(entity.UserRoleCitizen)
	report := f.store.addReport(owner.Id, nil, time.Now())

	// token still claims MODERATOR
	ctx := identity.WithCaller(context.Background(), identity.Caller{UserId: demoted.Id, Role: identity.RoleModerator})
	_, err := f.svc.UpdateStatus(ctx, &dto.UpdateStatusRequest{Id: report.Id, Status: string(entity.ReportStatusResolved)})
	assert.Equal(t, http.StatusForbidden, apperror.StatusCode(err))

	ghost := identity.WithCaller(context.Background(), identity.Caller{UserId: uuid.New(), Role: identity.RoleAdmin})
	_, err = f.svc.UpdateStatus(ghost, &dto.UpdateStatusRequest{Id: report.Id, Status: string(entity.ReportStatusResolved)})
	assert.Equal(t, http.StatusUnauthorized, apperror.StatusCode(err))
}

func TestReportService_UpdateStatus_Duplicate(t *testing.T) {
	f := newReportFixture(t)
	admin := f.store.addUser(entity.UserRoleAdmin)
	owner := f.store.addUser(entity.UserRoleCitizen)
	original := f.store.addReport(owner.Id, nil, time.Now().Add(-time.Hour))
	report := f.store.addReport(owner.Id, nil, time.Now())

	self := report.Id
	missing := uuid.New()
	tests := []struct {
		name        string
		duplicateOf *uuid.UUID
	}{
		{name: "target required", duplicateOf: nil},
		{name: "cannot duplicate itself", duplicateOf: &self},
		{name: "target must exist", duplicateOf: &missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(callerCtx(admin), &dto.UpdateStatusRequest{
				Id:            report.Id,
				Status:        string(entity.ReportStatusDuplicate),
				DuplicateOfId: tt.duplicateOf,
			})
			assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
		})
	}
	assert.Empty(t, f.events.status)

	res, err := f.svc.UpdateStatus(callerCtx(admin), &dto.UpdateStatusRequest{
		Id:            report.Id,
		Status:        string(entity.ReportStatusDuplicate),
		Message:       "  same pothole  ",
		DuplicateOfId: &original.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReportStatusDuplicate), res.Report.Status)
	assert.Equal(t, "same pothole", res.StatusUpdate.Message)
	require.NotNil(t, f.store.report(report.Id).DuplicateOfId)
	assert.Equal(t, original.Id, *f.store.report(report.Id).DuplicateOfId)

	// moving away from DUPLICATE clears the link
	_, err = f.svc.UpdateStatus(callerCtx(admin), &dto.UpdateStatusRequest{
		Id:     report.Id,
		Status: string(entity.ReportStatusInProgress),
	})
	require.NoError(t, err)
	assert.Nil(t, f.store.report(report.Id).DuplicateOfId)

	require.Len(t, f.events.status, 2)
	assert.Equal(t, statusEvent{reportId: report.Id, previous: entity.ReportStatusPending, next: entity.ReportStatusDuplicate}, f.events.status[0])
	assert.Equal(t, entity.ReportStatusDuplicate, f.events.status[1].previous)
}

func TestReportService_ListAndMyReports(t *testing.T) {
	f := newReportFixture(t)
	me := f.store.addUser(entity.UserRoleCitizen)
	other := f.store.addUser(entity.UserRoleCitizen)

	base := time.Now().Add(-time.Hour)
	var mine []*entity.Report
	for i := 0; i < 12; i++ {
		mine = append(mine, f.store.addReport(me.Id, nil, base.Add(time.Duration(i)*time.Minute)))
	}
	f.store.addReport(other.Id, nil, base)

	list, err := f.svc.List(context.Background(), &dto.SearchFilter{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, dto.Pagination{Page: 2, Limit: 5, Total: 13, Pages: 3}, list.Pagination)
	require.Len(t, list.Reports, 5)
	assert.Equal(t, mine[6].Id, list.Reports[0].Id)

	resolved := entity.ReportStatusResolved
	f.store.mu.Lock()
	f.store.reports[mine[0].Id].Status = resolved
	f.store.mu.Unlock()

	my, err := f.svc.MyReports(callerCtx(me), &dto.MyReportsFilter{Status: "all"})
	require.NoError(t, err)
	assert.EqualValues(t, 12, my.Pagination.Total)
	assert.Len(t, my.Reports, 10)

	my, err = f.svc.MyReports(callerCtx(me), &dto.MyReportsFilter{Status: string(resolved)})
	require.NoError(t, err)
	require.Len(t, my.Reports, 1)
	assert.Equal(t, mine[0].Id, my.Reports[0].Id)

	_, err = f.svc.MyReports(context.Background(), &dto.MyReportsFilter{})
	assert.ErrorIs(t, err, identity.ErrNoCaller)
}

func TestReportService_Show(t *testing.T) {
	f := newReportFixture(t)
	owner := f.store.addUser(entity.UserRoleCitizen)
	moderator := f.store.addUser(entity.UserRoleModerator)
	report := f.store.addReport(owner.Id, nil, time.Now())

	for i, status := range []entity.ReportStatus{entity.ReportStatusAcknowledged, entity.ReportStatusInProgress} {
		_, err := f.svc.UpdateStatus(callerCtx(moderator), &dto.UpdateStatusRequest{
			Id:      report.Id,
			Status:  string(status),
			Message: fmt.Sprintf("step %d", i),
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := f.svc.ToggleVote(callerCtx(owner), report.Id)
	require.NoError(t, err)

	detail, err := f.svc.Show(callerCtx(owner), report.Id)
	require.NoError(t, err)
	assert.True(t, detail.HasVoted)
	assert.EqualValues(t, 1, detail.VotesCount)
	require.Len(t, detail.StatusUpdates, 2)
	assert.Equal(t, string(entity.ReportStatusInProgress), detail.StatusUpdates[0].Status)

	anonymous, err := f.svc.Show(context.Background(), report.Id)
	require.NoError(t, err)
	assert.False(t, anonymous.HasVoted)

	_, err = f.svc.Show(context.Background(), uuid.New())
	assert.Equal(t, http.StatusNotFound, apperror.StatusCode(err))
}

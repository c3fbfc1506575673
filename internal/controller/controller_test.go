package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(register func(api fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.FiberErrorHandler})
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func tokenFor(t *testing.T, role identity.Role) (string, identity.Caller) {
	t.Helper()
	caller := identity.Caller{UserId: uuid.New(), Phone: "081234567890", Role: role}
	token, err := identity.IssueToken(testSecret, caller, time.Hour)
	require.NoError(t, err)
	return token, caller
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

// fakeReportService answers every call through the optional hooks.
type fakeReportService struct {
	create       func(ctx context.Context, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error)
	findSimilar  func(ctx context.Context, req *dto.SimilarReportsRequest) (*dto.SimilarReportsResponse, error)
	list         func(ctx context.Context, filter *dto.SearchFilter) (*dto.ReportListResponse, error)
	show         func(ctx context.Context, id uuid.UUID) (*dto.ReportDetailResponse, error)
	updateStatus func(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error)
	calls        int
}

func (f *fakeReportService) Create(ctx context.Context, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error) {
	f.calls++
	return f.create(ctx, req)
}

func (f *fakeReportService) CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest) (*dto.CheckDuplicatesResponse, error) {
	f.calls++
	return &dto.CheckDuplicatesResponse{Candidates: []dto.SimilarityCandidateResponse{}}, nil
}

func (f *fakeReportService) FindSimilar(ctx context.Context, req *dto.SimilarReportsRequest) (*dto.SimilarReportsResponse, error) {
	f.calls++
	return f.findSimilar(ctx, req)
}

func (f *fakeReportService) List(ctx context.Context, filter *dto.SearchFilter) (*dto.ReportListResponse, error) {
	f.calls++
	return f.list(ctx, filter)
}

func (f *fakeReportService) MyReports(ctx context.Context, filter *dto.MyReportsFilter) (*dto.ReportListResponse, error) {
	f.calls++
	return &dto.ReportListResponse{Reports: []dto.ReportResponse{}}, nil
}

func (f *fakeReportService) Show(ctx context.Context, id uuid.UUID) (*dto.ReportDetailResponse, error) {
	f.calls++
	return f.show(ctx, id)
}

func (f *fakeReportService) UpdateStatus(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error) {
	f.calls++
	return f.updateStatus(ctx, req)
}

func (f *fakeReportService) ToggleVote(ctx context.Context, reportId uuid.UUID) (*dto.ToggleVoteResponse, error) {
	f.calls++
	return &dto.ToggleVoteResponse{Voted: true, Upvotes: 1}, nil
}


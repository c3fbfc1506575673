package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"metrocare-be/internal/config"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/events"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/internal/service"
	"metrocare-be/pkg/database"
	"metrocare-be/pkg/dedup"
	"metrocare-be/pkg/embedding"
	"metrocare-be/pkg/similarity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a migrated database (go run ./cmd/migrate).
func TestGormConnection(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	defer database.Close(gormDB)

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)

	sqlDB, _ := gormDB.DB()
	require.NoError(t, sqlDB.Ping())

	user := &entity.User{
		Id:         uuid.New(),
		Phone:      fmt.Sprintf("0899%08d", time.Now().UnixNano()%100000000),
		Role:       entity.UserRoleCitizen,
		IsVerified: true,
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	newReport := func(vector []float32) *entity.Report {
		r := &entity.Report{
			Id:             uuid.New(),
			Title:          "Integration report",
			Description:    "Created by the integration suite",
			Category:       entity.CategoryUtilities,
			Priority:       entity.PriorityMedium,
			Status:         entity.ReportStatusPending,
			Location:       entity.Location{Latitude: -6.2, Longitude: 106.8, Address: "Jl. Test"},
			Images:         []string{"https://example.com/a.jpg"},
			ImageEmbedding: vector,
			ReporterId:     user.Id,
		}
		require.NoError(t, uow.ReportRepository().Create(ctx, r))
		return r
	}

	t.Run("Embedding round trip", func(t *testing.T) {
		r := newReport([]float32{1, 0, 0})

		found, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: r.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, []float32{1, 0, 0}, found.ImageEmbedding)

		scored, err := uow.ReportRepository().SearchNearest(ctx, []float32{1, 0, 0}, 50)
		require.NoError(t, err)
		var hit bool
		for _, s := range scored {
			if s.Vector.Id == r.Id {
				hit = true
				assert.InDelta(t, 1.0, s.Similarity, 1e-6)
			}
		}
		assert.True(t, hit)
	})

	t.Run("Backfill sets a missing embedding", func(t *testing.T) {
		r := newReport(nil)
		require.NoError(t, uow.ReportRepository().SetEmbedding(ctx, r.Id, []float32{0, 1}))

		found, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: r.Id})
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 1}, found.ImageEmbedding)
	})

	t.Run("Vote toggle in a transaction", func(t *testing.T) {
		r := newReport(nil)

		tx := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		defer tx.Rollback()

		_, err := tx.ReportRepository().LockForUpdate(ctx, r.Id)
		require.NoError(t, err)
		require.NoError(t, tx.VoteRepository().Create(ctx, &entity.Vote{Id: uuid.New(), UserId: user.Id, ReportId: r.Id}))
		require.NoError(t, tx.ReportRepository().AdjustUpvotes(ctx, r.Id, 1))
		require.NoError(t, tx.Commit())

		found, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: r.Id})
		require.NoError(t, err)
		assert.Equal(t, 1, found.Upvotes)

		// the counter never goes below zero
		require.NoError(t, uow.ReportRepository().AdjustUpvotes(ctx, r.Id, -5))
		found, _ = uow.ReportRepository().FindOne(ctx, specification.ByID{ID: r.Id})
		assert.Equal(t, 0, found.Upvotes)
	})

	t.Run("Same user toggles concurrently", func(t *testing.T) {
		nop := logger.NewNopLogger()
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
		defer pubSub.Close()

		reports := service.NewReportService(
			uowFactory,
			dedup.NewGate(embedding.NewHashProvider(3), similarity.NewEngine(), nop, dedup.Config{}),
			service.NewReportPopulation(uowFactory, service.RankerExact, 0),
			service.NewPublisherService("report-embeddings", pubSub),
			events.NoopPublisher{},
			config.DedupConfig{},
			nop,
		)
		callerCtx := identity.WithCaller(ctx, identity.Caller{
			UserId: user.Id,
			Phone:  user.Phone,
			Role:   identity.Role(user.Role),
		})

		for round := 0; round < 5; round++ {
			r := newReport(nil)

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := reports.ToggleVote(callerCtx, r.Id)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			votes, err := uow.VoteRepository().CountByReport(ctx, r.Id)
			require.NoError(t, err)
			found, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: r.Id})
			require.NoError(t, err)
			assert.Contains(t, []int{0, 1}, int(votes))
			assert.Equal(t, int(votes), found.Upvotes)
		}
	})
}

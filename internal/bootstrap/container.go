package bootstrap

import (
	"context"
	"log"
	"time"

	"metrocare-be/internal/config"
	"metrocare-be/internal/controller"
	"metrocare-be/internal/events"
	"metrocare-be/internal/handler"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/pkg/mailer"
	"metrocare-be/internal/pkg/serverutils"
	"metrocare-be/internal/pkg/sms"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/implementation"
	"metrocare-be/internal/repository/memory"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/internal/service"
	"metrocare-be/internal/websocket"
	"metrocare-be/pkg/admin/dashboard"
	"metrocare-be/pkg/admin/user"
	"metrocare-be/pkg/dedup"
	"metrocare-be/pkg/embedding"
	"metrocare-be/pkg/embedding/jina"
	pktNats "metrocare-be/pkg/nats"
	"metrocare-be/pkg/similarity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	ReportController  controller.IReportController
	UpdatesController controller.IUpdatesController
	AdminController   controller.IAdminController
	AiController      controller.IAiController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	natsConn    *nats.Conn
	natsSub     *pktNats.Subscriber
	redisClient *redis.Client
	pubSub      *gochannel.GoChannel
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
			cfg.App.ClientURL,
			sysLogger,
		)
	} else {
		log.Printf("[INFO] SMTP not configured, status emails disabled")
	}

	// 2. Embedding backfill queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	nc, err := pktNats.Connect(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] NATS unavailable, live events disabled: %v", err)
	} else {
		if natsPub, err = pktNats.NewPublisher(nc); err != nil {
			log.Printf("[WARN] Failed to create NATS publisher: %v", err)
		}
		if natsSub, err = pktNats.NewSubscriber(nc); err != nil {
			log.Printf("[WARN] Failed to create NATS subscriber: %v", err)
		}
	}

	var eventPublisher events.Publisher = events.NoopPublisher{}
	if natsPub != nil {
		eventPublisher = events.NewNatsPublisher(natsPub, sysLogger)
	}

	// Redis
	rdb := newRedisClient(cfg.App.RedisURL)

	var otpStore contract.OtpRepository
	if rdb != nil {
		otpStore = implementation.NewRedisOtpRepository(rdb)
	} else {
		log.Printf("[INFO] Using in-process OTP store")
		otpStore = memory.NewOtpRepository(cfg.Auth.OtpTTL)
	}

	// 4. Similarity detection
	embeddingProvider := newEmbeddingProvider(cfg.Ai, cfg.Keys)
	gate := dedup.NewGate(embeddingProvider, similarity.NewEngine(), sysLogger, dedup.Config{
		Threshold:         cfg.Dedup.Threshold,
		Limit:             cfg.Dedup.Limit,
		EmbedTimeout:      cfg.Ai.EmbeddingTimeout,
		PopulationTimeout: cfg.Dedup.PopulationTimeout,
	})
	population := service.NewReportPopulation(uowFactory, cfg.Dedup.Ranker, cfg.Dedup.PrefilterSize)
	log.Printf("[INFO] Using similarity ranker: %s", cfg.Dedup.Ranker)

	publisherService := service.NewPublisherService(cfg.Keys.BackfillTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.BackfillTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	// 5. Services
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	optionalJwtMiddleware := serverutils.NewOptionalJwtMiddleware(cfg.Auth.JwtSecret)

	authService := service.NewAuthService(
		uowFactory,
		otpStore,
		sms.NewLogSender(sysLogger, cfg.App.IsDevelopment()),
		cfg.Auth,
		sysLogger,
	)
	reportService := service.NewReportService(
		uowFactory,
		gate,
		population,
		publisherService,
		eventPublisher,
		cfg.Dedup,
		sysLogger,
	)
	updatesService := service.NewUpdatesService(uowFactory)
	embeddingService := service.NewEmbeddingService(embeddingProvider, sysLogger)

	// Admin Domain Components
	adminService := service.NewAdminService(
		uowFactory,
		sysLogger,
		dashboard.NewAggregator(sysLogger),
		user.NewManager(sysLogger),
	)

	// 6. Notification System
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// Hub implements NotificationDelivery
	notifService := service.NewNotificationService(uowFactory, natsSub, wsHub, emailService, wsLogger)
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, cfg.Auth.JwtSecret, jwtMiddleware, wsLogger)

	// 7. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService, jwtMiddleware, !cfg.App.IsDevelopment()),
		ReportController:  controller.NewReportController(reportService, jwtMiddleware, optionalJwtMiddleware),
		UpdatesController: controller.NewUpdatesController(updatesService, jwtMiddleware),
		AdminController:   controller.NewAdminController(adminService, jwtMiddleware),
		AiController:      controller.NewAiController(embeddingService, jwtMiddleware),

		ConsumerService:     consumerService,
		NotificationService: notifService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		Logger: sysLogger,

		natsConn:    nc,
		natsSub:     natsSub,
		redisClient: rdb,
		pubSub:      pubSub,
	}
}

// Close releases broker connections. The database is owned by the caller.
func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsConn != nil {
		c.natsConn.Drain()
	}
	if c.pubSub != nil {
		c.pubSub.Close()
	}
	if c.redisClient != nil {
		c.redisClient.Close()
	}
}

func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, falling back to in-process state: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}

// newEmbeddingProvider builds the configured generator, enforces the
// deployment dimensionality and memoises results per image reference.
func newEmbeddingProvider(ai config.AIConfig, keys config.APIKeys) embedding.EmbeddingProvider {
	var base embedding.EmbeddingProvider
	switch ai.EmbeddingProvider {
	case "jina":
		base = jina.NewJinaProvider(keys.JinaAI, ai.EmbeddingDimensions, ai.EmbeddingTimeout)
		log.Printf("[INFO] Using Embedding Provider: JINA CLIP")
	case "clip":
		base = embedding.NewClipProvider(ai.ClipBaseURL, ai.ClipModel, ai.EmbeddingTimeout)
		log.Printf("[INFO] Using Embedding Provider: CLIP (%s)", ai.ClipModel)
	default:
		base = embedding.NewHashProvider(ai.EmbeddingDimensions)
		log.Printf("[INFO] Using Embedding Provider: HASH (placeholder)")
	}

	guarded := embedding.NewDimensionGuard(base, ai.EmbeddingDimensions)
	return embedding.NewCachedProvider(guarded, ai.EmbeddingCacheTTL)
}

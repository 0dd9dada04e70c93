package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/musaabMD/expoiosweb/internal/config"
	"github.com/musaabMD/expoiosweb/internal/domain/srs"
	"github.com/musaabMD/expoiosweb/internal/events"
	"github.com/musaabMD/expoiosweb/internal/platform/postgres"
	"github.com/musaabMD/expoiosweb/internal/platform/redis"
	"github.com/musaabMD/expoiosweb/internal/service/assessment"
	"github.com/musaabMD/expoiosweb/internal/service/auth"
	"github.com/musaabMD/expoiosweb/internal/service/billing"
	"github.com/musaabMD/expoiosweb/internal/service/progress"
	"github.com/musaabMD/expoiosweb/internal/service/review"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/musaabMD/expoiosweb/internal/sweep"
	"github.com/musaabMD/expoiosweb/internal/task"
)

// eventQueueSize bounds transition events waiting for Redis delivery.
const eventQueueSize = 256

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	redis  *goredis.Client

	userStore store.UserStore

	jwtService        auth.JWTService
	reviewService     review.Service
	progressService   progress.Service
	assessmentService assessment.Service
	billingService    billing.Service

	eventEmitter *events.InMemoryEventEmitter
	eventQueue   *task.TaskQueue
	workerPool   *task.WorkerPool

	sweeper   *sweep.Runner
	scheduler *sweep.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection is owned by the application from here on.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	tx := store.NewTransactor(db)
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	questionStore := postgres.NewPostgresQuestionStore(db, logger)
	cardStore := postgres.NewPostgresReviewCardStore(db, logger)
	progressStore := postgres.NewPostgresProgressStore(db, logger)
	sessionStore := postgres.NewPostgresSessionStore(db, logger)
	subscriptionStore := postgres.NewPostgresSubscriptionStore(db, logger)
	auditStore := postgres.NewPostgresSubscriptionEventStore(db, logger)
	receiptStore := postgres.NewPostgresWebhookReceiptStore(db, logger)

	if err := app.setupEvents(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	scheduler, err := srs.NewDefaultService()
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.reviewService, err = review.NewService(tx, cardStore, questionStore, scheduler, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	app.progressService, err = progress.NewService(tx, progressStore, questionStore, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create progress service: %w", err)
	}

	app.assessmentService, err = assessment.NewService(tx, sessionStore, questionStore, progressStore, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create assessment service: %w", err)
	}

	app.billingService, err = billing.NewService(
		tx,
		app.userStore,
		subscriptionStore,
		auditStore,
		receiptStore,
		logger,
		billing.WithEmitter(app.eventEmitter),
		billing.WithSweepBatch(cfg.Sweep.BatchSize),
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create billing service: %w", err)
	}

	if err := app.setupSweep(); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupEvents builds the transition event fan-out. Events are always logged;
// with Redis configured they are also published from the worker pool.
func (app *application) setupEvents(ctx context.Context) error {
	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger)
	app.eventEmitter.RegisterHandler(events.NewLogHandler(app.logger))

	if app.config.Redis.Addr == "" {
		app.logger.Info("Redis not configured, transition events are only logged")
		return nil
	}

	client, err := redis.NewClient(ctx, app.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client

	app.eventQueue = task.NewTaskQueue(eventQueueSize, app.logger)
	app.workerPool = task.NewWorkerPool(app.eventQueue, task.DefaultWorkerPoolConfig(), app.logger)
	app.workerPool.Start()

	publisher := redis.NewPublisher(client, app.config.Redis.Channel)
	app.eventEmitter.RegisterHandler(
		task.NewAsyncEventHandler(publisher, app.eventQueue, task.DefaultDeliveryTimeout, app.logger),
	)
	app.logger.Info("Publishing transition events to redis", "channel", app.config.Redis.Channel)
	return nil
}

// setupSweep builds the expiry sweep runner and, when enabled, its daily schedule.
func (app *application) setupSweep() error {
	var opts []sweep.RunnerOption
	if app.redis != nil {
		ttl := time.Duration(app.config.Sweep.LockTTLSeconds) * time.Second
		opts = append(opts, sweep.WithLocker(redis.NewLocker(app.redis, ttl)))
	}
	app.sweeper = sweep.NewRunner(app.billingService, app.logger, opts...)

	if !app.config.Sweep.Enabled {
		return nil
	}

	scheduler, err := sweep.NewScheduler(app.sweeper, app.config.Sweep.At)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}
	app.scheduler = scheduler
	app.scheduler.Start()
	app.logger.Info("Expiry sweep scheduled", "at_utc", app.config.Sweep.At)
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// No new deliveries once the queue is closed.
	if app.eventQueue != nil {
		app.eventQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}

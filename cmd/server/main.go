package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	config "github.com/markaz-center/markazbot/configs"
	"github.com/markaz-center/markazbot/internal/api/handlers"
	"github.com/markaz-center/markazbot/internal/api/middleware"
	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/feed"
	"github.com/markaz-center/markazbot/internal/jobs"
	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/notify"
	"github.com/markaz-center/markazbot/internal/platform"
	"github.com/markaz-center/markazbot/internal/queue"
	"github.com/markaz-center/markazbot/internal/repository"
	"github.com/markaz-center/markazbot/internal/scheduler"
	"github.com/markaz-center/markazbot/internal/service"
	"github.com/markaz-center/markazbot/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warnf("failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("invalid configuration: %v", err)
	}
	logger.Init(cfg.Environment, cfg.LogLevel)

	businessClock, err := clock.NewBusinessClock(cfg.BusinessTimezone)
	if err != nil {
		logger.Log.Fatalf("failed to load business timezone: %v", err)
	}

	accessToken, err := resolveMetaToken(cfg)
	if err != nil {
		logger.Log.Fatalf("failed to resolve meta access token: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		logger.Log.Fatalf("failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		logger.Log.Fatalf("database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	sheetsFeed, err := feed.NewSheetsFeed(context.Background(),
		cfg.GoogleCredentialsFile, cfg.SpreadsheetID, cfg.SheetName, businessClock)
	if err != nil {
		logger.Log.Fatalf("failed to open spreadsheet feed: %v", err)
	}

	mediaService, err := service.NewR2MediaService(*cfg)
	if err != nil {
		logger.Log.Fatalf("failed to initialize media storage: %v", err)
	}

	notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken)
	if err != nil {
		logger.Log.Fatalf("failed to initialize telegram notifier: %v", err)
	}

	courseRepo := repository.NewCourseRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	markerRepo := repository.NewReminderMarkerRepository(db)

	publishers := []platform.Publisher{
		platform.NewFacebookPublisher(cfg.FacebookPageID, accessToken, 30*time.Second),
		platform.NewInstagramPublisher(cfg.InstagramAccountID, accessToken, 30*time.Second),
	}

	alerter := queue.NewAlerter(asynqClient)

	postJob := jobs.NewPostPublishJob(
		sheetsFeed, publishers, mediaService, businessClock, alerter,
		cfg.PublishConcurrency, cfg.TickTimeout,
	)
	reminderJob := jobs.NewReminderJob(
		courseRepo, regRepo, markerRepo, notifier, businessClock,
		reminderOffsets(cfg), alerter, cfg.TickTimeout,
	)

	sched := scheduler.NewScheduler(businessClock.Location(), cfg.TickInterval, postJob, reminderJob)
	sched.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		queueW := queue.NewQueue(notifier, cfg.AdminChatIDs)
		mux.HandleFunc(queue.TaskTypeAdminAlert, queueW.HandleAdminAlertTask)

		logger.Log.Info("starting asynq worker")
		if err := server.Run(mux); err != nil {
			logger.Log.Fatalf("could not start asynq worker: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Log.Errorf("request failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	ops := handlers.NewOpsHandler(sheetsFeed, businessClock, map[string]handlers.Pass{
		"posts":     postJob,
		"reminders": reminderJob,
	})
	app.Get("/health", ops.Health)

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	api.Get("/posts/pending", ops.ListPending)
	api.Post("/run/:pass", ops.TriggerRun)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Log.Fatalf("failed to start http server: %v", err)
		}
	}()
	logger.Log.WithField("addr", cfg.HTTPAddr).Info("ops api listening")

	gracefulShutdown(app, sched)
}

// resolveMetaToken prefers the encrypted-at-rest token when configured.
func resolveMetaToken(cfg *config.Config) (string, error) {
	if cfg.MetaAccessTokenEncrypted != "" {
		return utils.Decrypt(cfg.MetaAccessTokenEncrypted, []byte(cfg.SecretKey))
	}
	return cfg.MetaAccessToken, nil
}

func reminderOffsets(cfg *config.Config) map[models.ReminderType]time.Duration {
	offsets := make(map[models.ReminderType]time.Duration, len(cfg.ReminderOffsets))
	for name, d := range cfg.ReminderOffsets {
		offsets[models.ReminderType(name)] = d
	}
	return offsets
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("failed to close database: %v", err)
		return
	}
	logger.Log.Info("database connection closed")
}

func gracefulShutdown(app *fiber.App, sched *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.Log.Info("shutting down")

	if err := app.Shutdown(); err != nil {
		logger.Log.Errorf("failed to shut down http server: %v", err)
	}
	sched.Stop()
	logger.Log.Info("shutdown complete")
}

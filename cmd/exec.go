package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"
	"github.com/sourcegraph/conc"

	"queue-system/config"
	"queue-system/internal/handlers"
	"queue-system/internal/services"
	"queue-system/monitoring"
	"queue-system/security"
	"queue-system/utils"
)

func Start() error {
	cfg := config.LoadConfig()
	setupLogger(cfg)

	// Serve on the configured port when started without a subcommand.
	if len(os.Args) < 2 {
		os.Args = append(os.Args, "serve", "--http=0.0.0.0:"+cfg.Port)
	}

	app := pocketbase.New()

	redisClient, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	queueService := services.NewQueueService(registry, nil)

	persister := services.NewSnapshotPersister(redisClient, cfg.SnapshotKey, queueService, services.PersisterOptions{
		MaxTries:       uint(max(cfg.PersistMaxTries, 1)),
		MaxElapsed:     cfg.PersistMaxElapsed,
		ResyncInterval: cfg.PersistResyncEvery,
	})
	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	pn := pubnub.NewPubNub(pnConfig)

	notifier := services.NewDisplayNotifier(services.NewPubNubPublisher(pn), registry, cfg.NotifyRatePerSec, 256)
	monitor := monitoring.NewMonitor(queueService)

	queueService.AddListener(persister)
	queueService.AddListener(notifier)
	queueService.AddListener(monitor)

	// Restore after the listeners are registered: restored queues are published as events.
	restoreQueueState(persister, queueService)

	ticker := services.NewDisplayTicker(queueService, cfg.ElapsedTickInterval, notifier, monitor)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start background tasks
	var lifecycle conc.WaitGroup
	lifecycle.Go(func() { persister.Run(ctx) })
	lifecycle.Go(func() { notifier.Run(ctx) })
	lifecycle.Go(func() { ticker.Run(ctx) })
	lifecycle.Go(func() { monitor.Run(ctx, cfg.HealthLogInterval) })

	estimator := services.NewWaitEstimator(nil, utils.MathRandRange{}, nil)
	queueHandler := handlers.NewQueueHandler(queueService, estimator)
	reportHandler := handlers.NewReportHandler(queueService, nil)
	rateLimiter := security.NewRateLimiter(redisClient, cfg.TicketRateLimit, cfg.TicketRateWindow)

	var operatorAuth *security.OperatorAuth
	if cfg.OperatorPassphrase != "" {
		operatorAuth, err = security.NewOperatorAuth(redisClient, cfg.OperatorPassphrase, cfg.OperatorSessionTTL)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("OPERATOR_PASSPHRASE is not set, operator endpoints are disabled")
	}

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Customer endpoints
		public := se.Router.Group("/api/v1/activities")
		public.BindFunc(security.AntiBotMiddleware())
		public.GET("", queueHandler.ListActivities)
		public.GET("/{activityId}/queue", queueHandler.GetQueue)
		public.POST("/{activityId}/tickets", queueHandler.IssueTicket).BindFunc(rateLimiter.TicketRateLimit())
		public.GET("/{activityId}/tickets/{number}", queueHandler.GetTicketStatus)

		// Operator endpoints
		if operatorAuth != nil {
			adminHandler := handlers.NewAdminHandler(queueService, operatorAuth, monitor)

			se.Router.POST("/api/v1/admin/login", adminHandler.Login)

			admin := se.Router.Group("/api/v1/admin")
			admin.BindFunc(operatorAuth.RequireOperator())
			admin.POST("/logout", adminHandler.Logout)
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.POST("/activities/{activityId}/call-next", adminHandler.CallNext)
			admin.POST("/activities/{activityId}/skip", adminHandler.Skip)
			admin.POST("/activities/{activityId}/reset", adminHandler.Reset)
			admin.GET("/reports/queue.csv", reportHandler.DownloadQueueReport)
		}

		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(e.Request.Context(), redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]any{
				"status":           "healthy",
				"snapshot_pending": persister.Pending(),
			})
		})

		slog.Info("server routes registered", "activities", len(registry.IDs()))

		return se.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		slog.Info("shutdown signal received, flushing queue state")
		cancel()
		lifecycle.Wait()
		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		return err
	}

	cancel()
	lifecycle.Wait()
	return nil
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func loadRegistry(cfg *config.Config) (*services.ActivityRegistry, error) {
	if cfg.ActivitiesFile == "" {
		return services.NewActivityRegistry(services.DefaultActivities())
	}
	return services.LoadActivitiesFile(cfg.ActivitiesFile)
}

// restoreQueueState loads the last snapshot from Redis. A missing or
// unreadable snapshot starts every activity empty.
func restoreQueueState(persister *services.SnapshotPersister, queueService *services.QueueService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, found, err := persister.Load(ctx)
	switch {
	case err != nil:
		slog.Error("restore queue state failed, starting empty", "error", err)
		return
	case !found:
		slog.Info("no stored queue state, starting empty")
		return
	}

	restored := queueService.Restore(snap)
	slog.Info("queue state restored", "activities", restored)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-exam-scheduler/api/swagger"
	"github.com/noah-isme/sma-exam-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-exam-scheduler/internal/middleware"
	"github.com/noah-isme/sma-exam-scheduler/internal/repository"
	"github.com/noah-isme/sma-exam-scheduler/internal/service"
	"github.com/noah-isme/sma-exam-scheduler/pkg/cache"
	"github.com/noah-isme/sma-exam-scheduler/pkg/config"
	"github.com/noah-isme/sma-exam-scheduler/pkg/database"
	"github.com/noah-isme/sma-exam-scheduler/pkg/jobs"
	"github.com/noah-isme/sma-exam-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-exam-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-exam-scheduler/pkg/middleware/requestid"
)

const proposalKeyPrefix = "exam-scheduler:proposal"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var proposals service.ProposalStore
	if cfg.Scheduler.ProposalStore == config.ProposalStoreRedis {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		proposals = service.NewRedisProposalStore(repository.NewCacheRepository(client, proposalKeyPrefix, logr))
	} else {
		proposals = service.NewMemoryProposalStore()
	}

	metrics := service.NewMetricsService()
	tracker := jobs.NewTracker(cfg.Scheduler.JobTTL)
	validate := validator.New()
	subjects := repository.NewSubjectRepository(db)
	rooms := repository.NewRoomRepository(db)

	svc := service.NewExamScheduleService(
		subjects,
		rooms,
		repository.NewExamScheduleRepository(db),
		repository.NewExamScheduleItemRepository(db),
		db,
		proposals,
		tracker,
		metrics,
		validate,
		logr,
		service.ExamScheduleConfig{
			TimeLimit:           cfg.Scheduler.TimeLimit,
			MaxTimeLimit:        cfg.Scheduler.MaxTimeLimit,
			Workers:             cfg.Scheduler.Workers,
			HorizonDays:         cfg.Scheduler.HorizonDays,
			ProposalTTL:         cfg.Scheduler.ProposalTTL,
			AbortOnUnassignable: cfg.Scheduler.AbortOnUnassignable,
			Institution:         cfg.Export.Institution,
			PDFTitle:            cfg.Export.PDFTitle,
		},
	)

	queue := jobs.NewQueue("exam-schedule", svc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.QueueWorkers,
		MaxRetries: cfg.Scheduler.QueueRetries,
		Logger:     logr,
		OnGiveUp:   svc.JobGaveUp,
	})
	queue.Start(ctx)
	defer queue.Stop()
	svc.AttachQueue(queue)

	router := newRouter(cfg, logr, routes{
		schedules: handler.NewExamScheduleHandler(svc),
		subjects:  handler.NewSubjectHandler(service.NewSubjectService(subjects, validate, logr)),
		rooms:     handler.NewRoomHandler(service.NewRoomService(rooms, db, validate, logr)),
		ops:       handler.NewMetricsHandler(metrics.Handler(), checks, logr),
	}, metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "proposalStore", cfg.Scheduler.ProposalStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// routes groups the handlers mounted by newRouter.
type routes struct {
	schedules *handler.ExamScheduleHandler
	subjects  *handler.SubjectHandler
	rooms     *handler.RoomHandler
	ops       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes, metrics *service.MetricsService) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	h.schedules.Register(api.Group("/exam-schedules"))
	h.subjects.Register(api.Group("/subjects"))
	h.rooms.Register(api.Group("/rooms"))

	return r
}

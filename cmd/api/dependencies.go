package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/returns-insights/internal/domain/dashboard/handler"
	"github.com/FACorreiaa/returns-insights/internal/domain/dashboard/service"
	"github.com/FACorreiaa/returns-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/report"
	"github.com/FACorreiaa/returns-insights/pkg/config"
	"github.com/FACorreiaa/returns-insights/pkg/cron"
	"github.com/FACorreiaa/returns-insights/pkg/interceptors"
	"github.com/FACorreiaa/returns-insights/pkg/mailer"
	"github.com/FACorreiaa/returns-insights/pkg/storage"
	"github.com/FACorreiaa/returns-insights/pkg/telemetry"
)

// sessionCleanupSpec purges expired dashboard sessions every ten minutes.
const sessionCleanupSpec = "@every 10m"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	// Services
	Loader           *parser.Loader
	Engine           *metrics.Engine
	DashboardService *service.Service
	FileStorage      storage.Storage
	Mailer           *mailer.Mailer
	ReportJob        *report.Job
	Scheduler        *cron.Scheduler

	// Handlers
	DashboardHandler *handler.DashboardHandler
	Router           http.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = telemetry.NewMetrics()
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// newLoader builds the workbook loader, applying sheet name overrides.
func newLoader(cfg *config.Config, logger *slog.Logger) *parser.Loader {
	loaderCfg := parser.DefaultConfig()
	if cfg.Loader.SalesSheet != "" {
		loaderCfg.SalesSheet = cfg.Loader.SalesSheet
	}
	if cfg.Loader.MatrixSheet != "" {
		loaderCfg.MatrixSheet = cfg.Loader.MatrixSheet
	}
	if cfg.Loader.FullSheet != "" {
		loaderCfg.FullSheet = cfg.Loader.FullSheet
	}
	return parser.NewLoader(loaderCfg, logger)
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Loader = newLoader(d.Config, d.Logger)
	d.Engine = metrics.NewEngine(nil)
	d.DashboardService = service.NewService(d.Loader, d.Engine, d.Metrics, d.Config.Server.SessionTTL, d.Logger)

	// File storage for scheduled reports
	fileStorage, err := storage.New(&storage.Config{LocalPath: d.Config.Storage.LocalPath})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Mailer = mailer.New(d.Config.Mail.ResendAPIKey, d.Config.Mail.From, d.Config.Mail.To, d.Logger)

	d.Logger.Info("services initialized",
		slog.String("storage_path", d.Config.Storage.LocalPath),
		slog.Bool("mail_enabled", d.Mailer.Enabled()),
	)
	return nil
}

// initScheduler registers the session cleanup and, when configured, the
// scheduled report.
func (d *Dependencies) initScheduler() error {
	d.Scheduler = cron.NewScheduler(d.Logger, d.Metrics)

	if err := d.Scheduler.Add(sessionCleanupSpec, d.DashboardService.CleanupJob()); err != nil {
		return err
	}

	if d.Config.Report.Schedule == "" {
		return nil
	}
	d.ReportJob = report.NewJob(d.Loader, d.FileStorage, d.Mailer,
		d.Config.Report.SalesPath, d.Config.Report.ReturnsPath, d.Logger)
	if err := d.Scheduler.Add(d.Config.Report.Schedule, d.ReportJob); err != nil {
		return fmt.Errorf("invalid REPORT_SCHEDULE: %w", err)
	}
	d.Logger.Info("scheduled report enabled", slog.String("schedule", d.Config.Report.Schedule))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	maxUpload := int64(d.Config.Server.MaxUploadMB) << 20
	d.DashboardHandler = handler.NewDashboardHandler(d.DashboardService, d.FileStorage, d.Logger, maxUpload)

	d.Router = handler.NewRouter(d.DashboardHandler, handler.RouterConfig{
		Logger:         d.Logger,
		Metrics:        d.Metrics,
		AllowedOrigins: d.Config.Server.AllowedOrigins,
		RateLimiter:    interceptors.NewRateLimiter(float64(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst),
	})

	d.Logger.Info("handlers initialized")
}

// Cleanup stops background work
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	d.Logger.Info("cleanup completed")
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"NewsBrief/internal/config"
	"NewsBrief/internal/httpapi"
	"NewsBrief/internal/infrastructure/fetcher"
	"NewsBrief/internal/infrastructure/llm"
	"NewsBrief/internal/infrastructure/parser"
	"NewsBrief/internal/infrastructure/scheduler"
	"NewsBrief/internal/infrastructure/storage"
	"NewsBrief/internal/infrastructure/telegram"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/ports"
	"NewsBrief/internal/scanner"
	"NewsBrief/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repository *storage.SQLRepository
	scheduler  *usecase.Scheduler
	handlers   *httpapi.Handlers
	handler    http.Handler
}

// New builds every collaborator explicitly from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	repo, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewZnewsLayout(listingSelectors(cfg.Source.Selectors), detailSelectors(cfg.Source.Selectors)))

	httpFetcher := fetcher.NewHTTPFetcher(nil, fetcher.Options{
		Timeout:   cfg.Source.Timeout,
		UserAgent: cfg.Source.UserAgent,
		Language:  cfg.Source.Language,
	})

	source, err := parser.NewStrategySource(registry, httpFetcher, cfg.Source, baseLogger.With("component", "source"))
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("build source: %w", err)
	}

	summarizer, err := llm.New(cfg.Summarizer)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("build summarizer: %w", err)
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg)
	} else {
		baseLogger.Warn("telegram is not configured, announcements disabled")
	}

	ingestor := usecase.NewIngestor(usecase.IngestDeps{
		Source:     source,
		Repository: repo,
		Categories: cfg.CategorySlugs(),
		Logger:     baseLogger.With("component", "ingest"),
	})

	summaries := usecase.NewSummaries(usecase.SummaryDeps{
		Repository: repo,
		Details:    source,
		Summarizer: summarizer,
		Notifier:   notifier,
		ThreadIDs:  cfg.ThreadIDs(),
		Logger:     baseLogger.With("component", "summaries"),
	})

	sched := usecase.NewScheduler(usecase.SchedulerDeps{
		ScrapeDriver:    jobDriver(cfg.Scheduler.ScrapeCron, cfg.Scheduler.ScrapeInterval),
		SummarizeDriver: jobDriver(cfg.Scheduler.SummarizeCron, cfg.Scheduler.SummarizeInterval),
		Ingestor:        ingestor,
		Summaries:       summaries,
		Logger:          baseLogger.With("component", "scheduler"),
	})

	gin.SetMode(gin.ReleaseMode)
	handlers := httpapi.NewHandlers(ingestor, summaries, baseLogger.With("component", "http"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		repository: repo,
		scheduler:  sched,
		handlers:   handlers,
		handler:    handlers.Router(),
	}, nil
}

// Run migrates storage, starts the scheduler and serves HTTP until ctx ends.
func (a *Application) Run(ctx context.Context) error {
	defer a.repository.Close()

	if err := a.repository.Ping(ctx); err != nil {
		return fmt.Errorf("ping storage: %w", err)
	}
	if err := a.repository.Migrate(ctx); err != nil {
		return err
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(a.cfg.Server.Port)),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server is running", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		_ = a.scheduler.Stop(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")
	err := server.Shutdown(shutdownCtx)
	if stopErr := a.scheduler.Stop(shutdownCtx); stopErr != nil {
		a.logger.Warn("scheduler stop", "error", stopErr)
	}
	if drainErr := a.handlers.Drain(shutdownCtx); drainErr != nil {
		a.logger.Warn("pending announcements dropped", "error", drainErr)
	}
	if err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// WaitAnnouncements blocks until cards queued by /summarize are sent.
func (a *Application) WaitAnnouncements(ctx context.Context) error {
	return a.handlers.Drain(ctx)
}

// jobDriver prefers a cron expression over a fixed interval.
func jobDriver(spec string, interval time.Duration) ports.Scheduler {
	if spec != "" {
		return scheduler.NewCronScheduler(spec)
	}
	return scheduler.NewIntervalScheduler(interval)
}

func listingSelectors(cfg config.SelectorConfig) parser.ListingSelectors {
	return parser.ListingSelectors{
		Item:          cfg.Item,
		IDAttr:        cfg.IDAttr,
		Thumbnail:     cfg.Thumbnail,
		ThumbnailAttr: cfg.ThumbnailAttr,
		Title:         cfg.Title,
		Link:          cfg.Link,
	}
}

func detailSelectors(cfg config.SelectorConfig) parser.DetailSelectors {
	return parser.DetailSelectors{
		Content: cfg.Content,
		Noise:   cfg.Noise,
	}
}

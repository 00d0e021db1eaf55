package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/ports"
)

// SchedulerDeps wires interval drivers to the use cases they trigger.
type SchedulerDeps struct {
	ScrapeDriver    ports.Scheduler
	SummarizeDriver ports.Scheduler
	Ingestor        *Ingestor
	Summaries       *Summaries
	Logger          *slog.Logger
}

// Scheduler fires the same work as the HTTP triggers on a timer.
type Scheduler struct {
	scrapeDriver    ports.Scheduler
	summarizeDriver ports.Scheduler
	ingestor        *Ingestor
	summaries       *Summaries
	logger          *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		scrapeDriver:    deps.ScrapeDriver,
		summarizeDriver: deps.SummarizeDriver,
		ingestor:        deps.Ingestor,
		summaries:       deps.Summaries,
		logger:          logger,
	}
}

// Start registers the jobs with their drivers.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.scrapeDriver != nil && s.ingestor != nil {
		job := func(time.Time) {
			s.ingestor.IngestAll(ctx)
		}
		if err := s.scrapeDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	if s.summarizeDriver != nil && s.summaries != nil {
		job := func(time.Time) {
			s.summarizeOnce(ctx)
		}
		if err := s.summarizeDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scheduler) summarizeOnce(ctx context.Context) {
	outcome, err := s.summaries.SummarizeNext(ctx)
	switch {
	case errors.Is(err, domain.ErrNoPendingArticle):
		s.logger.Debug("nothing to summarize")
	case err != nil:
		s.logger.Error("scheduled summary failed", "error", err)
	default:
		s.summaries.Announce(ctx, outcome)
	}
}

// Stop gracefully tears down the underlying schedulers.
func (s *Scheduler) Stop(ctx context.Context) error {
	var errs []error
	if s.scrapeDriver != nil {
		errs = append(errs, s.scrapeDriver.Stop(ctx))
	}
	if s.summarizeDriver != nil {
		errs = append(errs, s.summarizeDriver.Stop(ctx))
	}
	return errors.Join(errs...)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/ports"
)

// IngestDeps wires the driven adapters used by ingestion.
type IngestDeps struct {
	Source     ports.ListingSource
	Repository ports.ArticleRepository
	Categories []string
	Logger     *slog.Logger
}

// Ingestor scrapes category listings and stores articles it has not seen yet.
type Ingestor struct {
	source     ports.ListingSource
	repository ports.ArticleRepository
	categories []string
	logger     *slog.Logger
}

// Report describes one category run.
type Report struct {
	Category   string
	Candidates int
	New        int
	Result     domain.InsertResult
	Duration   time.Duration
	Err        error
}

// NewIngestor constructs the ingestion use case.
func NewIngestor(deps IngestDeps) *Ingestor {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ingestor{
		source:     deps.Source,
		repository: deps.Repository,
		categories: deps.Categories,
		logger:     logger,
	}
}

// SelectNew keeps candidates with a non-empty id that is neither in existing
// nor repeated earlier in the batch.
func SelectNew(candidates []domain.Article, existing map[string]bool) []domain.Article {
	seen := make(map[string]bool, len(candidates))
	fresh := make([]domain.Article, 0, len(candidates))
	for _, c := range candidates {
		if c.ArticleID == "" || existing[c.ArticleID] || seen[c.ArticleID] {
			continue
		}
		seen[c.ArticleID] = true
		fresh = append(fresh, c)
	}
	return fresh
}

func candidateIDs(candidates []domain.Article) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.ArticleID != "" {
			ids = append(ids, c.ArticleID)
		}
	}
	return ids
}

// IngestCategory runs fetch, extract, dedup and insert for one category.
func (i *Ingestor) IngestCategory(ctx context.Context, category string) (Report, error) {
	report := Report{Category: category}

	candidates, err := i.source.FetchCategory(ctx, category)
	if err != nil {
		return report, fmt.Errorf("fetch %s: %w", category, err)
	}
	report.Candidates = len(candidates)

	existing, err := i.repository.ExistingIDs(ctx, candidateIDs(candidates))
	if err != nil {
		return report, fmt.Errorf("load existing %s: %w", category, err)
	}

	fresh := SelectNew(candidates, existing)
	report.New = len(fresh)
	if len(fresh) == 0 {
		return report, nil
	}

	result, err := i.repository.InsertMany(ctx, fresh)
	report.Result = result
	if err != nil {
		return report, fmt.Errorf("insert %d articles to %s: %w", len(fresh), category, err)
	}

	return report, nil
}

// IngestAll runs every configured category concurrently and waits for all of
// them. A failing category never affects the others; its error is logged and
// kept on its report. Started tasks are not cancelled with ctx.
func (i *Ingestor) IngestAll(ctx context.Context) []Report {
	runID := uuid.NewString()
	logger := i.logger.With("run_id", runID)
	taskCtx := context.WithoutCancel(ctx)

	logger.Info("scrape started", "categories", len(i.categories))

	reports := make([]Report, len(i.categories))
	var wg sync.WaitGroup
	for idx, category := range i.categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := time.Now()
			report, err := i.IngestCategory(taskCtx, category)
			report.Duration = time.Since(started)
			report.Err = err
			reports[idx] = report
			i.logReport(logger, report)
		}()
	}
	wg.Wait()

	logger.Info("scrape finished", "categories", len(i.categories))
	return reports
}

func (i *Ingestor) logReport(logger *slog.Logger, r Report) {
	attrs := []any{
		"category", r.Category,
		"candidates", r.Candidates,
		"new", r.New,
		"inserted", r.Result.Inserted,
		"duration", r.Duration,
	}
	if r.Err != nil {
		logger.Error("scrape category failed", append(attrs, "error", r.Err)...)
		return
	}
	if r.Result.Skipped() > 0 {
		logger.Info("scrape category skipped rows",
			append(attrs, "duplicates", r.Result.Duplicates, "rejected", r.Result.Rejected)...)
		return
	}
	logger.Info("scrape category done", attrs...)
}

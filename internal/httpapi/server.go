package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/usecase"
)

const (
	livenessMessage  = "Hello World"
	scrapeMessage    = "Scrap content success!"
	noPendingMessage = "No news found with missing summary."
	summaryFailedMsg = "Summary failed!"
	summaryOKMessage = "Summary generated successfully"
	internalErrorMsg = "Internal Server Error"
	announceTimeout  = 30 * time.Second
)

// Ingestion triggers a scrape of every configured category.
type Ingestion interface {
	IngestAll(ctx context.Context) []usecase.Report
}

// Summarization produces and announces one summary per call.
type Summarization interface {
	SummarizeNext(ctx context.Context) (usecase.Outcome, error)
	Announce(ctx context.Context, outcome usecase.Outcome)
}

// Handlers binds the use cases to HTTP routes.
type Handlers struct {
	ingestion Ingestion
	summaries Summarization
	logger    *slog.Logger

	announcing sync.WaitGroup
}

// NewHandlers builds the route handlers.
func NewHandlers(ingestion Ingestion, summaries Summarization, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handlers{ingestion: ingestion, summaries: summaries, logger: logger}
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(ingestion Ingestion, summaries Summarization, logger *slog.Logger) *gin.Engine {
	return NewHandlers(ingestion, summaries, logger).Router()
}

// Router registers the routes on a new Gin engine.
func (h *Handlers) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(h.logger))

	r.GET("/", h.liveness)
	r.GET("/scrap", h.scrape)
	r.GET("/summarize", h.summarize)
	return r
}

func (h *Handlers) liveness(c *gin.Context) {
	c.String(http.StatusOK, livenessMessage)
}

// scrape waits for every category task and always reports success.
func (h *Handlers) scrape(c *gin.Context) {
	reports := h.ingestion.IngestAll(c.Request.Context())

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		h.logger.Warn("scrape finished with failures", "failed", failed, "total", len(reports))
	}

	c.String(http.StatusOK, scrapeMessage)
}

func (h *Handlers) summarize(c *gin.Context) {
	outcome, err := h.summaries.SummarizeNext(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrNoPendingArticle):
		c.JSON(http.StatusNotFound, gin.H{"message": noPendingMessage})
		return
	case errors.Is(err, domain.ErrSummaryFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"message": summaryFailedMsg})
		return
	case err != nil:
		h.logger.Error("summarize failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": internalErrorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": summaryOKMessage,
		"summary": outcome.Summary,
	})

	// The response completes when the handler returns, so the card is sent
	// from a goroutine that outlives the request.
	ctx := context.WithoutCancel(c.Request.Context())
	h.announcing.Add(1)
	go func() {
		defer h.announcing.Done()
		ctx, cancel := context.WithTimeout(ctx, announceTimeout)
		defer cancel()
		h.summaries.Announce(ctx, outcome)
	}()
}

// Drain waits for in-flight announcements or until ctx ends.
func (h *Handlers) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.announcing.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/logging"
	"NewsBrief/internal/ports"
)

// SummaryDeps wires the driven adapters used by summarization.
type SummaryDeps struct {
	Repository ports.ArticleRepository
	Details    ports.DetailSource
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	ThreadIDs  map[string]int
	Logger     *slog.Logger
}

// Summaries fills in missing article summaries one at a time.
type Summaries struct {
	repository ports.ArticleRepository
	details    ports.DetailSource
	summarizer ports.Summarizer
	notifier   ports.Notifier
	threadIDs  map[string]int
	logger     *slog.Logger
}

// Outcome is a freshly summarized article.
type Outcome struct {
	Article domain.Article
	Summary string
}

// NewSummaries constructs the summarization use case.
func NewSummaries(deps SummaryDeps) *Summaries {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Summaries{
		repository: deps.Repository,
		details:    deps.Details,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		threadIDs:  deps.ThreadIDs,
		logger:     logger,
	}
}

// SummarizeNext summarizes the oldest article without a summary.
//
// It returns domain.ErrNoPendingArticle when nothing is left, and
// domain.ErrSummaryFailed after storing the failure marker when the article
// page or the model could not produce a summary.
func (s *Summaries) SummarizeNext(ctx context.Context) (Outcome, error) {
	article, err := s.repository.OldestUnresolved(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return Outcome{}, domain.ErrNoPendingArticle
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("find unresolved: %w", err)
	}

	logger := s.logger.With("article_id", article.ArticleID, "category", article.Category)

	summary, genErr := s.generate(ctx, article)
	if genErr != nil {
		logger.Error("summary failed", "error", genErr)
		if err := s.repository.UpdateSummary(ctx, article.ArticleID, domain.SummaryFailed); err != nil {
			return Outcome{}, fmt.Errorf("store failure marker: %w", err)
		}
		return Outcome{Article: article}, fmt.Errorf("%w: %v", domain.ErrSummaryFailed, genErr)
	}

	if err := s.repository.UpdateSummary(ctx, article.ArticleID, summary); err != nil {
		return Outcome{}, fmt.Errorf("store summary: %w", err)
	}
	article.Summary = summary
	logger.Info("summary stored", "length", len([]rune(summary)))

	return Outcome{Article: article, Summary: summary}, nil
}

func (s *Summaries) generate(ctx context.Context, article domain.Article) (string, error) {
	if s.summarizer == nil {
		return "", errors.New("no summarizer configured")
	}

	content, err := s.details.FetchDetail(ctx, article.Link)
	if err != nil {
		return "", fmt.Errorf("fetch detail: %w", err)
	}

	summary, err := s.summarizer.Summarize(ctx, content)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if domain.IsUnresolvedSummary(&summary) {
		return "", fmt.Errorf("unusable summary %q", summary)
	}
	return summary, nil
}

// Announce posts the outcome to the chat. Failures are logged, never returned.
func (s *Summaries) Announce(ctx context.Context, outcome Outcome) {
	if s.notifier == nil {
		return
	}

	card := BuildCard(outcome, s.threadIDs)
	if err := s.notifier.SendCard(ctx, card); err != nil {
		s.logger.Warn("announce failed", "article_id", outcome.Article.ArticleID, "error", err)
		return
	}
	s.logger.Debug("announced", "article_id", outcome.Article.ArticleID, "thread_id", card.ThreadID)
}

// captionLimit is Telegram's photo caption length, counted after entity parsing.
const captionLimit = 1024

// BuildCard renders the chat card for a summarized article. The visible
// caption text is cut to captionLimit characters before HTML escaping.
func BuildCard(outcome Outcome, threadIDs map[string]int) domain.Card {
	a := outcome.Article
	title := truncateRunes(a.Title, captionLimit-1)
	summary := truncateRunes(strings.TrimSpace(outcome.Summary), captionLimit-1-utf8.RuneCountInString(title))
	caption := fmt.Sprintf("<strong>%s</strong>\n%s",
		html.EscapeString(title),
		html.EscapeString(summary))

	return domain.Card{
		PhotoURL: a.Thumbnail,
		Caption:  caption,
		LinkURL:  a.Link,
		ThreadID: threadIDs[a.Category],
	}
}

// truncateRunes keeps at most n runes of s, ending a cut string with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

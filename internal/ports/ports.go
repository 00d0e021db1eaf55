package ports

import (
	"context"
	"time"

	"NewsBrief/internal/domain"
)

// Fetcher downloads raw page markup.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// ListingSource turns a category listing page into candidate articles.
type ListingSource interface {
	FetchCategory(ctx context.Context, category string) ([]domain.Article, error)
}

// DetailSource returns the main body text of an article page.
type DetailSource interface {
	FetchDetail(ctx context.Context, link string) (string, error)
}

// ArticleRepository persists scraped articles and their summaries.
type ArticleRepository interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	InsertMany(ctx context.Context, articles []domain.Article) (domain.InsertResult, error)
	OldestUnresolved(ctx context.Context) (domain.Article, error)
	UpdateSummary(ctx context.Context, articleID, summary string) error
}

// Summarizer generates a short summary of article text with an LLM.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Notifier posts article cards to a chat channel.
type Notifier interface {
	SendCard(ctx context.Context, card domain.Card) error
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

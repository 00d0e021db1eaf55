package domain

import (
	"errors"
	"strings"
	"time"
)

// SummaryFailed marks an article whose summarization failed. It is a resolved
// value: such articles are not picked up again until the marker is cleared.
const SummaryFailed = "Failed to summary!"

// UnresolvedMarker is a legacy placeholder treated like an empty summary.
const UnresolvedMarker = "none"

var (
	// ErrNotFound is returned by storage lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrNoPendingArticle means every stored article already has a summary.
	ErrNoPendingArticle = errors.New("no article with missing summary")
	// ErrSummaryFailed means the summary could not be produced; the failure
	// marker has been stored in its place.
	ErrSummaryFailed = errors.New("summary failed")
)

// Article is a news item scraped from a category listing page.
type Article struct {
	ArticleID string
	Category  string
	Thumbnail string
	Title     string
	Link      string
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate reports the first missing required field.
func (a Article) Validate() error {
	switch {
	case a.ArticleID == "":
		return errors.New("article id is required")
	case a.Category == "":
		return errors.New("category is required")
	case a.Title == "":
		return errors.New("title is required")
	case a.Link == "":
		return errors.New("link is required")
	case a.Thumbnail == "":
		return errors.New("thumbnail is required")
	}
	return nil
}

// IsUnresolvedSummary reports whether a stored summary still needs to be
// generated: nil, empty, or "none" in any letter case.
func IsUnresolvedSummary(summary *string) bool {
	if summary == nil {
		return true
	}
	return *summary == "" || strings.EqualFold(*summary, UnresolvedMarker)
}

// InsertResult is the outcome of a bulk insert that tolerates per-row failures.
type InsertResult struct {
	Inserted   int
	Duplicates int
	Rejected   int
}

// Skipped counts every row that was not written.
func (r InsertResult) Skipped() int {
	return r.Duplicates + r.Rejected
}

// ListingOrder selects how listing items are ordered before insertion.
type ListingOrder string

const (
	// OrderPage keeps the page's DOM order (newest first on most sites).
	OrderPage ListingOrder = "page"
	// OrderOldestFirst reverses the DOM order so older items are stored first.
	OrderOldestFirst ListingOrder = "oldest-first"
)

// ParseListingOrder maps a config value to a ListingOrder, defaulting to
// OrderOldestFirst.
func ParseListingOrder(value string) ListingOrder {
	switch ListingOrder(strings.ToLower(strings.TrimSpace(value))) {
	case OrderPage:
		return OrderPage
	default:
		return OrderOldestFirst
	}
}

// Card is a photo message announcing a summarized article.
type Card struct {
	PhotoURL string
	Caption  string
	LinkURL  string
	ThreadID int
}

package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
	"NewsBrief/internal/scanner"
)

// StrategySource implements ListingSource and DetailSource via a registered layout.
type StrategySource struct {
	fetcher ports.Fetcher
	layout  scanner.Layout
	domain  string
	order   domain.ListingOrder
	logger  *slog.Logger
}

var (
	_ ports.ListingSource = (*StrategySource)(nil)
	_ ports.DetailSource  = (*StrategySource)(nil)
)

// NewStrategySource resolves the configured layout and binds it to the fetcher.
func NewStrategySource(reg *scanner.Registry, fetcher ports.Fetcher, cfg config.SourceConfig, log *slog.Logger) (*StrategySource, error) {
	if reg == nil {
		return nil, fmt.Errorf("layout registry is not configured")
	}
	layout, err := reg.Resolve(cfg.Layout)
	if err != nil {
		return nil, err
	}

	return &StrategySource{
		fetcher: fetcher,
		layout:  layout,
		domain:  strings.TrimRight(cfg.Domain, "/"),
		order:   domain.ParseListingOrder(cfg.Order),
		logger:  log,
	}, nil
}

// CategoryURL is the listing page of one category.
func (s *StrategySource) CategoryURL(category string) string {
	return s.domain + "/" + url.PathEscape(category) + ".html"
}

// FetchCategory downloads a category listing page and extracts its candidates.
func (s *StrategySource) FetchCategory(ctx context.Context, category string) ([]domain.Article, error) {
	pageURL := s.CategoryURL(category)
	s.debug("fetch listing", "category", category, "url", pageURL)

	markup, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", category, err)
	}

	articles, err := s.layout.ParseListing(markup, category, s.order)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", category, err)
	}

	base, err := url.Parse(pageURL)
	if err == nil {
		for i := range articles {
			articles[i].Link = resolve(base, articles[i].Link)
			articles[i].Thumbnail = resolve(base, articles[i].Thumbnail)
		}
	}

	s.debug("listing parsed", "category", category, "candidates", len(articles))
	return articles, nil
}

// FetchDetail downloads an article page and returns its body text.
func (s *StrategySource) FetchDetail(ctx context.Context, link string) (string, error) {
	markup, err := s.fetcher.Get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("fetch detail: %w", err)
	}

	text, err := s.layout.ParseDetail(markup)
	if err != nil {
		return "", fmt.Errorf("parse detail: %w", err)
	}
	return text, nil
}

// resolve makes ref absolute against base; empty and unparsable refs are kept.
func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

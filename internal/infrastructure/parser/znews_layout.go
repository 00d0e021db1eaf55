package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/scanner"
)

// ListingSelectors locate candidate fields inside a category listing page.
type ListingSelectors struct {
	Item          string
	IDAttr        string
	Thumbnail     string
	ThumbnailAttr string
	Title         string
	Link          string
}

// DetailSelectors locate the article body and the blocks to strip from it.
type DetailSelectors struct {
	Content string
	Noise   []string
}

// DefaultListingSelectors match the znews.vn category pages.
func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Item:          "#news-latest .article-list .article-item",
		IDAttr:        "article-id",
		Thumbnail:     ".article-thumbnail img",
		ThumbnailAttr: "data-src",
		Title:         ".article-title",
		Link:          ".article-thumbnail a",
	}
}

// DefaultDetailSelectors match the znews.vn article page.
func DefaultDetailSelectors() DetailSelectors {
	return DetailSelectors{
		Content: ".the-article-body",
		Noise:   []string{".notebox", "#innerarticle"},
	}
}

// ZnewsLayout extracts listings and article bodies with fixed CSS selectors.
type ZnewsLayout struct {
	listing ListingSelectors
	detail  DetailSelectors
}

var _ scanner.Layout = (*ZnewsLayout)(nil)

// NewZnewsLayout fills any empty selector with its default.
func NewZnewsLayout(listing ListingSelectors, detail DetailSelectors) *ZnewsLayout {
	defListing := DefaultListingSelectors()
	defDetail := DefaultDetailSelectors()

	listing.Item = orDefault(listing.Item, defListing.Item)
	listing.IDAttr = orDefault(listing.IDAttr, defListing.IDAttr)
	listing.Thumbnail = orDefault(listing.Thumbnail, defListing.Thumbnail)
	listing.ThumbnailAttr = orDefault(listing.ThumbnailAttr, defListing.ThumbnailAttr)
	listing.Title = orDefault(listing.Title, defListing.Title)
	listing.Link = orDefault(listing.Link, defListing.Link)

	detail.Content = orDefault(detail.Content, defDetail.Content)
	if len(detail.Noise) == 0 {
		detail.Noise = defDetail.Noise
	}

	return &ZnewsLayout{listing: listing, detail: detail}
}

// Name identifies the layout inside the registry.
func (z *ZnewsLayout) Name() string {
	return "znews"
}

// ParseListing returns one candidate per listing item. Missing fields are
// left empty; callers decide what is usable.
func (z *ZnewsLayout) ParseListing(markup, category string, order domain.ListingOrder) ([]domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	items := doc.Find(z.listing.Item)
	articles := make([]domain.Article, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		articles = append(articles, z.parseItem(item, category))
	})

	if order == domain.OrderOldestFirst {
		slices.Reverse(articles)
	}

	return articles, nil
}

func (z *ZnewsLayout) parseItem(item *goquery.Selection, category string) domain.Article {
	id, _ := item.Attr(z.listing.IDAttr)

	img := item.Find(z.listing.Thumbnail).First()
	thumb, _ := img.Attr(z.listing.ThumbnailAttr)

	link, _ := item.Find(z.listing.Link).First().Attr("href")

	return domain.Article{
		ArticleID: strings.TrimSpace(id),
		Category:  category,
		Thumbnail: strings.TrimSpace(thumb),
		Title:     strings.TrimSpace(item.Find(z.listing.Title).First().Text()),
		Link:      strings.TrimSpace(link),
	}
}

// ParseDetail returns the article body text without the noise blocks, falling
// back to the raw body container and then to the whole page.
func (z *ZnewsLayout) ParseDetail(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse detail: %w", err)
	}

	container := doc.Find(z.detail.Content)
	stripped := container.Clone()
	stripped.Find(strings.Join(z.detail.Noise, ", ")).Remove()

	if text := strings.TrimSpace(stripped.Text()); text != "" {
		return text, nil
	}
	if text := strings.TrimSpace(container.Text()); text != "" {
		return text, nil
	}
	return strings.TrimSpace(doc.Find("body").Text()), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

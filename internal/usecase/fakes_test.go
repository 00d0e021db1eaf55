package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"NewsBrief/internal/domain"
)

type fakeSource struct {
	listings map[string][]domain.Article
	errs     map[string]error
}

func (f *fakeSource) FetchCategory(_ context.Context, category string) ([]domain.Article, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.listings[category], nil
}

type fakeDetails struct {
	text string
	err  error
	got  []string
}

func (f *fakeDetails) FetchDetail(_ context.Context, link string) (string, error) {
	f.got = append(f.got, link)
	return f.text, f.err
}

// memRepository mimics the SQL repository: unique article ids, FIFO by
// insertion order, failure marker treated as resolved.
type memRepository struct {
	mu          sync.Mutex
	rows        []domain.Article
	nulls       map[string]bool
	existingErr error
	insertErr   error
	insertCalls int
}

func newMemRepository(rows ...domain.Article) *memRepository {
	return &memRepository{rows: rows, nulls: map[string]bool{}}
}

func (m *memRepository) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existingErr != nil {
		return nil, m.existingErr
	}
	out := map[string]bool{}
	for _, id := range ids {
		for _, r := range m.rows {
			if r.ArticleID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (m *memRepository) InsertMany(_ context.Context, articles []domain.Article) (domain.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		return domain.InsertResult{}, m.insertErr
	}

	var res domain.InsertResult
	for _, a := range articles {
		if a.Validate() != nil {
			res.Rejected++
			continue
		}
		if m.has(a.ArticleID) {
			res.Duplicates++
			continue
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		m.rows = append(m.rows, a)
		res.Inserted++
	}
	return res, nil
}

func (m *memRepository) has(id string) bool {
	for _, r := range m.rows {
		if r.ArticleID == id {
			return true
		}
	}
	return false
}

func (m *memRepository) OldestUnresolved(context.Context) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []domain.Article
	for _, r := range m.rows {
		s := r.Summary
		var summary *string
		if !m.nulls[r.ArticleID] {
			summary = &s
		}
		if domain.IsUnresolvedSummary(summary) {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return domain.Article{}, domain.ErrNotFound
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending[0], nil
}

func (m *memRepository) UpdateSummary(_ context.Context, id, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ArticleID == id {
			m.rows[i].Summary = summary
			delete(m.nulls, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memRepository) summaryOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ArticleID == id {
			return r.Summary
		}
	}
	return ""
}

func (m *memRepository) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.ArticleID)
	}
	sort.Strings(out)
	return out
}

type fakeSummarizer struct {
	summary string
	err     error
	got     []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, content string) (string, error) {
	f.got = append(f.got, content)
	return f.summary, f.err
}

type fakeNotifier struct {
	mu    sync.Mutex
	cards []domain.Card
	err   error
}

func (f *fakeNotifier) SendCard(_ context.Context, card domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, card)
	return f.err
}

var errBoom = errors.New("boom")

func article(id, category string, created time.Time) domain.Article {
	return domain.Article{
		ArticleID: id,
		Category:  category,
		Thumbnail: "https://img.example.com/" + id + ".jpg",
		Title:     "Story " + id,
		Link:      "https://news.example.com/" + id + ".html",
		CreatedAt: created,
	}
}

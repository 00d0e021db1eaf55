package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIngestion struct {
	calls   int
	reports []usecase.Report
}

func (s *stubIngestion) IngestAll(context.Context) []usecase.Report {
	s.calls++
	return s.reports
}

type stubSummaries struct {
	outcome usecase.Outcome
	err     error
	release chan struct{}

	mu        sync.Mutex
	announced []usecase.Outcome
}

func (s *stubSummaries) SummarizeNext(context.Context) (usecase.Outcome, error) {
	return s.outcome, s.err
}

func (s *stubSummaries) Announce(ctx context.Context, outcome usecase.Outcome) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announced = append(s.announced, outcome)
}

func (s *stubSummaries) announcedCopy() []usecase.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]usecase.Outcome(nil), s.announced...)
}

func serve(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewRouter(&stubIngestion{}, &stubSummaries{}, nil), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestScrapeAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	ing := &stubIngestion{reports: []usecase.Report{
		{Category: "the-thao", Result: domain.InsertResult{Inserted: 1}},
		{Category: "thoi-su", Err: fmt.Errorf("fetch thoi-su: timeout")},
	}}

	rec := serve(t, NewRouter(ing, &stubSummaries{}, nil), "/scrap")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Scrap content success!", rec.Body.String())
	assert.Equal(t, 1, ing.calls)
}

func TestSummarizeNoPending(t *testing.T) {
	t.Parallel()

	sum := &stubSummaries{err: domain.ErrNoPendingArticle}
	rec := serve(t, NewRouter(&stubIngestion{}, sum, nil), "/summarize")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"No news found with missing summary."}`, rec.Body.String())
	assert.Empty(t, sum.announcedCopy())
}

func TestSummarizeFailure(t *testing.T) {
	t.Parallel()

	sum := &stubSummaries{err: fmt.Errorf("%w: model down", domain.ErrSummaryFailed)}
	rec := serve(t, NewRouter(&stubIngestion{}, sum, nil), "/summarize")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Summary failed!"}`, rec.Body.String())
	assert.Empty(t, sum.announcedCopy())
}

func TestSummarizeInternalError(t *testing.T) {
	t.Parallel()

	sum := &stubSummaries{err: fmt.Errorf("find unresolved: connection refused")}
	rec := serve(t, NewRouter(&stubIngestion{}, sum, nil), "/summarize")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
}

func TestSummarizeSuccessAnnouncesAfterResponse(t *testing.T) {
	t.Parallel()

	outcome := usecase.Outcome{
		Article: domain.Article{ArticleID: "A1", Title: "T", Category: "the-thao"},
		Summary: "Recap.",
	}
	sum := &stubSummaries{outcome: outcome}
	h := NewHandlers(&stubIngestion{}, sum, nil)
	rec := serve(t, h.Router(), "/summarize")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Summary generated successfully","summary":"Recap."}`, rec.Body.String())

	require.NoError(t, h.Drain(context.Background()))
	announced := sum.announcedCopy()
	require.Len(t, announced, 1)
	assert.Equal(t, "A1", announced[0].Article.ArticleID)
}

func TestSummarizeResponseCompletesBeforeAnnouncement(t *testing.T) {
	t.Parallel()

	sum := &stubSummaries{
		outcome: usecase.Outcome{Article: domain.Article{ArticleID: "A1"}, Summary: "Recap."},
		release: make(chan struct{}),
	}
	h := NewHandlers(&stubIngestion{}, sum, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL + "/summarize")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err, "full body is readable while the card is still pending")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Summary generated successfully","summary":"Recap."}`, string(body))
	assert.Empty(t, sum.announcedCopy())

	close(sum.release)
	require.NoError(t, h.Drain(context.Background()))
	assert.Len(t, sum.announcedCopy(), 1)
}

func TestDrainHonoursContext(t *testing.T) {
	t.Parallel()

	sum := &stubSummaries{
		outcome: usecase.Outcome{Article: domain.Article{ArticleID: "A1"}},
		release: make(chan struct{}),
	}
	defer close(sum.release)
	h := NewHandlers(&stubIngestion{}, sum, nil)
	serve(t, h.Router(), "/summarize")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Drain(ctx), context.DeadlineExceeded)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewRouter(&stubIngestion{}, &stubSummaries{}, nil), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

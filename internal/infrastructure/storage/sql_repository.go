package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	newsTable = "news"
)

var articleColumns = []string{
	"article_id", "category", "thumbnail", "title", "link", "summary", "created_at", "updated_at",
}

var schemas = map[string]string{
	DriverPostgres: `
	CREATE TABLE IF NOT EXISTS news (
		id BIGSERIAL PRIMARY KEY,
		article_id TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		thumbnail TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		summary TEXT DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_news_created_at ON news(created_at);
	CREATE INDEX IF NOT EXISTS idx_news_category ON news(category);
	`,
	DriverSQLite: `
	CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		thumbnail TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		summary TEXT DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_news_created_at ON news(created_at);
	CREATE INDEX IF NOT EXISTS idx_news_category ON news(category);
	`,
}

// SQLRepository persists articles into Postgres or SQLite.
type SQLRepository struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

var _ ports.ArticleRepository = (*SQLRepository)(nil)

// DetectDriver picks the SQL driver for a DSN when none is configured.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the database; driver may be empty to infer it from the DSN.
func Open(driver, dsn string) (*SQLRepository, error) {
	if driver == "" {
		driver = DetectDriver(dsn)
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent category tasks queue on the pool.
		db.SetMaxOpenConns(1)
	}

	return NewSQLRepository(db, driver), nil
}

// NewSQLRepository wires a sql.DB implementation.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}

	return &SQLRepository{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the news table and its indexes if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemas[r.driver]); err != nil {
		return fmt.Errorf("migrate %s: %w", r.driver, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// ExistingIDs returns a map with IDs that already exist in storage.
func (r *SQLRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := r.sb.Select("article_id").From(newsTable).Where(sq.Eq{"article_id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// InsertMany writes every valid article in one transaction. Rows whose
// article_id already exists are skipped and counted, never fatal.
func (r *SQLRepository) InsertMany(ctx context.Context, articles []domain.Article) (domain.InsertResult, error) {
	var result domain.InsertResult
	if len(articles) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin insert: %w", err)
	}

	now := r.now()
	for _, article := range articles {
		if article.Validate() != nil {
			result.Rejected++
			continue
		}

		created := article.CreatedAt
		if created.IsZero() {
			created = now
		}

		query, args, err := r.sb.Insert(newsTable).
			Columns(articleColumns...).
			Values(article.ArticleID, article.Category, article.Thumbnail, article.Title,
				article.Link, article.Summary, created, created).
			Suffix("ON CONFLICT (article_id) DO NOTHING").
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return domain.InsertResult{}, fmt.Errorf("build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			_ = tx.Rollback()
			return domain.InsertResult{}, fmt.Errorf("insert %s: %w", article.ArticleID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return domain.InsertResult{}, fmt.Errorf("rows affected %s: %w", article.ArticleID, err)
		}
		if affected == 0 {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return domain.InsertResult{}, fmt.Errorf("commit insert: %w", err)
	}
	return result, nil
}

// OldestUnresolved returns the earliest-created article whose summary is
// missing, empty or "none"; domain.ErrNotFound when there is none.
func (r *SQLRepository) OldestUnresolved(ctx context.Context) (domain.Article, error) {
	query, args, err := r.sb.Select(articleColumns...).
		From(newsTable).
		Where(sq.Or{
			sq.Eq{"summary": nil},
			sq.Eq{"summary": ""},
			sq.Expr("LOWER(summary) = ?", domain.UnresolvedMarker),
		}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build unresolved query: %w", err)
	}

	var (
		article domain.Article
		summary sql.NullString
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&article.ArticleID, &article.Category, &article.Thumbnail, &article.Title,
		&article.Link, &summary, &article.CreatedAt, &article.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("query unresolved: %w", err)
	}

	article.Summary = summary.String
	return article, nil
}

// UpdateSummary stores the summary of one article.
func (r *SQLRepository) UpdateSummary(ctx context.Context, articleID, summary string) error {
	query, args, err := r.sb.Update(newsTable).
		Set("summary", summary).
		Set("updated_at", r.now()).
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update summary %s: %w", articleID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected %s: %w", articleID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update summary %s: %w", articleID, domain.ErrNotFound)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/model"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultChunkSize = 100
)

//go:embed schema/*.sql
var schemaFS embed.FS

// WriteResult counts postings per outcome of one UpsertBatch call.
type WriteResult struct {
	Written int `json:"written"`
	Failed  int `json:"failed"`
}

type Store struct {
	db        *sql.DB
	driver    string
	chunkSize int
}

// NewStore opens and pings the database. driver is "postgres" or "sqlite".
func NewStore(driver, connStr string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "", "pg", "postgresql", DriverPostgres:
		driver = DriverPostgres
	case "sqlite3", DriverSQLite:
		driver = DriverSQLite
	default:
		return nil, model.NewError(model.ErrConfig, "", "open store", eris.Errorf("unsupported driver %q", driver))
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "open store", eris.Wrap(err, "failed to open db"))
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, model.NewError(model.ErrStoreUnavailable, "", "open store", eris.Wrap(err, "failed to ping db"))
	}

	return &Store{db: db, driver: driver, chunkSize: DefaultChunkSize}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string {
	return s.driver
}

// SetChunkSize sets how many postings share one upsert transaction.
func (s *Store) SetChunkSize(n int) {
	if n <= 0 {
		n = DefaultChunkSize
	}
	s.chunkSize = n
}

// Migrate applies the embedded schema for the store's dialect. Every
// statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	content, err := schemaFS.ReadFile("schema/" + s.driver + ".sql")
	if err != nil {
		return eris.Wrap(err, "failed to read schema")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "failed to execute schema statement %q", firstLine(stmt))
		}
	}
	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// ListSites returns every enabled site in id order. The result is never nil.
func (s *Store) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT id, name, scraper_type, endpoint, base_url
FROM sites
WHERE enabled = ?
ORDER BY id
`), true)
	if err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "list sites", err)
	}
	defer rows.Close()

	sites := []model.Site{}
	for rows.Next() {
		var (
			site model.Site
			kind string
		)
		if err := rows.Scan(&site.ID, &site.Name, &kind, &site.Endpoint, &site.BaseURL); err != nil {
			return nil, model.NewError(model.ErrStoreUnavailable, "", "list sites", err)
		}
		site.Kind = model.ParseAdapterKind(kind)
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewError(model.ErrStoreUnavailable, "", "list sites", err)
	}
	return sites, nil
}

// SaveSite inserts or replaces a site registry row.
func (s *Store) SaveSite(ctx context.Context, site model.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO sites (id, name, scraper_type, endpoint, base_url, enabled)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    scraper_type = EXCLUDED.scraper_type,
    endpoint = EXCLUDED.endpoint,
    base_url = EXCLUDED.base_url,
    enabled = EXCLUDED.enabled
`), site.ID, site.Name, string(site.Kind), site.Endpoint, site.BaseURL, true)
	if err != nil {
		return eris.Wrapf(err, "failed to save site %s", site.ID)
	}
	return nil
}

// UpsertBatch writes postings keyed by (siteID, job_id), overwriting the
// mutable columns of existing rows. Postings are written in chunks, one
// transaction per chunk. A failed chunk does not stop later chunks; the
// returned error is a store_write_error reporting every failed chunk.
func (s *Store) UpsertBatch(ctx context.Context, siteID string, postings []model.Posting) (WriteResult, error) {
	var res WriteResult
	if len(postings) == 0 {
		return res, nil
	}

	var errs []error
	for start := 0; start < len(postings); start += s.chunkSize {
		end := min(start+s.chunkSize, len(postings))
		chunk := postings[start:end]

		if err := s.upsertChunk(ctx, siteID, chunk); err != nil {
			res.Failed += len(chunk)
			errs = append(errs, eris.Wrapf(err, "chunk %d-%d", start, end))
			slog.Warn("upsert chunk failed",
				"site_id", siteID,
				"from", start,
				"to", end,
				"error", err,
			)
			continue
		}
		res.Written += len(chunk)
		slog.Debug("upsert chunk written",
			"site_id", siteID,
			"from", start,
			"to", end,
		)
	}

	if len(errs) == 0 {
		return res, nil
	}
	return res, model.NewError(model.ErrStoreWrite, siteID, "upsert jobs", errors.Join(errs...))
}

func (s *Store) upsertChunk(ctx context.Context, siteID string, chunk []model.Posting) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO jobs (site_id, job_id, title, company, location, url, date_posted, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (site_id, job_id) DO UPDATE SET
    title = EXCLUDED.title,
    company = EXCLUDED.company,
    location = EXCLUDED.location,
    url = EXCLUDED.url,
    date_posted = EXCLUDED.date_posted,
    updated_at = CURRENT_TIMESTAMP
`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range chunk {
		if _, err = stmt.ExecContext(ctx, siteID, p.JobID, p.Title, p.Company, p.Location, p.URL, p.DateString()); err != nil {
			return eris.Wrapf(err, "job %s", p.JobID)
		}
	}
	return tx.Commit()
}

// JobRecord is a persisted job row as served by the status API.
type JobRecord struct {
	SiteID     string  `json:"site_id"`
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Location   string  `json:"location"`
	URL        string  `json:"url"`
	DatePosted *string `json:"date_posted,omitempty"`
	UpdatedAt  string  `json:"updated_at"`
}

type JobQuery struct {
	SiteID string
	Limit  int
	Offset int
}

func (s *Store) ListJobs(ctx context.Context, q JobQuery) ([]JobRecord, error) {
	limit := clampLimit(q.Limit, 20, 200)
	offset := max(q.Offset, 0)

	query := `
SELECT site_id, job_id, title, company, location, url, CAST(date_posted AS TEXT), CAST(updated_at AS TEXT)
FROM jobs
`
	args := []any{}
	if q.SiteID != "" {
		query += "WHERE site_id = ?\n"
		args = append(args, q.SiteID)
	}
	query += "ORDER BY updated_at DESC, site_id, job_id\nLIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []JobRecord{}
	for rows.Next() {
		var (
			j          JobRecord
			datePosted sql.NullString
		)
		if err := rows.Scan(&j.SiteID, &j.JobID, &j.Title, &j.Company, &j.Location, &j.URL, &datePosted, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if datePosted.Valid {
			d := datePosted.String
			j.DatePosted = &d
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) CountJobs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	return n, err
}

// DeleteStaleJobs removes jobs no run has touched since olderThan ago.
func (s *Store) DeleteStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
DELETE FROM jobs
WHERE updated_at < ?
`), s.timestampArg(time.Now().Add(-olderThan)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// timestampArg renders t for comparison with updated_at. Postgres gets a
// zoned value so the session TimeZone cannot shift it; SQLite stores
// CURRENT_TIMESTAMP as UTC text.
func (s *Store) timestampArg(t time.Time) any {
	t = t.UTC()
	if s.driver == DriverPostgres {
		return t
	}
	return t.Format(time.DateTime)
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var (
		sb strings.Builder
		n  int
	)
	sb.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}

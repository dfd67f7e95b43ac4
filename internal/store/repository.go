package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/crosslens/crosslens-go/internal/database"
	"github.com/crosslens/crosslens-go/internal/models"
)

// Querier defines the database operations the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Repository persists ingestion batches so series survive restarts. The
// in-memory store remains the read path for the engines; the repository is
// the durable batch log behind it.
type Repository struct {
	db Querier
}

// NewRepository creates a repository over the shared connection pool.
func NewRepository(db *database.PostgresDB) *Repository {
	var querier Querier
	if db != nil {
		querier = db.Pool
	}
	return &Repository{db: querier}
}

// NewRepositoryWithQuerier creates a repository with a custom querier (for tests).
func NewRepositoryWithQuerier(db Querier) *Repository {
	return &Repository{db: db}
}

// Available reports whether a database connection is configured.
func (r *Repository) Available() bool {
	return r.db != nil
}

// SaveBatch upserts the batch points; a later batch overwrites rows with the
// same (domain, metric, timestamp).
func (r *Repository) SaveBatch(ctx context.Context, ts *models.TimeSeries) error {
	if r.db == nil {
		return fmt.Errorf("series database is not available")
	}

	query := `
		INSERT INTO metric_points (domain, metric, unit, observed_at, value, batch_id, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (domain, metric, observed_at)
		DO UPDATE SET value = EXCLUDED.value, unit = EXCLUDED.unit, batch_id = EXCLUDED.batch_id, ingested_at = EXCLUDED.ingested_at
	`

	for _, p := range ts.Points {
		if _, err := r.db.Exec(ctx, query,
			ts.Domain, ts.Metric, ts.Unit, p.Timestamp, p.Value.InexactFloat64(), ts.BatchID, ts.IngestedAt,
		); err != nil {
			return fmt.Errorf("save point %s/%s@%s: %w", ts.Domain, ts.Metric, p.Timestamp.Format(time.RFC3339), err)
		}
	}
	return nil
}

// LoadSeries reads the stored points for (domain, metric) in ascending time
// order, optionally bounded by [from, to].
func (r *Repository) LoadSeries(ctx context.Context, domain string, metric string, from time.Time, to time.Time) (*models.TimeSeries, error) {
	if r.db == nil {
		return nil, fmt.Errorf("series database is not available")
	}

	query := `
		SELECT observed_at, value, unit, batch_id, ingested_at
		FROM metric_points
		WHERE domain = $1 AND metric = $2
		  AND ($3::timestamptz IS NULL OR observed_at >= $3)
		  AND ($4::timestamptz IS NULL OR observed_at <= $4)
		ORDER BY observed_at ASC
	`

	rows, err := r.db.Query(ctx, query, domain, metric, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := &models.TimeSeries{Domain: domain, Metric: metric}
	for rows.Next() {
		var observedAt, ingestedAt time.Time
		var value float64
		var unit, batchID string
		if err := rows.Scan(&observedAt, &value, &unit, &batchID, &ingestedAt); err != nil {
			return nil, err
		}
		ts.Unit = unit
		ts.BatchID = batchID
		ts.IngestedAt = ingestedAt
		ts.Points = append(ts.Points, models.MetricPoint{
			Timestamp: observedAt,
			Value:     decimal.NewFromFloat(value),
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ts, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslens/crosslens-go/internal/models"
)

func TestSaveBatch(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepositoryWithQuerier(mockPool)

	ts := &models.TimeSeries{
		Domain:     "weather",
		Metric:     "temperature",
		Unit:       "celsius",
		BatchID:    "batch-1",
		IngestedAt: testStart,
		Points:     testPoints(testStart, time.Hour, 10.5, 11.5),
	}

	insertPattern := regexp.QuoteMeta("INSERT INTO metric_points")
	for _, p := range ts.Points {
		mockPool.ExpectExec(insertPattern).
			WithArgs("weather", "temperature", "celsius", p.Timestamp, p.Value.InexactFloat64(), "batch-1", testStart).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, repo.SaveBatch(context.Background(), ts))
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveBatchExecError(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepositoryWithQuerier(mockPool)

	ts := &models.TimeSeries{
		Domain:  "weather",
		Metric:  "temperature",
		BatchID: "batch-1",
		Points:  testPoints(testStart, time.Hour, 1),
	}

	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO metric_points")).
		WithArgs("weather", "temperature", "", ts.Points[0].Timestamp, 1.0, "batch-1", ts.IngestedAt).
		WillReturnError(assert.AnError)

	err = repo.SaveBatch(context.Background(), ts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save point")
}

func TestLoadSeries(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepositoryWithQuerier(mockPool)

	ingestedAt := testStart.Add(time.Minute)
	rows := pgxmock.NewRows([]string{"observed_at", "value", "unit", "batch_id", "ingested_at"}).
		AddRow(testStart, 10.5, "celsius", "batch-1", ingestedAt).
		AddRow(testStart.Add(time.Hour), 11.5, "celsius", "batch-1", ingestedAt)

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT observed_at, value, unit, batch_id, ingested_at")).
		WithArgs("weather", "temperature", nil, nil).
		WillReturnRows(rows)

	ts, err := repo.LoadSeries(context.Background(), "weather", "temperature", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 2, ts.Len())
	assert.Equal(t, "weather", ts.Domain)
	assert.Equal(t, "celsius", ts.Unit)
	assert.Equal(t, "batch-1", ts.BatchID)
	assert.True(t, ts.Points[0].Value.Equal(decimal.NewFromFloat(10.5)))
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestLoadSeriesWithWindow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepositoryWithQuerier(mockPool)

	from := testStart
	to := testStart.Add(6 * time.Hour)
	rows := pgxmock.NewRows([]string{"observed_at", "value", "unit", "batch_id", "ingested_at"}).
		AddRow(testStart.Add(time.Hour), 3.0, "", "batch-2", testStart)

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT observed_at, value, unit, batch_id, ingested_at")).
		WithArgs("economic", "index", from, to).
		WillReturnRows(rows)

	ts, err := repo.LoadSeries(context.Background(), "economic", "index", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Len())
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryUnavailable(t *testing.T) {
	repo := NewRepository(nil)
	assert.False(t, repo.Available())

	err := repo.SaveBatch(context.Background(), &models.TimeSeries{})
	require.Error(t, err)

	_, err = repo.LoadSeries(context.Background(), "weather", "temperature", time.Time{}, time.Time{})
	require.Error(t, err)
}

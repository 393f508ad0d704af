package clickhouse

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/observability"
	"sweep-signal-lab/internal/storage"
)

func testBar(symbol string, tsMs int64, close float64) *domain.Bar {
	return &domain.Bar{
		Symbol:      symbol,
		TimestampMs: tsMs,
		Open:        close - 1,
		High:        close + 2,
		Low:         close - 2,
		Close:       close,
		Volume:      100,
	}
}

func TestBarStore_InsertAndGetBySymbol(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBar("NQ", 60_000, 100)))
	require.NoError(t, store.Insert(ctx, testBar("NQ", 120_000, 101)))
	require.NoError(t, store.Insert(ctx, testBar("ES", 60_000, 50)))

	bars, err := store.GetBySymbol(ctx, "NQ")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, int64(60_000), bars[0].TimestampMs)
	require.Equal(t, int64(120_000), bars[1].TimestampMs)
	require.Equal(t, 101.0, bars[1].Close)
}

func TestBarStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBar("NQ", 60_000, 100)))

	err := store.Insert(ctx, testBar("NQ", 60_000, 105))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBarStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Bar{
		testBar("NQ", 60_000, 100),
		testBar("NQ", 60_000, 101),
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Failed batch must not leave partial rows behind.
	bars, err := store.GetBySymbol(ctx, "NQ")
	require.NoError(t, err)
	require.Empty(t, bars)
}

func TestBarStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Bar{
		testBar("NQ", 60_000, 100),
		testBar("NQ", 120_000, 101),
		testBar("NQ", 180_000, 102),
	}))

	bars, err := store.GetByTimeRange(ctx, "NQ", 120_000, 180_000)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, int64(120_000), bars[0].TimestampMs)
	require.Equal(t, int64(180_000), bars[1].TimestampMs)
}

func TestBarStore_RecordsQueryMetrics(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	met := observability.NewMetrics("clickhouse_store_test")
	store := NewBarStore(conn).WithMetrics(met)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBar("NQ", 60_000, 100)))
	require.ErrorIs(t, store.Insert(ctx, testBar("NQ", 60_000, 105)), storage.ErrDuplicateKey)

	bars, err := store.GetBySymbol(ctx, "NQ")
	require.NoError(t, err)
	require.Len(t, bars, 1)

	require.Equal(t, 1.0, testutil.ToFloat64(met.DBQueryErrors.WithLabelValues("clickhouse", "insert")))
	require.Equal(t, 2, testutil.CollectAndCount(met.DBQueryDuration))
}

func TestBarStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.Bar{TimestampMs: 60_000}), storage.ErrInvalidInput)
}

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beginMockTx(t *testing.T) (pgxmock.PgxPoolIface, pgx.Tx) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	return mock, tx
}

func expectLockTimeout(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("SET LOCAL lock_timeout").
		WillReturnResult(pgxmock.NewResult("SET", 0))
}

func productRow(name string, stock int, price string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"name", "stock_quantity", "price"}).
		AddRow(name, stock, decimal.RequireFromString(price))
}

func TestReserveStock_LocksInAscendingIDOrder(t *testing.T) {
	mock, tx := beginMockTx(t)
	repo := NewPostgresRepository(mock)

	// Lines arrive b-first; the row locks must still be taken a-first.
	expectLockTimeout(mock)
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-a").WillReturnRows(productRow("Alpha", 4, "2.50"))
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-b").WillReturnRows(productRow("Beta", 9, "10.00"))
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-b", 3).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-a", 1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	reserved, err := repo.ReserveStock(context.Background(), tx, []StockLine{
		{ProductID: "prod-b", Quantity: 3},
		{ProductID: "prod-a", Quantity: 1},
	}, time.Second)
	require.NoError(t, err)

	// Snapshots come back in the caller's line order.
	require.Len(t, reserved, 2)
	assert.Equal(t, "prod-b", reserved[0].ProductID)
	assert.Equal(t, "Beta", reserved[0].Name)
	assert.True(t, decimal.RequireFromString("10.00").Equal(reserved[0].UnitPrice))
	assert.Equal(t, "prod-a", reserved[1].ProductID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStock_ShortfallReportsEarliestLine(t *testing.T) {
	mock, tx := beginMockTx(t)
	repo := NewPostgresRepository(mock)

	expectLockTimeout(mock)
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-a").WillReturnRows(productRow("Alpha", 1, "2.50"))
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-b").WillReturnRows(productRow("Beta", 100, "10.00"))
	// No UPDATE: a shortfall anywhere means nothing is decremented.

	_, err := repo.ReserveStock(context.Background(), tx, []StockLine{
		{ProductID: "prod-b", Quantity: 2},
		{ProductID: "prod-a", Quantity: 5},
	}, time.Second)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "prod-a", insufficient.ProductID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 1, insufficient.Available)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStock_UnknownProductIsZeroStock(t *testing.T) {
	mock, tx := beginMockTx(t)
	repo := NewPostgresRepository(mock)

	expectLockTimeout(mock)
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

	_, err := repo.ReserveStock(context.Background(), tx,
		[]StockLine{{ProductID: "ghost", Quantity: 1}}, time.Second)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStock_LockTimeoutMapsToContention(t *testing.T) {
	mock, tx := beginMockTx(t)
	repo := NewPostgresRepository(mock)

	expectLockTimeout(mock)
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-a").
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

	_, err := repo.ReserveStock(context.Background(), tx,
		[]StockLine{{ProductID: "prod-a", Quantity: 1}}, 50*time.Millisecond)

	require.ErrorIs(t, err, ErrStockContended)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStock_DedupesRepeatedLines(t *testing.T) {
	mock, tx := beginMockTx(t)
	repo := NewPostgresRepository(mock)

	// The same product named twice is locked once, decremented per line.
	expectLockTimeout(mock)
	mock.ExpectQuery("SELECT name, stock_quantity, price").
		WithArgs("prod-a").WillReturnRows(productRow("Alpha", 10, "1.00"))
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-a", 2).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-a", 3).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	reserved, err := repo.ReserveStock(context.Background(), tx, []StockLine{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-a", Quantity: 3},
	}, time.Second)
	require.NoError(t, err)
	require.Len(t, reserved, 2)

	require.NoError(t, mock.ExpectationsWereMet())
}

package order

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockOrderRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func orderRows(id, userID string, status Status) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "user_id", "total_amount", "status",
		"shipping_address", "payment_method", "created_at", "updated_at",
	}).AddRow(id, userID, decimal.RequireFromString("25.00"), status,
		"1 Main St", "card", now, now)
}

func emptyItemRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"product_id", "product_name", "quantity", "unit_price"})
}

func TestCreateTx_InsertsOrderAndItemsWithPositions(t *testing.T) {
	mock, repo := newMockOrderRepo(t)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	now := time.Now()
	o := &Order{
		UserID:          "user-1",
		TotalAmount:     decimal.RequireFromString("25.00"),
		Status:          StatusPending,
		ShippingAddress: "1 Main St",
		PaymentMethod:   "card",
		CreatedAt:       now,
		UpdatedAt:       now,
		Items: []Item{
			{ProductID: "px", ProductName: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: "py", ProductName: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), "user-1", o.TotalAmount, StatusPending,
			"1 Main St", "card", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "px", "Widget", 2, o.Items[0].UnitPrice, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "py", "Gadget", 1, o.Items[1].UnitPrice, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateTx(context.Background(), tx, o))
	assert.NotEmpty(t, o.ID, "id assigned on insert")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_LoadsItemsInPositionOrder(t *testing.T) {
	mock, repo := newMockOrderRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id=").
		WithArgs("o1").WillReturnRows(orderRows("o1", "user-1", StatusPending))
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs("o1").WillReturnRows(
		emptyItemRows().
			AddRow("px", "Widget", 2, decimal.RequireFromString("10.00")).
			AddRow("py", "Gadget", 1, decimal.RequireFromString("5.00")))

	o, err := repo.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", o.UserID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "px", o.Items[0].ProductID)
	assert.Equal(t, "py", o.Items[1].ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, repo := newMockOrderRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id=").
		WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	mock, repo := newMockOrderRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE user_id=").
		WithArgs("user-1").WillReturnRows(orderRows("o1", "user-1", StatusPending))
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs("o1").WillReturnRows(
		emptyItemRows().AddRow("px", "Widget", 2, decimal.RequireFromString("10.00")))

	orders, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_MissingRowIsNotFound(t *testing.T) {
	mock, repo := newMockOrderRepo(t)

	mock.ExpectExec("UPDATE orders SET status=").
		WithArgs("o1", StatusShipped).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "o1", StatusShipped))

	mock.ExpectExec("UPDATE orders SET status=").
		WithArgs("missing", StatusShipped).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", StatusShipped), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

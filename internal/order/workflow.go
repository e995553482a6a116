package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/retail-backend/internal/apperr"
	"github.com/andreasstove999/retail-backend/internal/cart"
	"github.com/andreasstove999/retail-backend/internal/catalog"
)

// TxBeginner opens the transaction that makes stock decrement, order
// insert and cart clear one atomic unit. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// StockReserver is the catalog's check-and-decrement primitive.
type StockReserver interface {
	ReserveStock(ctx context.Context, tx pgx.Tx, lines []catalog.StockLine, lockTimeout time.Duration) ([]catalog.ReservedStock, error)
}

// CartStore is the slice of the cart the checkout needs.
type CartStore interface {
	GetByUser(ctx context.Context, userID string) (*cart.Cart, error)
	ClearTx(ctx context.Context, tx pgx.Tx, userID string) error
}

// Publisher emits order events after commit. A nil Publisher disables
// eventing; publish failures never fail the business operation.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderStatusChanged(ctx context.Context, orderID string, status Status) error
}

// Workflow converts carts into immutable orders and owns the order
// lifecycle operations.
type Workflow struct {
	db        TxBeginner
	orders    Repository
	carts     CartStore
	stock     StockReserver
	publisher Publisher
	locks     *cart.UserLocks
	logger    *zap.Logger

	lockTimeout time.Duration
	now         func() time.Time
}

func NewWorkflow(
	db TxBeginner,
	orders Repository,
	carts CartStore,
	stock StockReserver,
	publisher Publisher,
	locks *cart.UserLocks,
	logger *zap.Logger,
	lockTimeout time.Duration,
) *Workflow {
	return &Workflow{
		db:          db,
		orders:      orders,
		carts:       carts,
		stock:       stock,
		publisher:   publisher,
		locks:       locks,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder turns the user's cart into a pending order.
//
// Inside one transaction it locks the product rows (ascending id order,
// bounded wait), verifies stock against every cart line, snapshots name
// and unit price, decrements stock, inserts the order with its items and
// clears the cart. Any failure rolls the whole thing back: no stock
// lost, no order row, cart untouched.
func (w *Workflow) PlaceOrder(ctx context.Context, userID, shippingAddress, paymentMethod string) (*Order, error) {
	if strings.TrimSpace(shippingAddress) == "" {
		return nil, apperr.Validationf("shipping address is required")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, apperr.Validationf("payment method is required")
	}

	// Serialize against the same user's cart mutations and any second
	// checkout from another tab.
	unlock := w.locks.Lock(userID)
	defer unlock()

	c, err := w.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("order: load cart: %w", err)
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]catalog.StockLine, len(c.Items))
	for i, it := range c.Items {
		lines[i] = catalog.StockLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("order: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	reserved, err := w.stock.ReserveStock(ctx, tx, lines, w.lockTimeout)
	if err != nil {
		var insufficient *catalog.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			w.logger.Warn("checkout rejected, insufficient stock",
				zap.String("user_id", userID),
				zap.String("product_id", insufficient.ProductID),
				zap.Int("requested", insufficient.Requested),
				zap.Int("available", insufficient.Available))
			return nil, insufficient
		case errors.Is(err, catalog.ErrStockContended):
			return nil, fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
		default:
			return nil, fmt.Errorf("order: reserve stock: %w", err)
		}
	}

	o := buildOrder(userID, shippingAddress, paymentMethod, reserved, w.now())

	if err := w.orders.CreateTx(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("order: persist: %w", err)
	}
	if err := w.carts.ClearTx(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("order: clear cart: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("order: commit: %w", err)
	}

	w.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(o.Items)),
		zap.String("total_amount", o.TotalAmount.String()))

	if w.publisher != nil {
		if err := w.publisher.PublishOrderCreated(ctx, o); err != nil {
			w.logger.Error("publish order created failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return o, nil
}

// buildOrder materializes the immutable order value. Item order follows
// the cart's iteration order and the total is exact decimal arithmetic.
func buildOrder(userID, shippingAddress, paymentMethod string, reserved []catalog.ReservedStock, now time.Time) *Order {
	items := make([]Item, len(reserved))
	total := decimal.Zero
	for i, r := range reserved {
		items[i] = Item{
			ProductID:   r.ProductID,
			ProductName: r.Name,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		}
		total = total.Add(r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}
	return &Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// GetOrder loads one order for its owner. Callers asking for someone
// else's order get ErrUnauthorized, not the order's existence.
func (w *Workflow) GetOrder(ctx context.Context, callerID, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, apperr.Validationf("order id is required")
	}
	o, err := w.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != callerID {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// ListOrders returns the caller's orders, newest first.
func (w *Workflow) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return w.orders.ListByUser(ctx, userID)
}

// ListAllOrders is the admin view across users.
func (w *Workflow) ListAllOrders(ctx context.Context) ([]Order, error) {
	return w.orders.ListAll(ctx)
}

func (w *Workflow) ListOrdersByStatus(ctx context.Context, status Status) ([]Order, error) {
	return w.orders.ListByStatus(ctx, status)
}

// UpdateStatus sets any recognized status on the order. No transition
// legality check on purpose; admin capability is enforced at the HTTP
// boundary.
func (w *Workflow) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if orderID == "" {
		return apperr.Validationf("order id is required")
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if err := w.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}

	w.logger.Info("order status updated",
		zap.String("order_id", orderID), zap.String("status", string(status)))

	if w.publisher != nil {
		if err := w.publisher.PublishOrderStatusChanged(ctx, orderID, status); err != nil {
			w.logger.Error("publish status change failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

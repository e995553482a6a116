package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrStockContended signals that a product row lock could not be taken
// before the configured deadline.
var ErrStockContended = errors.New("catalog: stock lock contention")

// InsufficientStockError reports the first cart line whose requested
// quantity exceeds what is available.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type StockLine struct {
	ProductID string
	Quantity  int
}

// ReservedStock is the snapshot taken under the row lock: the price the
// order item will carry, decoupled from any later catalog edit.
type ReservedStock struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// lockTimeoutSQLState is Postgres 55P03 (lock_not_available).
const lockTimeoutSQLState = "55P03"

// ReserveStock locks every requested product row FOR UPDATE inside the
// caller's transaction, verifies availability, and decrements stock.
// Rows are locked in ascending product id order so two checkouts that
// share products can never deadlock. On any shortfall the caller must
// roll back: nothing is decremented and an InsufficientStockError for
// the earliest offending line (in the order given) is returned.
func (r *PostgresRepository) ReserveStock(ctx context.Context, tx pgx.Tx, lines []StockLine, lockTimeout time.Duration) ([]ReservedStock, error) {
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("set lock_timeout: %w", err)
	}

	type lockedRow struct {
		name      string
		available int
		price     decimal.Decimal
		found     bool
	}
	locked := make(map[string]lockedRow, len(lines))

	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, ln := range lines {
		if !seen[ln.ProductID] {
			seen[ln.ProductID] = true
			ids = append(ids, ln.ProductID)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		var row lockedRow
		err := tx.QueryRow(ctx, `
			SELECT name, stock_quantity, price
			FROM products
			WHERE id=$1 AND active
			FOR UPDATE
		`, id).Scan(&row.name, &row.available, &row.price)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Unknown or deactivated products count as zero stock; the
			// shortfall check below turns this into the typed error.
		case err != nil:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == lockTimeoutSQLState {
				return nil, fmt.Errorf("%w: product %s", ErrStockContended, id)
			}
			return nil, fmt.Errorf("lock product %s: %w", id, err)
		default:
			row.found = true
		}
		locked[id] = row
	}

	// Shortfalls are reported in the caller's line order, not lock order.
	for _, ln := range lines {
		row := locked[ln.ProductID]
		if row.available < ln.Quantity {
			return nil, &InsufficientStockError{
				ProductID: ln.ProductID,
				Requested: ln.Quantity,
				Available: row.available,
			}
		}
	}

	reserved := make([]ReservedStock, 0, len(lines))
	for _, ln := range lines {
		row := locked[ln.ProductID]
		if _, err := tx.Exec(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $2, updated_at=now()
			WHERE id=$1
		`, ln.ProductID, ln.Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock %s: %w", ln.ProductID, err)
		}
		reserved = append(reserved, ReservedStock{
			ProductID: ln.ProductID,
			Name:      row.name,
			Quantity:  ln.Quantity,
			UnitPrice: row.price,
		})
	}
	return reserved, nil
}

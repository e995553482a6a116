package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// GetByUser returns nil when the user has no cart yet.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	// AddItem merges quantity into an existing line for the same product.
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	// RemoveItem is a no-op when the item does not exist.
	RemoveItem(ctx context.Context, cartID, itemID string) error
	// Clear removes all items; clearing an absent or empty cart succeeds.
	Clear(ctx context.Context, userID string) error
	// ClearTx is Clear running inside a caller-owned transaction, used by
	// the checkout workflow so order persistence and cart clearing commit
	// as one unit.
	ClearTx(ctx context.Context, tx pgx.Tx, userID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, updated_at FROM carts WHERE user_id=$1`, userID,
	).Scan(&c.ID, &c.UserID, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, added_at
		 FROM cart_items WHERE cart_id=$1 ORDER BY added_at, id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := r.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	id := uuid.NewString()
	// Concurrent first access races on the user_id unique constraint;
	// the loser reads the winner's row.
	_, err = r.pool.Exec(ctx, `
		INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return r.GetByUser(ctx, userID)
}

func (r *PostgresRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.NewString(), cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart_item: %w", err)
	}

	_, err = r.pool.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id=$1 AND id=$2`, cartID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart_item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)
	`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearTx(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)
	`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

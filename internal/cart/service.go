package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/retail-backend/internal/apperr"
	"github.com/andreasstove999/retail-backend/internal/catalog"
)

var ErrProductNotFound = errors.New("cart: product not found")

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, productID string) (*catalog.Product, error)
}

// View is the cart plus an advisory total at current catalog prices.
// The total is informational: the authoritative price snapshot happens
// at checkout.
type View struct {
	Cart        Cart            `json:"cart"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}

type Service struct {
	repo    Repository
	catalog ProductReader
	locks   *UserLocks
	logger  *zap.Logger
}

func NewService(repo Repository, catalog ProductReader, locks *UserLocks, logger *zap.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, locks: locks, logger: logger}
}

// AddItem merges the quantity into the user's cart. The stock check
// here is advisory only: it catches obvious oversells at add time, but
// the checkout transaction is the single source of truth and may still
// reject the cart later.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than zero")
	}
	if productID == "" {
		return nil, apperr.Validationf("product id is required")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("cart: load product: %w", err)
	}
	if p.StockQuantity < quantity {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.StockQuantity,
		}
	}

	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: load cart: %w", err)
	}
	if err := s.repo.AddItem(ctx, c.ID, productID, quantity); err != nil {
		return nil, fmt.Errorf("cart: add item: %w", err)
	}

	s.logger.Info("cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))

	return s.view(ctx, userID)
}

// RemoveItem deletes one line from the cart. Removing an item that is
// not there is a success, not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*View, error) {
	if itemID == "" {
		return nil, apperr.Validationf("item id is required")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: load cart: %w", err)
	}
	if c == nil {
		return &View{Cart: Cart{UserID: userID}, TotalAmount: decimal.Zero}, nil
	}
	if err := s.repo.RemoveItem(ctx, c.ID, itemID); err != nil {
		return nil, fmt.Errorf("cart: remove item: %w", err)
	}
	return s.view(ctx, userID)
}

// Clear empties the cart; clearing an empty or absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.view(ctx, userID)
}

func (s *Service) view(ctx context.Context, userID string) (*View, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: load cart: %w", err)
	}
	if c == nil {
		return &View{Cart: Cart{UserID: userID}, TotalAmount: decimal.Zero}, nil
	}

	total := decimal.Zero
	for _, it := range c.Items {
		p, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				// Deactivated since it was added; it still shows in the
				// cart but contributes nothing to the advisory total.
				continue
			}
			return nil, fmt.Errorf("cart: load product: %w", err)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return &View{Cart: *c, TotalAmount: total, ItemCount: len(c.Items)}, nil
}

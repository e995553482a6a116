package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/retail-backend/internal/apperr"
)

// Service layers input validation over the repository. Stock mutation
// during checkout is not here: the order workflow decrements stock
// inside its own transaction.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validationf("product name is required")
	}
	if in.Price.IsNegative() {
		return apperr.Validationf("price must not be negative")
	}
	if in.StockQuantity < 0 {
		return apperr.Validationf("stock quantity must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Active:        true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *Service) Update(ctx context.Context, productID string, in ProductInput) (*Product, error) {
	if productID == "" {
		return nil, apperr.Validationf("product id is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &Product{
		ID:            productID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, productID)
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	if productID == "" {
		return apperr.Validationf("product id is required")
	}
	return s.repo.Deactivate(ctx, productID)
}

func (s *Service) GetByID(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, apperr.Validationf("product id is required")
	}
	return s.repo.GetByID(ctx, productID)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	if category == "" {
		return nil, apperr.Validationf("category is required")
	}
	return s.repo.ListByCategory(ctx, category)
}

func (s *Service) Search(ctx context.Context, keyword string) ([]Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperr.Validationf("search keyword is required")
	}
	return s.repo.Search(ctx, keyword)
}

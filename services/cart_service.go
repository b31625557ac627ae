package services

import (
	"context"
	"errors"
	"strings"

	"storefront-service/cart"
	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/pricing"
	"storefront-service/repository"

	"go.uber.org/zap"
)

// AddCartItemRequest adds quantity of a product to the caller's cart. Quantity defaults to 1.
type AddCartItemRequest struct {
	ProductID int     `json:"product_id" binding:"required,gt=0"`
	Quantity  int     `json:"quantity"`
	Color     *string `json:"color"`
	Size      *string `json:"size"`
}

// ReconcileCartRequest carries a cart the client kept locally.
type ReconcileCartRequest struct {
	Cart cart.Cart `json:"cart"`
}

// CartSummary prices a cart for display. It is advisory; CreateOrder recomputes.
type CartSummary struct {
	Cart            cart.Cart           `json:"cart"`
	ItemCount       int                 `json:"item_count"`
	Subtotal        float64             `json:"subtotal"`
	DiscountPercent float64             `json:"discount_percent"`
	Total           float64             `json:"total"`
	Currency        models.CurrencyCode `json:"currency"`
}

// CartService manages server-held carts for authenticated users.
type CartService interface {
	GetCart(ctx context.Context, userID string) (cart.Cart, *apperrors.Error)
	AddItem(ctx context.Context, userID string, req *AddCartItemRequest) (cart.Cart, *apperrors.Error)
	RemoveItem(ctx context.Context, userID string, productID int, removeAll bool) (cart.Cart, *apperrors.Error)
	ClearCart(ctx context.Context, userID string) *apperrors.Error
	Reconcile(ctx context.Context, userID string, client cart.Cart) (cart.Cart, *apperrors.Error)
	Summary(ctx context.Context, userID, country, currency, promoCode string) (*CartSummary, *apperrors.Error)
}

type cartServiceImpl struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	promos   PromoValidator
	logger   *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(repo repository.CartRepository, products repository.ProductRepository, promos PromoValidator, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		repo:     repo,
		products: products,
		promos:   promos,
		logger:   logger,
	}
}

func (s *cartServiceImpl) load(ctx context.Context, userID string) (cart.Cart, *apperrors.Error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if c == nil {
		c = cart.New()
	}
	return c, nil
}

func (s *cartServiceImpl) save(ctx context.Context, userID string, c cart.Cart) *apperrors.Error {
	if err := s.repo.SaveCart(ctx, userID, c); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("Failed to save cart", err)
	}
	return nil
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (cart.Cart, *apperrors.Error) {
	return s.load(ctx, userID)
}

// AddItem checks the product can be bought in the requested variant before adding it.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req *AddCartItemRequest) (cart.Cart, *apperrors.Error) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	p, err := s.products.FindByID(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgProductNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch product for cart", zap.Int("product_id", req.ProductID), zap.Error(err))
		return nil, apperrors.Internal("Failed to add item", err)
	}
	if !p.Visible {
		return nil, apperrors.NotFound(msgProductNotFound)
	}
	if !p.Purchasable() {
		return nil, apperrors.Validation("product %d is not available", p.ID)
	}
	if req.Color != nil && !p.HasColor(*req.Color) {
		return nil, apperrors.Validation("color %q is not available", *req.Color)
	}
	if req.Size != nil && !p.HasSize(*req.Size) {
		return nil, apperrors.Validation("size %q is not available", *req.Size)
	}

	c, appErr := s.load(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	if err := c.AddItem(p.ID, req.Color, req.Size, qty); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	if appErr := s.save(ctx, userID, c); appErr != nil {
		return nil, appErr
	}
	return c, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, productID int, removeAll bool) (cart.Cart, *apperrors.Error) {
	c, appErr := s.load(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	if _, ok := c[productID]; !ok {
		return c, nil
	}
	c.RemoveItem(productID, removeAll)
	if appErr := s.save(ctx, userID, c); appErr != nil {
		return nil, appErr
	}
	return c, nil
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) *apperrors.Error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

// Reconcile folds a client-held cart into the stored one.
func (s *cartServiceImpl) Reconcile(ctx context.Context, userID string, client cart.Cart) (cart.Cart, *apperrors.Error) {
	c, appErr := s.load(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	c.Merge(client)
	if appErr := s.save(ctx, userID, c); appErr != nil {
		return nil, appErr
	}
	return c, nil
}

func (s *cartServiceImpl) Summary(ctx context.Context, userID, country, currency, promoCode string) (*CartSummary, *apperrors.Error) {
	c, appErr := s.load(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	var discount float64
	if code := strings.TrimSpace(promoCode); code != "" {
		v, appErr := s.promos.ValidatePromo(ctx, code)
		if appErr != nil {
			return nil, appErr
		}
		discount = v.DiscountPercent
	}

	catalog := map[int]*models.Product{}
	if len(c) > 0 {
		var err error
		catalog, err = s.products.FindByIDs(ctx, c.ProductIDs())
		if err != nil {
			s.logger.Error("Failed to load products for cart summary", zap.String("user_id", userID), zap.Error(err))
			return nil, apperrors.Internal("Failed to price cart", err)
		}
	}

	priced := make([]*models.Product, 0, len(catalog))
	for _, p := range catalog {
		priced = append(priced, p)
	}
	cur := pricing.SettlementCurrency(priced, pricing.Resolve(country, currency))
	subtotal := c.Subtotal(catalog, cur)

	return &CartSummary{
		Cart:            c,
		ItemCount:       c.TotalItemCount(),
		Subtotal:        subtotal,
		DiscountPercent: discount,
		Total:           cart.ApplyDiscount(subtotal, discount),
		Currency:        cur,
	}, nil
}

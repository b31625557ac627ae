package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/pricing"
	"storefront-service/repository"

	"go.uber.org/zap"
)

const msgProductNotFound = "product not found"

// ImageStore removes product images from object storage.
type ImageStore interface {
	DeleteImages(ctx context.Context, imageURLs []string) error
}

// ProductListResponse is a page of shopper-facing products.
type ProductListResponse struct {
	Products []models.ProductView `json:"products"`
	Meta     MetaData             `json:"meta"`
}

// ProductService manages the catalog.
type ProductService interface {
	GetProduct(ctx context.Context, id int, country, currency string) (*models.ProductView, *apperrors.Error)
	ListProducts(ctx context.Context, country, currency string, page, limit int) (*ProductListResponse, *apperrors.Error)
	CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, *apperrors.Error)
	UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, *apperrors.Error)
	DeleteProduct(ctx context.Context, id int) *apperrors.Error
}

type productServiceImpl struct {
	repo   repository.ProductRepository
	images ImageStore
	now    func() time.Time
	logger *zap.Logger
}

// NewProductService creates a new ProductService. images may be nil, in which case
// removed products keep their objects in storage.
func NewProductService(repo repository.ProductRepository, images ImageStore, logger *zap.Logger) ProductService {
	return &productServiceImpl{
		repo:   repo,
		images: images,
		now:    time.Now,
		logger: logger,
	}
}

func validateProductRequest(req *models.ProductRequest) *apperrors.Error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.Validation("name is required")
	}
	if _, ok := req.Prices[models.CurrencyUSD]; !ok {
		return apperrors.Validation("a USD price is required")
	}
	supported := make(map[models.CurrencyCode]bool, len(models.SupportedCurrencies))
	for _, c := range models.SupportedCurrencies {
		supported[c] = true
	}
	for c, pair := range req.Prices {
		if !supported[c] {
			return apperrors.Validation("unsupported currency %s", c)
		}
		for _, v := range []float64{pair.OldPrice, pair.NewPrice} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return apperrors.Validation("invalid %s price", c)
			}
		}
	}
	for _, v := range append(append([]models.Variant(nil), req.Colors...), req.Sizes...) {
		if strings.TrimSpace(v.Value) == "" {
			return apperrors.Validation("variant value cannot be empty")
		}
	}
	return nil
}

func applyProductRequest(p *models.Product, req *models.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Category = req.Category
	p.Description = req.Description
	p.Brand = req.Brand
	p.Images = req.Images
	p.Colors = req.Colors
	p.Sizes = req.Sizes
	p.Prices = req.Prices
	if req.Visible != nil {
		p.Visible = *req.Visible
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
}

// GetProduct returns a visible product priced for the caller. Hidden products are not found.
func (s *productServiceImpl) GetProduct(ctx context.Context, id int, country, currency string) (*models.ProductView, *apperrors.Error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgProductNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.Int("product_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch product", err)
	}
	if !p.Visible {
		return nil, apperrors.NotFound(msgProductNotFound)
	}
	view := pricing.View(p, pricing.Resolve(country, currency))
	return &view, nil
}

func (s *productServiceImpl) ListProducts(ctx context.Context, country, currency string, page, limit int) (*ProductListResponse, *apperrors.Error) {
	products, total, err := s.repo.List(ctx, true, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch products", err)
	}

	cur := pricing.Resolve(country, currency)
	views := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, pricing.View(p, cur))
	}
	return &ProductListResponse{Products: views, Meta: newMeta(page, limit, total)}, nil
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
	if appErr := validateProductRequest(req); appErr != nil {
		return nil, appErr
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		s.logger.Error("Failed to allocate product id", zap.Error(err))
		return nil, apperrors.Internal("Failed to create product", err)
	}

	now := s.now().UTC()
	p := &models.Product{ID: id, Visible: true, Available: true, CreatedAt: now, UpdatedAt: now}
	applyProductRequest(p, req)

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			return nil, apperrors.Conflict("product %d already exists", id)
		}
		s.logger.Error("Failed to create product", zap.Int("product_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to create product", err)
	}

	s.logger.Info("Product created", zap.Int("product_id", id), zap.String("name", p.Name))
	return p, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
	if appErr := validateProductRequest(req); appErr != nil {
		return nil, appErr
	}

	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgProductNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.Int("product_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}

	applyProductRequest(p, req)
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgProductNotFound)
		}
		s.logger.Error("Failed to update product", zap.Int("product_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}

	s.logger.Info("Product updated", zap.Int("product_id", id))
	return p, nil
}

// DeleteProduct removes the product's images, then the product. The id is never reissued.
func (s *productServiceImpl) DeleteProduct(ctx context.Context, id int) *apperrors.Error {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msgProductNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.Int("product_id", id), zap.Error(err))
		return apperrors.Internal("Failed to delete product", err)
	}

	if s.images != nil && len(p.Images) > 0 {
		if err := s.images.DeleteImages(ctx, p.Images); err != nil {
			s.logger.Error("Failed to delete product images", zap.Int("product_id", id), zap.Error(err))
			return apperrors.Internal("Failed to delete product images", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(msgProductNotFound)
		}
		s.logger.Error("Failed to delete product", zap.Int("product_id", id), zap.Error(err))
		return apperrors.Internal("Failed to delete product", err)
	}

	s.logger.Info("Product deleted", zap.Int("product_id", id), zap.Int("images", len(p.Images)))
	return nil
}

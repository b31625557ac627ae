package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.uber.org/zap"
)

const (
	msgPromoNotFound = "promo code not found"
	msgPromoExpired  = "promo code expired or inactive"
)

// PromoValidator resolves a promo code to its discount.
type PromoValidator interface {
	ValidatePromo(ctx context.Context, code string) (*models.PromoValidation, *apperrors.Error)
}

// PromoService defines promo code business logic.
type PromoService interface {
	PromoValidator
	CreatePromo(ctx context.Context, req *models.CreatePromoRequest) (*models.PromoCode, *apperrors.Error)
	ListPromos(ctx context.Context, page, limit int) ([]models.PromoCode, MetaData, *apperrors.Error)
	DeletePromo(ctx context.Context, code string) *apperrors.Error
}

type promoServiceImpl struct {
	repo   repository.PromoRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo repository.PromoRepository, logger *zap.Logger) PromoService {
	return &promoServiceImpl{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// ValidatePromo looks a code up without mutating it. Every failure is a conflict:
// the request was well formed but the code cannot be applied.
func (s *promoServiceImpl) ValidatePromo(ctx context.Context, code string) (*models.PromoValidation, *apperrors.Error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("promo code is required")
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Conflict(msgPromoNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to look up promo code", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Internal("Failed to validate promo code", err)
	}

	if !promo.Redeemable(s.now()) {
		return nil, apperrors.Conflict(msgPromoExpired)
	}

	return &models.PromoValidation{
		Valid:           true,
		Code:            promo.Code,
		DiscountPercent: promo.DiscountPercent,
	}, nil
}

func (s *promoServiceImpl) CreatePromo(ctx context.Context, req *models.CreatePromoRequest) (*models.PromoCode, *apperrors.Error) {
	if req.DiscountPercent <= 0 || req.DiscountPercent > 100 {
		return nil, apperrors.Validation("discount_percent must be in (0, 100]")
	}
	if !req.ExpiresAt.After(s.now()) {
		return nil, apperrors.Validation("expires_at must be in the future")
	}
	if req.StartsAt != nil && !req.StartsAt.Before(req.ExpiresAt) {
		return nil, apperrors.Validation("starts_at must be before expires_at")
	}

	promo := &models.PromoCode{
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountPercent: req.DiscountPercent,
		StartsAt:        req.StartsAt,
		ExpiresAt:       req.ExpiresAt,
		Active:          true,
	}

	if err := s.repo.Create(ctx, promo); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, apperrors.Conflict("promo code %s already exists", promo.Code)
		}
		s.logger.Error("Failed to create promo code", zap.String("code", promo.Code), zap.Error(err))
		return nil, apperrors.Internal("Failed to create promo code", err)
	}

	s.logger.Info("Promo code created", zap.String("code", promo.Code), zap.Float64("discount_percent", promo.DiscountPercent))
	return promo, nil
}

func (s *promoServiceImpl) ListPromos(ctx context.Context, page, limit int) ([]models.PromoCode, MetaData, *apperrors.Error) {
	promos, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list promo codes", zap.Error(err))
		return nil, MetaData{}, apperrors.Internal("Failed to list promo codes", err)
	}
	return promos, newMeta(page, limit, total), nil
}

func (s *promoServiceImpl) DeletePromo(ctx context.Context, code string) *apperrors.Error {
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("promo code not found")
		}
		s.logger.Error("Failed to delete promo code", zap.String("code", code), zap.Error(err))
		return apperrors.Internal("Failed to delete promo code", err)
	}
	s.logger.Info("Promo code deleted", zap.String("code", code))
	return nil
}

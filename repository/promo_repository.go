package repository

import (
	"context"
	"errors"
	"strings"

	"storefront-service/models"

	"gorm.io/gorm"
)

// PromoRepository defines the interface for promo code data access.
type PromoRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	FindAll(ctx context.Context, page, limit int) ([]models.PromoCode, int64, error)
	Delete(ctx context.Context, code string) error
}

// GormPromoRepository implements PromoRepository using GORM.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) PromoRepository {
	return &GormPromoRepository{db: db}
}

// Create inserts a new promo code. Codes are stored upper-case.
func (r *GormPromoRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	promo.Code = strings.ToUpper(promo.Code)
	err := r.db.WithContext(ctx).Create(promo).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCode
	}
	return err
}

// FindByCode retrieves a promo code regardless of its active flag (case-insensitive).
func (r *GormPromoRepository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindAll retrieves paginated promo codes, newest first.
func (r *GormPromoRepository) FindAll(ctx context.Context, page, limit int) ([]models.PromoCode, int64, error) {
	var promos []models.PromoCode
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PromoCode{}).Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&promos).Error; err != nil {
		return nil, 0, err
	}

	return promos, total, nil
}

// Delete removes a promo code by code.
func (r *GormPromoRepository) Delete(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Delete(&models.PromoCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

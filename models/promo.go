package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoCode is a percentage discount redeemable at checkout.
type PromoCode struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountPercent float64    `gorm:"not null" json:"discount_percent"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	Active          bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Redeemable reports whether the code can be applied at now.
func (p *PromoCode) Redeemable(now time.Time) bool {
	if !p.Active || !now.Before(p.ExpiresAt) {
		return false
	}
	return p.StartsAt == nil || !now.Before(*p.StartsAt)
}

// CreatePromoRequest is the payload for creating a promo code.
type CreatePromoRequest struct {
	Code            string     `json:"code" binding:"required,min=3,max=64"`
	DiscountPercent float64    `json:"discount_percent" binding:"required,gt=0,lte=100"`
	StartsAt        *time.Time `json:"starts_at"`
	ExpiresAt       time.Time  `json:"expires_at" binding:"required"`
}

// ValidatePromoRequest is the payload for checking a code at checkout.
type ValidatePromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// PromoValidation is the result of a successful validation.
type PromoValidation struct {
	Valid           bool    `json:"valid"`
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discount_percent"`
}

package models

import "time"

// CurrencyCode is an ISO 4217 code from the supported set.
type CurrencyCode string

const (
	CurrencyUSD CurrencyCode = "USD"
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyPKR CurrencyCode = "PKR"
	CurrencyGBP CurrencyCode = "GBP"
	CurrencyAED CurrencyCode = "AED"
)

// SupportedCurrencies lists every currency a price table may carry.
var SupportedCurrencies = []CurrencyCode{CurrencyUSD, CurrencyEUR, CurrencyPKR, CurrencyGBP, CurrencyAED}

// PricePair is the before/after price shown for one currency.
type PricePair struct {
	OldPrice float64 `json:"old_price" dynamodbav:"old_price"`
	NewPrice float64 `json:"new_price" dynamodbav:"new_price"`
}

// Variant is a color or size option and whether it can currently be bought.
type Variant struct {
	Value     string `json:"value" dynamodbav:"value"`
	Available bool   `json:"available" dynamodbav:"available"`
}

// Product is a catalog record. ID is allocated from a monotonic counter and never reused.
type Product struct {
	ID          int                        `json:"id"`
	Name        string                     `json:"name"`
	Category    string                     `json:"category"`
	Description string                     `json:"description,omitempty"`
	Brand       string                     `json:"brand,omitempty"`
	Images      []string                   `json:"images"`
	Colors      []Variant                  `json:"colors"`
	Sizes       []Variant                  `json:"sizes"`
	Visible     bool                       `json:"visible"`
	Available   bool                       `json:"available"`
	Prices      map[CurrencyCode]PricePair `json:"prices"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// Purchasable reports whether the product may be added to a cart or ordered.
func (p *Product) Purchasable() bool {
	return p.Available
}

// HasColor reports whether value is an available color of p.
func (p *Product) HasColor(value string) bool {
	return hasVariant(p.Colors, value)
}

// HasSize reports whether value is an available size of p.
func (p *Product) HasSize(value string) bool {
	return hasVariant(p.Sizes, value)
}

func hasVariant(vs []Variant, value string) bool {
	for _, v := range vs {
		if v.Value == value {
			return v.Available
		}
	}
	return false
}

// FirstImage returns the product's primary image URL, or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductView is a product as shown to a shopper: one resolved price instead of the table.
type ProductView struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description,omitempty"`
	Brand       string       `json:"brand,omitempty"`
	Images      []string     `json:"images"`
	Colors      []Variant    `json:"colors"`
	Sizes       []Variant    `json:"sizes"`
	Available   bool         `json:"available"`
	Currency    CurrencyCode `json:"currency"`
	OldPrice    float64      `json:"old_price"`
	NewPrice    float64      `json:"new_price"`
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name        string                     `json:"name" binding:"required,max=200"`
	Category    string                     `json:"category" binding:"required"`
	Description string                     `json:"description"`
	Brand       string                     `json:"brand"`
	Images      []string                   `json:"images" binding:"dive,url"`
	Colors      []Variant                  `json:"colors"`
	Sizes       []Variant                  `json:"sizes"`
	Visible     *bool                      `json:"visible"`
	Available   *bool                      `json:"available"`
	Prices      map[CurrencyCode]PricePair `json:"prices" binding:"required"`
}

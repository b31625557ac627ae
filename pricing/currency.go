// Package pricing resolves the price a shopper sees from a product's per-currency table.
package pricing

import (
	"strings"

	"storefront-service/models"
)

// DefaultCurrency is used when a locale or code cannot be resolved.
const DefaultCurrency = models.CurrencyUSD

var countryToCurrency = map[string]models.CurrencyCode{
	"US": models.CurrencyUSD,
	"DE": models.CurrencyEUR,
	"PK": models.CurrencyPKR,
	"GB": models.CurrencyGBP,
	"AE": models.CurrencyAED,
}

// CurrencyForCountry maps an ISO 3166 alpha-2 country code to its currency.
func CurrencyForCountry(country string) models.CurrencyCode {
	if c, ok := countryToCurrency[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return c
	}
	return DefaultCurrency
}

// ParseCurrency normalises a currency code, falling back to DefaultCurrency for
// anything outside the supported set.
func ParseCurrency(code string) models.CurrencyCode {
	c := models.CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))
	for _, s := range models.SupportedCurrencies {
		if s == c {
			return c
		}
	}
	return DefaultCurrency
}

// Resolve picks the currency for a request: an explicit currency wins over the country.
func Resolve(country, currency string) models.CurrencyCode {
	if currency != "" {
		return ParseCurrency(currency)
	}
	return CurrencyForCountry(country)
}

// ResolvePrice returns the price pair for currency, else the DefaultCurrency pair,
// else a zero pair.
func ResolvePrice(prices map[models.CurrencyCode]models.PricePair, currency models.CurrencyCode) models.PricePair {
	if p, ok := prices[currency]; ok {
		return p
	}
	return prices[DefaultCurrency]
}

// EffectiveCurrency is the currency ResolvePrice actually reads for prices.
func EffectiveCurrency(prices map[models.CurrencyCode]models.PricePair, currency models.CurrencyCode) models.CurrencyCode {
	if _, ok := prices[currency]; ok {
		return currency
	}
	return DefaultCurrency
}

// SettlementCurrency returns currency when every product is priced in it, else
// DefaultCurrency, so that a multi-line total never mixes currencies.
func SettlementCurrency(products []*models.Product, currency models.CurrencyCode) models.CurrencyCode {
	for _, p := range products {
		if _, ok := p.Prices[currency]; !ok {
			return DefaultCurrency
		}
	}
	return currency
}

// View renders p for a shopper paying in currency.
func View(p *models.Product, currency models.CurrencyCode) models.ProductView {
	currency = EffectiveCurrency(p.Prices, currency)
	price := ResolvePrice(p.Prices, currency)
	return models.ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Brand:       p.Brand,
		Images:      p.Images,
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		Available:   p.Available,
		Currency:    currency,
		OldPrice:    price.OldPrice,
		NewPrice:    price.NewPrice,
	}
}

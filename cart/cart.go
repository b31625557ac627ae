// Package cart implements the shopper's cart: product id to quantity and variant.
package cart

import (
	"errors"
	"math"
	"sort"

	"storefront-service/models"
	"storefront-service/pricing"
)

// ErrInvalidQuantity is returned when an add carries a quantity below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Entry is one cart line. Quantity is always at least 1 while the entry exists.
type Entry struct {
	Quantity int     `json:"quantity"`
	Color    *string `json:"color"`
	Size     *string `json:"size"`
}

// Cart maps product id to entry. A product absent from the map is not in the cart.
// The zero value is an empty, read-only cart; use New for one that accepts items.
type Cart map[int]Entry

// New returns an empty cart.
func New() Cart {
	return make(Cart)
}

// AddItem increments the quantity of an existing entry or inserts a new one with the
// given variant. The variant of an existing entry is kept.
func (c Cart) AddItem(productID int, color, size *string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if e, ok := c[productID]; ok {
		e.Quantity += qty
		c[productID] = e
		return nil
	}
	c[productID] = Entry{Quantity: qty, Color: color, Size: size}
	return nil
}

// RemoveItem deletes the entry when removeAll is set or one unit is left; otherwise it
// decrements by one. Removing an absent product does nothing.
func (c Cart) RemoveItem(productID int, removeAll bool) {
	e, ok := c[productID]
	if !ok {
		return
	}
	if removeAll || e.Quantity <= 1 {
		delete(c, productID)
		return
	}
	e.Quantity--
	c[productID] = e
}

// TotalItemCount is the sum of all quantities.
func (c Cart) TotalItemCount() int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

// Subtotal sums live unit prices times quantity, before any discount. Products missing
// from catalog contribute nothing and are left in the cart.
func (c Cart) Subtotal(catalog map[int]*models.Product, currency models.CurrencyCode) float64 {
	total := 0.0
	for id, e := range c {
		p, ok := catalog[id]
		if !ok || p == nil {
			continue
		}
		total += pricing.ResolvePrice(p.Prices, currency).NewPrice * float64(e.Quantity)
	}
	return total
}

// TotalAmount is the subtotal reduced by discountPercent, rounded to a whole amount.
func (c Cart) TotalAmount(catalog map[int]*models.Product, currency models.CurrencyCode, discountPercent float64) float64 {
	return ApplyDiscount(c.Subtotal(catalog, currency), discountPercent)
}

// ApplyDiscount returns round(total × (1 − discountPercent/100)).
func ApplyDiscount(total, discountPercent float64) float64 {
	return math.Round(total * (1 - discountPercent/100))
}

// Merge adds every entry of other into c with AddItem semantics.
func (c Cart) Merge(other Cart) {
	for id, e := range other {
		if e.Quantity <= 0 {
			continue
		}
		_ = c.AddItem(id, e.Color, e.Size, e.Quantity)
	}
}

// ProductIDs returns the cart's product ids in ascending order.
func (c Cart) ProductIDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

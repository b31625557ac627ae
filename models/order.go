package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order. The set is closed; see ParseOrderStatus.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusCompleted  OrderStatus = "Completed"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusCompleted:  {},
}

// ParseOrderStatus returns the status named s and whether it is a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderStatuses[st]
	return st, ok
}

// Fulfilled reports whether goods have reached the customer.
func (s OrderStatus) Fulfilled() bool {
	return s == OrderStatusDelivered || s == OrderStatusCompleted
}

// PaymentStatusCOD is the only payment status recorded; no gateway is involved.
const PaymentStatusCOD = "COD"

// ShippingInfo is where and to whom an order ships.
type ShippingInfo struct {
	Name     string `gorm:"type:varchar(200);not null" json:"name" binding:"required"`
	Email    string `gorm:"type:varchar(200)" json:"email" binding:"omitempty,email"`
	Address  string `gorm:"type:varchar(500);not null" json:"address" binding:"required"`
	City     string `gorm:"type:varchar(100);not null" json:"city" binding:"required"`
	State    string `gorm:"type:varchar(100)" json:"state"`
	Country  string `gorm:"type:varchar(100);not null" json:"country" binding:"required"`
	Postcode string `gorm:"type:varchar(20)" json:"postcode"`
	Phone    string `gorm:"type:varchar(40);not null" json:"phone" binding:"required"`
}

// ShippingInfoPatch carries a partial shipping update; nil fields are left unchanged.
type ShippingInfoPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Country  *string `json:"country"`
	Postcode *string `json:"postcode"`
	Phone    *string `json:"phone"`
}

// PaymentInfo records the payment the customer declared at checkout.
type PaymentInfo struct {
	Method     string    `gorm:"type:varchar(40);not null" json:"method"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	DeclaredAt time.Time `gorm:"not null" json:"declared_at"`
}

// Order is an immutable snapshot of a checkout plus its mutable status and shipping info.
type Order struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID        string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_id"`
	UserID         *string      `gorm:"type:varchar(64);index" json:"user_id"`
	IdempotencyKey *string      `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	ShippingInfo   ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_info"`
	OrderItems     []OrderItem  `gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	PaymentInfo    PaymentInfo  `gorm:"embedded;embeddedPrefix:payment_" json:"payment_info"`
	OrderStatus    OrderStatus  `gorm:"type:varchar(20);not null;default:'Processing'" json:"order_status"`
	Currency       CurrencyCode `gorm:"type:varchar(3);not null" json:"currency"`
	TotalPrice     float64      `gorm:"not null" json:"total_price"`
	ShippingPrice  float64      `gorm:"not null;default:0" json:"shipping_price"`
	DateOrdered    time.Time    `gorm:"not null;index" json:"date_ordered"`
	DeliveredAt    *time.Time   `json:"delivered_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// ContainsProduct reports whether any line of the order is for productID.
func (o *Order) ContainsProduct(productID int) bool {
	for _, it := range o.OrderItems {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// OwnedBy reports whether the order was placed by the authenticated user userID.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != nil && userID != "" && *o.UserID == userID
}

// OrderItem is one line of an order. Name, Price and Image are snapshots taken at checkout.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID   string    `gorm:"type:varchar(32);not null;index" json:"-"`
	ProductID int       `gorm:"not null" json:"product_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	Image     string    `gorm:"type:text" json:"image"`
	Color     *string   `gorm:"type:varchar(64)" json:"color"`
	Size      *string   `gorm:"type:varchar(64)" json:"size"`
}

// UpdateOrderStatusRequest is the admin payload for a status transition.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storefront-service/cart"
	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/pricing"
	"storefront-service/repository"

	"go.uber.org/zap"
)

const (
	orderIDSpace          = 100000
	maxOrderIDAttempts    = 20
	DefaultOrderIDPrefix  = "ORD"
	msgOrderNotFound      = "order not found"
	msgOrderFetchFailure  = "Failed to fetch order"
	msgOrderUpdateFailure = "Failed to update order"
)

// CreateOrderRequest is the checkout payload. Prices and totals are never taken from it.
type CreateOrderRequest struct {
	Cart          cart.Cart           `json:"cart" binding:"required"`
	Country       string              `json:"country"`
	Currency      string              `json:"currency"`
	ShippingInfo  models.ShippingInfo `json:"shipping_info" binding:"required"`
	PaymentMethod string              `json:"payment_method" binding:"required"`
	PromoCode     string              `json:"promo_code"`
}

// CreateOrderInput carries the request plus caller context.
type CreateOrderInput struct {
	Request        CreateOrderRequest
	UserID         *string
	IdempotencyKey string
}

// OrderResponse is a page of orders.
type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

// OrderService allocates orders and drives their lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, *apperrors.Error)
	GetOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, *apperrors.Error)
	ListOrders(ctx context.Context, page, limit int) (*OrderResponse, *apperrors.Error)
	ListUserOrders(ctx context.Context, userID string, page, limit int) (*OrderResponse, *apperrors.Error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, *apperrors.Error)
	UpdateShippingInfo(ctx context.Context, orderID string, patch *models.ShippingInfoPatch) (*models.Order, *apperrors.Error)
	DeleteOrder(ctx context.Context, orderID string) *apperrors.Error
}

// OrderServiceOption customises an OrderService.
type OrderServiceOption func(*orderServiceImpl)

// WithIDSource replaces the random draw used for order identifiers. fn must return
// values in [0, 100000).
func WithIDSource(fn func() int) OrderServiceOption {
	return func(s *orderServiceImpl) { s.idSource = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) OrderServiceOption {
	return func(s *orderServiceImpl) { s.now = fn }
}

type orderServiceImpl struct {
	repo     repository.OrderRepository
	products repository.ProductRepository
	promos   PromoValidator
	events   EventPublisher
	metrics  aws_pkg.MetricsRecorder
	idPrefix string
	idSource func() int
	now      func() time.Time
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService. events and metrics may be nil.
func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	promos PromoValidator,
	events EventPublisher,
	metrics aws_pkg.MetricsRecorder,
	idPrefix string,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) OrderService {
	if idPrefix == "" {
		idPrefix = DefaultOrderIDPrefix
	}
	s := &orderServiceImpl{
		repo:     repo,
		products: products,
		promos:   promos,
		events:   events,
		metrics:  metrics,
		idPrefix: idPrefix,
		idSource: func() int { return rand.Intn(orderIDSpace) },
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *orderServiceImpl) nextOrderID() string {
	return fmt.Sprintf("%s%05d", s.idPrefix, s.idSource()%orderIDSpace)
}

func (s *orderServiceImpl) record(ctx context.Context, metric string) {
	recordCount(ctx, s.metrics, s.logger, metric)
}

func (s *orderServiceImpl) publish(ctx context.Context, eventType string, o *models.Order, previous models.OrderStatus) {
	if s.events == nil {
		return
	}
	s.events.PublishOrderEvent(ctx, newOrderEvent(eventType, o, previous))
}

func validateShipping(info *models.ShippingInfo) *apperrors.Error {
	required := []struct {
		name  string
		value string
	}{
		{"name", info.Name},
		{"address", info.Address},
		{"city", info.City},
		{"country", info.Country},
		{"phone", info.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.Validation("shipping_info.%s is required", f.name)
		}
	}
	return nil
}

// CreateOrder snapshots the cart against the live catalog and persists the order under
// a freshly drawn identifier.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, *apperrors.Error) {
	req := in.Request
	if len(req.Cart) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}
	if appErr := validateShipping(&req.ShippingInfo); appErr != nil {
		return nil, appErr
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, apperrors.Validation("payment_method is required")
	}

	var idemKey *string
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		idemKey = &key
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err == nil {
			s.logger.Info("Returning existing order for idempotency key", zap.String("order_id", existing.OrderID))
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to check idempotency key", zap.Error(err))
			return nil, apperrors.Internal("Failed to create order", err)
		}
	}

	var discount float64
	if code := strings.TrimSpace(req.PromoCode); code != "" {
		v, appErr := s.promos.ValidatePromo(ctx, code)
		if appErr != nil {
			return nil, appErr
		}
		discount = v.DiscountPercent
	}

	lines := make(cart.Cart, len(req.Cart))
	for id, e := range req.Cart {
		if e.Quantity < 1 {
			s.logger.Info("Dropping empty cart line from order", zap.Int("product_id", id), zap.Int("quantity", e.Quantity))
			continue
		}
		lines[id] = e
	}
	if len(lines) == 0 {
		return nil, apperrors.Validation("cart has no items with a positive quantity")
	}

	ids := lines.ProductIDs()
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load products for order", zap.Ints("product_ids", ids), zap.Error(err))
		return nil, apperrors.Internal("Failed to create order", err)
	}

	resolved := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := catalog[id]
		if !ok {
			s.logger.Info("Dropping unknown product from order", zap.Int("product_id", id))
			continue
		}
		if !p.Purchasable() {
			return nil, apperrors.Validation("product %d is not available", id)
		}
		resolved = append(resolved, p)
	}
	if len(resolved) == 0 {
		return nil, apperrors.Validation("none of the cart items could be resolved")
	}

	currency := pricing.SettlementCurrency(resolved, pricing.Resolve(req.Country, req.Currency))
	items := make([]models.OrderItem, 0, len(resolved))
	var subtotal float64
	for _, p := range resolved {
		e := lines[p.ID]
		price := pricing.ResolvePrice(p.Prices, currency).NewPrice
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  e.Quantity,
			Price:     price,
			Image:     p.FirstImage(),
			Color:     e.Color,
			Size:      e.Size,
		})
		subtotal += price * float64(e.Quantity)
	}

	now := s.now().UTC()
	order := &models.Order{
		UserID:         in.UserID,
		IdempotencyKey: idemKey,
		ShippingInfo:   req.ShippingInfo,
		PaymentInfo: models.PaymentInfo{
			Method:     strings.TrimSpace(req.PaymentMethod),
			Status:     models.PaymentStatusCOD,
			DeclaredAt: now,
		},
		OrderStatus:   models.OrderStatusProcessing,
		Currency:      currency,
		TotalPrice:    cart.ApplyDiscount(subtotal, discount),
		ShippingPrice: 0,
		DateOrdered:   now,
	}

	for attempt := 1; attempt <= maxOrderIDAttempts; attempt++ {
		order.OrderID = s.nextOrderID()
		order.OrderItems = make([]models.OrderItem, len(items))
		for i, it := range items {
			it.OrderID = order.OrderID
			order.OrderItems[i] = it
		}

		err := s.repo.Create(ctx, order)
		if err == nil {
			s.record(ctx, aws_pkg.MetricOrdersCreated)
			s.publish(ctx, models.EventOrderCreated, order, "")
			s.logger.Info("Order created",
				zap.String("order_id", order.OrderID),
				zap.Int("items", len(order.OrderItems)),
				zap.Float64("total_price", order.TotalPrice),
				zap.String("currency", string(order.Currency)))
			return order, nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderID) {
			s.record(ctx, aws_pkg.MetricOrdersFailed)
			s.logger.Error("Failed to persist order", zap.String("order_id", order.OrderID), zap.Error(err))
			return nil, apperrors.Internal("Failed to create order", err)
		}

		// A concurrent request with the same key may have won the insert.
		if idemKey != nil {
			if existing, ferr := s.repo.FindByIdempotencyKey(ctx, *idemKey); ferr == nil {
				return existing, nil
			}
		}
		s.record(ctx, aws_pkg.MetricOrderIDCollisions)
		s.logger.Warn("Order id collision, redrawing", zap.String("order_id", order.OrderID), zap.Int("attempt", attempt))
	}

	s.record(ctx, aws_pkg.MetricOrdersFailed)
	s.logger.Error("Exhausted order id attempts", zap.Int("attempts", maxOrderIDAttempts))
	return nil, apperrors.Internal("Failed to allocate an order id", nil)
}

func (s *orderServiceImpl) findOrder(ctx context.Context, orderID string) (*models.Order, *apperrors.Error) {
	order, err := s.repo.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgOrderNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal(msgOrderFetchFailure, err)
	}
	return order, nil
}

// GetOrder returns an order to the customer who placed it or to staff who can read orders.
// Anyone else gets NotFound so that order ids cannot be enumerated.
func (s *orderServiceImpl) GetOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, *apperrors.Error) {
	order, appErr := s.findOrder(ctx, orderID)
	if appErr != nil {
		return nil, appErr
	}
	if !actor.Can(models.CapOrdersRead) && !order.OwnedBy(actor.UserID) {
		return nil, apperrors.NotFound(msgOrderNotFound)
	}
	return order, nil
}

// ListOrders retrieves paginated orders for all users.
func (s *orderServiceImpl) ListOrders(ctx context.Context, page, limit int) (*OrderResponse, *apperrors.Error) {
	orders, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return &OrderResponse{Orders: orders, Meta: newMeta(page, limit, total)}, nil
}

// ListUserOrders retrieves paginated orders placed by userID.
func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string, page, limit int) (*OrderResponse, *apperrors.Error) {
	if userID == "" {
		return nil, apperrors.Validation("user id is required")
	}
	orders, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders for user", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return &OrderResponse{Orders: orders, Meta: newMeta(page, limit, total)}, nil
}

// UpdateOrderStatus moves an order along one edge of the transition table.
func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, *apperrors.Error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperrors.Validation("invalid order status %q", status)
	}

	order, appErr := s.findOrder(ctx, orderID)
	if appErr != nil {
		return nil, appErr
	}

	previous := order.OrderStatus
	if !CanTransition(previous, next) {
		return nil, apperrors.Validation("cannot change order status from %s to %s", previous, next)
	}

	order.OrderStatus = next
	if next == models.OrderStatusDelivered && order.DeliveredAt == nil {
		t := s.now().UTC()
		order.DeliveredAt = &t
	}

	if err := s.repo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgOrderNotFound)
		}
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal(msgOrderUpdateFailure, err)
	}

	s.record(ctx, aws_pkg.MetricOrderStatusChanged)
	s.publish(ctx, models.EventOrderStatusChanged, order, previous)
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	return order, nil
}

func applyPatchField(dst *string, v *string) bool {
	if v == nil || strings.TrimSpace(*v) == "" {
		return false
	}
	*dst = *v
	return true
}

// UpdateShippingInfo merges the supplied non-empty fields into the order's shipping info.
func (s *orderServiceImpl) UpdateShippingInfo(ctx context.Context, orderID string, patch *models.ShippingInfoPatch) (*models.Order, *apperrors.Error) {
	if patch == nil {
		return nil, apperrors.Validation("no shipping fields supplied")
	}

	order, appErr := s.findOrder(ctx, orderID)
	if appErr != nil {
		return nil, appErr
	}

	info := &order.ShippingInfo
	changed := false
	for _, f := range []struct {
		dst *string
		v   *string
	}{
		{&info.Name, patch.Name},
		{&info.Email, patch.Email},
		{&info.Address, patch.Address},
		{&info.City, patch.City},
		{&info.State, patch.State},
		{&info.Country, patch.Country},
		{&info.Postcode, patch.Postcode},
		{&info.Phone, patch.Phone},
	} {
		if applyPatchField(f.dst, f.v) {
			changed = true
		}
	}
	if !changed {
		return nil, apperrors.Validation("no shipping fields supplied")
	}

	if err := s.repo.UpdateShippingInfo(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgOrderNotFound)
		}
		s.logger.Error("Failed to update shipping info", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal(msgOrderUpdateFailure, err)
	}

	s.logger.Info("Order shipping info updated", zap.String("order_id", orderID))
	return order, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID string) *apperrors.Error {
	if err := s.repo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(msgOrderNotFound)
		}
		s.logger.Error("Failed to delete order", zap.String("order_id", orderID), zap.Error(err))
		return apperrors.Internal("Failed to delete order", err)
	}
	s.logger.Info("Order deleted", zap.String("order_id", orderID))
	return nil
}

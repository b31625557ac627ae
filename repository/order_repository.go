package repository

import (
	"context"
	"errors"

	"storefront-service/models"

	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
	UpdateShippingInfo(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orderID string) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its items in one transaction. The unique index on
// order_id makes the insert fail with ErrDuplicateOrderID instead of overwriting.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateOrderID
	}
	return err
}

func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return r.findOne(ctx, "idempotency_key = ?", key)
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where(query, arg).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAll retrieves all orders with pagination, newest first
func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&models.Order{}), page, limit)
}

// FindByUserID retrieves orders for a specific user with pagination
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), page, limit)
}

func (r *GormOrderRepository) paginate(query *gorm.DB, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("date_ordered DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus writes order_status and delivered_at only.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	return r.updateColumns(ctx, order.OrderID, map[string]any{
		"order_status": order.OrderStatus,
		"delivered_at": order.DeliveredAt,
	})
}

// UpdateShippingInfo writes the shipping_* columns only.
func (r *GormOrderRepository) UpdateShippingInfo(ctx context.Context, order *models.Order) error {
	s := order.ShippingInfo
	return r.updateColumns(ctx, order.OrderID, map[string]any{
		"shipping_name":     s.Name,
		"shipping_email":    s.Email,
		"shipping_address":  s.Address,
		"shipping_city":     s.City,
		"shipping_state":    s.State,
		"shipping_country":  s.Country,
		"shipping_postcode": s.Postcode,
		"shipping_phone":    s.Phone,
	})
}

func (r *GormOrderRepository) updateColumns(ctx context.Context, orderID string, cols map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the order; items go with it through the ON DELETE CASCADE constraint.
func (r *GormOrderRepository) Delete(ctx context.Context, orderID string) error {
	result := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

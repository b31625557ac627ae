package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateOrderID  = errors.New("order id already exists")
	ErrDuplicateCode     = errors.New("promo code already exists")
	ErrDuplicateFeedback = errors.New("feedback already submitted for this order and product")
	ErrProductExists     = errors.New("product id already exists")
)

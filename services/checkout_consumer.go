package services

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "storefront-service/common/errors"
	aws_pkg "storefront-service/pkg/aws"

	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// EventCheckoutRequested is the only message type the checkout queue carries.
const EventCheckoutRequested = "checkout.requested"

// CheckoutMessage is an asynchronous checkout request.
type CheckoutMessage struct {
	EventType      string             `json:"event_type"`
	IdempotencyKey string             `json:"idempotency_key"`
	UserID         string             `json:"user_id"`
	Order          CreateOrderRequest `json:"order"`
}

// snsEnvelope is the wrapper SNS adds when a topic fans out to SQS without raw delivery.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// CheckoutConsumer turns queued checkout requests into orders.
type CheckoutConsumer struct {
	orders  OrderService
	metrics aws_pkg.MetricsRecorder
	logger  *zap.Logger
}

func NewCheckoutConsumer(orders OrderService, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) *CheckoutConsumer {
	return &CheckoutConsumer{orders: orders, metrics: metrics, logger: logger}
}

func unwrapSNS(body string) string {
	var env snsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err == nil && env.Type == "Notification" && env.Message != "" {
		return env.Message
	}
	return body
}

// Handle processes one message body. Messages that can never succeed are acknowledged
// and dropped; internal failures return an error so the queue redelivers.
func (c *CheckoutConsumer) Handle(ctx context.Context, body string) error {
	var msg CheckoutMessage
	if err := json.Unmarshal([]byte(unwrapSNS(body)), &msg); err != nil {
		c.logger.Warn("Dropping malformed checkout message", zap.Error(err))
		return nil
	}
	if msg.EventType != "" && msg.EventType != EventCheckoutRequested {
		c.logger.Info("Ignoring message", zap.String("event_type", msg.EventType))
		return nil
	}
	if strings.TrimSpace(msg.IdempotencyKey) == "" {
		c.logger.Warn("Dropping checkout message without idempotency key")
		return nil
	}
	if err := binding.Validator.ValidateStruct(&msg.Order); err != nil {
		c.logger.Warn("Dropping invalid checkout message",
			zap.String("idempotency_key", msg.IdempotencyKey),
			zap.Error(err))
		return nil
	}

	in := CreateOrderInput{Request: msg.Order, IdempotencyKey: msg.IdempotencyKey}
	if msg.UserID != "" {
		uid := msg.UserID
		in.UserID = &uid
	}

	order, appErr := c.orders.CreateOrder(ctx, in)
	if appErr != nil {
		if appErr.Kind == apperrors.KindInternal {
			c.logger.Error("Checkout failed, leaving message for redelivery",
				zap.String("idempotency_key", msg.IdempotencyKey),
				zap.Error(appErr))
			return appErr
		}
		c.logger.Warn("Dropping rejected checkout message",
			zap.String("idempotency_key", msg.IdempotencyKey),
			zap.String("kind", string(appErr.Kind)),
			zap.String("reason", appErr.Message))
		return nil
	}

	recordCount(ctx, c.metrics, c.logger, aws_pkg.MetricCheckoutMessages)
	c.logger.Info("Checkout message processed",
		zap.String("order_id", order.OrderID),
		zap.String("idempotency_key", msg.IdempotencyKey))
	return nil
}

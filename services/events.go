package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront-service/kafka"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"

	"go.uber.org/zap"
)

// EventPublisher fans order lifecycle events out to downstream consumers.
// Publishing is best effort: failures are logged and never fail the operation.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent)
}

// typedPublisher is implemented by SNS clients that can tag messages with an event type.
type typedPublisher interface {
	PublishWithType(ctx context.Context, topicArn, eventType string, message []byte) error
}

type orderEventPublisher struct {
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewOrderEventPublisher publishes to Kafka when producer is non-nil and to SNS when
// snsClient and snsTopicArn are set.
func NewOrderEventPublisher(producer kafka.ProducerAPI, snsClient aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) EventPublisher {
	return &orderEventPublisher{
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

func newOrderEvent(eventType string, o *models.Order, previous models.OrderStatus) models.OrderEvent {
	return models.OrderEvent{
		EventType:      eventType,
		OrderID:        o.OrderID,
		UserID:         o.UserID,
		Status:         o.OrderStatus,
		PreviousStatus: previous,
		TotalPrice:     o.TotalPrice,
		Currency:       o.Currency,
		ItemCount:      len(o.OrderItems),
		Timestamp:      time.Now().UTC(),
	}
}

func (p *orderEventPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}

	if p.producer != nil {
		if err := p.producer.Publish(ctx, event.OrderID, payload); err != nil {
			p.logger.Warn("Kafka publish failed",
				zap.String("event_type", event.EventType),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
		}
	}

	if p.snsClient == nil || p.snsTopicArn == "" {
		return
	}
	if tp, ok := p.snsClient.(typedPublisher); ok {
		err = tp.PublishWithType(ctx, p.snsTopicArn, event.EventType, payload)
	} else {
		err = p.snsClient.Publish(ctx, p.snsTopicArn, payload)
	}
	if err != nil {
		p.logger.Warn("SNS publish failed",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return
	}
	p.logger.Info("Order event published",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.OrderID))
}

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront-service/models"
	"storefront-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	keys     []string
	messages [][]byte
	err      error
}

func (m *mockProducer) Publish(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, key)
	m.messages = append(m.messages, value)
	return nil
}

func (m *mockProducer) Close() error { return nil }

// mockSNS implements aws.SNSPublisher.
type mockSNS struct {
	publishedArn string
	publishedMsg []byte
}

func (m *mockSNS) Publish(_ context.Context, topicArn string, message []byte) error {
	m.publishedArn = topicArn
	m.publishedMsg = append([]byte(nil), message...)
	return nil
}

// mockTypedSNS also tags messages with their event type.
type mockTypedSNS struct {
	mockSNS
	eventType string
}

func (m *mockTypedSNS) PublishWithType(ctx context.Context, topicArn, eventType string, message []byte) error {
	m.eventType = eventType
	return m.Publish(ctx, topicArn, message)
}

const orderTopicArn = "arn:aws:sns:eu-west-2:000000000000:order-events"

func sampleEvent() models.OrderEvent {
	return models.OrderEvent{
		EventType:  models.EventOrderCreated,
		OrderID:    "ORD00042",
		Status:     models.OrderStatusProcessing,
		TotalPrice: 45,
		Currency:   models.CurrencyUSD,
		ItemCount:  1,
		Timestamp:  time.Now().UTC(),
	}
}

func TestOrderEventPublisher_KafkaAndSNS(t *testing.T) {
	producer := &mockProducer{}
	sns := &mockSNS{}
	pub := services.NewOrderEventPublisher(producer, sns, orderTopicArn, testLogger())

	pub.PublishOrderEvent(context.Background(), sampleEvent())

	require.Len(t, producer.messages, 1)
	assert.Equal(t, "ORD00042", producer.keys[0])
	assert.Equal(t, orderTopicArn, sns.publishedArn)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(sns.publishedMsg, &out))
	assert.Equal(t, "order.created", out["event_type"])
	assert.Equal(t, "ORD00042", out["order_id"])
}

func TestOrderEventPublisher_UsesTypedSNSWhenAvailable(t *testing.T) {
	sns := &mockTypedSNS{}
	pub := services.NewOrderEventPublisher(nil, sns, orderTopicArn, testLogger())

	pub.PublishOrderEvent(context.Background(), sampleEvent())
	assert.Equal(t, models.EventOrderCreated, sns.eventType)
	assert.NotEmpty(t, sns.publishedMsg)
}

func TestOrderEventPublisher_KafkaFailureStillPublishesSNS(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker down")}
	sns := &mockSNS{}
	pub := services.NewOrderEventPublisher(producer, sns, orderTopicArn, testLogger())

	assert.NotPanics(t, func() { pub.PublishOrderEvent(context.Background(), sampleEvent()) })
	assert.Equal(t, orderTopicArn, sns.publishedArn)
}

func TestOrderEventPublisher_SkipsSNSWithoutTopic(t *testing.T) {
	sns := &mockSNS{}
	pub := services.NewOrderEventPublisher(nil, sns, "", testLogger())
	pub.PublishOrderEvent(context.Background(), sampleEvent())
	assert.Empty(t, sns.publishedArn)
}

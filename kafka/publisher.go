package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer       sarama.SyncProducer
	activityTopic  string
	requestedTopic string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string, activityTopic, requestedTopic string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("activity_topic", activityTopic).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer, activityTopic, requestedTopic), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, activityTopic, requestedTopic string) *Publisher {
	if activityTopic == "" {
		activityTopic = TopicActivity
	}
	if requestedTopic == "" {
		requestedTopic = TopicCheckInRequested
	}
	return &Publisher{
		producer:       producer,
		activityTopic:  activityTopic,
		requestedTopic: requestedTopic,
	}
}

// PublishActivity forwards a committed activity entry to the activity topic
func (p *Publisher) PublishActivity(ctx context.Context, entry domain.ActivityLogEntry) error {
	event := NewActivityRecordedEvent(entry)
	event.MessageID = uuid.NewString()

	key := "activity"
	if entry.EventID != nil {
		key = fmt.Sprintf("event_%d", *entry.EventID)
	}
	return p.publish(ctx, p.activityTopic, key, EventTypeActivityRecorded, event.MessageID, event,
		attribute.String("activity.type", string(entry.Type)),
		attribute.Int64("activity.id", int64(entry.ID)),
	)
}

// PublishCheckInRequested enqueues a check-in request
func (p *Publisher) PublishCheckInRequested(ctx context.Context, event CheckInRequestedEvent) error {
	if event.MessageID == "" {
		event.MessageID = uuid.NewString()
	}
	event.EventType = EventTypeCheckInRequested

	key := fmt.Sprintf("event_%d_guest_%d", event.EventID, event.GuestID)
	return p.publish(ctx, p.requestedTopic, key, EventTypeCheckInRequested, event.MessageID, event,
		attribute.Int64("checkin.event_id", int64(event.EventID)),
		attribute.Int64("checkin.guest_id", int64(event.GuestID)),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, key, eventType, messageID string, payload interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", messageID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(messageID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(body),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		metrics.KafkaMessagesTotal.WithLabelValues(topic, "publish_failed").Inc()
		logger.Error(ctx).
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")
	metrics.KafkaMessagesTotal.WithLabelValues(topic, "published").Inc()

	logger.Debug(ctx).
		Str("event_id", messageID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

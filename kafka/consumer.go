package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// Consumer wraps Kafka consumer group
type Consumer struct {
	consumer      sarama.ConsumerGroup
	brokers       []string
	groupID       string
	topics        []string
	handlers      map[string]EventHandler
	handlersMutex sync.RWMutex
}

// EventHandler handles the raw JSON payload of one message
type EventHandler func(ctx context.Context, payload []byte) error

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, groupID string, topics []string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer initialized")

	return newConsumer(group, brokers, groupID, topics), nil
}

func newConsumer(group sarama.ConsumerGroup, brokers []string, groupID string, topics []string) *Consumer {
	return &Consumer{
		consumer: group,
		brokers:  brokers,
		groupID:  groupID,
		topics:   topics,
		handlers: make(map[string]EventHandler),
	}
}

// RegisterHandler registers an event handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler EventHandler) {
	c.handlersMutex.Lock()
	defer c.handlersMutex.Unlock()
	c.handlers[eventType] = handler
	logger.Logger.Info().
		Str("event_type", eventType).
		Msg("Event handler registered")
}

// Serve consumes until ctx is cancelled. It is meant to run under a supervisor.
func (c *Consumer) Serve(ctx context.Context) error {
	handler := &consumerGroupHandler{consumer: c}

	go func() {
		for err := range c.consumer.Errors() {
			logger.Logger.Error().
				Err(err).
				Msg("Consumer error")
		}
	}()

	logger.Logger.Info().
		Strs("topics", c.topics).
		Str("group_id", c.groupID).
		Msg("Kafka consumer started")

	for {
		// Consume returns on every rebalance
		if err := c.consumer.Consume(ctx, c.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}
			logger.Logger.Error().
				Err(err).
				Msg("Error from consumer")
		}
		if ctx.Err() != nil {
			logger.Logger.Info().Msg("Consumer context cancelled, stopping...")
			return ctx.Err()
		}
	}
}

func (c *Consumer) String() string {
	return "kafka-consumer"
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.consumer != nil {
		return c.consumer.Close()
	}
	return nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.consumer.handleMessage(session.Context(), message)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handleMessage dispatches one message. Failures are logged and counted;
// the offset is committed either way so a poison message cannot stall the
// partition.
func (c *Consumer) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	carrier := propagation.MapCarrier{}
	var eventType, eventID string
	for _, header := range message.Headers {
		switch key := string(header.Key); key {
		case "traceparent", "tracestate":
			carrier[key] = string(header.Value)
		case "event_type":
			eventType = string(header.Value)
		case "event_id":
			eventID = string(header.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	tracer := otel.Tracer("kafka-consumer")
	ctx, span := tracer.Start(ctx, "kafka.consume."+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.source", message.Topic),
			attribute.String("messaging.source_kind", "topic"),
			attribute.Int("messaging.kafka.partition", int(message.Partition)),
			attribute.Int64("messaging.kafka.offset", message.Offset),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	if eventType == "" {
		span.SetStatus(codes.Error, "Message without event_type header")
		metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, "invalid").Inc()
		logger.Warn(ctx).Str("topic", message.Topic).Msg("Message without event_type header")
		return errMissingEventType
	}

	c.handlersMutex.RLock()
	handler, exists := c.handlers[eventType]
	c.handlersMutex.RUnlock()
	if !exists {
		span.SetStatus(codes.Error, "No handler registered")
		metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, "unhandled").Inc()
		logger.Warn(ctx).
			Str("event_type", eventType).
			Msg("No handler registered for event type")
		return fmt.Errorf("%w: %s", errNoHandler, eventType)
	}

	if err := handler(ctx, message.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to handle event")
		metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, "failed").Inc()
		logger.Error(ctx).
			Err(err).
			Str("event_type", eventType).
			Str("event_id", eventID).
			Msg("Failed to handle event")
		return err
	}

	span.SetStatus(codes.Ok, "Event handled successfully")
	metrics.KafkaMessagesTotal.WithLabelValues(message.Topic, "handled").Inc()
	logger.Debug(ctx).
		Str("event_type", eventType).
		Str("event_id", eventID).
		Msg("Event handled successfully")
	return nil
}

var (
	errMissingEventType = errors.New("message without event_type header")
	errNoHandler        = errors.New("no handler registered")
)

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/smallbiznis/weighbill/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const TypeBillGenerated = "bill.generated"

// BillGenerated announces a bill that was built and returned to a caller.
type BillGenerated struct {
	Type         string    `json:"type"`
	RunID        string    `json:"run_id"`
	ProviderID   string    `json:"provider_id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	TruckCount   int       `json:"truck_count"`
	SessionCount int       `json:"session_count"`
	Products     int       `json:"products"`
	Total        int64     `json:"total"`
	Partial      bool      `json:"partial"`
	GeneratedAt  time.Time `json:"generated_at"`
}

type Publisher interface {
	PublishBillGenerated(ctx context.Context, evt *BillGenerated) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

type noopPublisher struct{}

func (noopPublisher) PublishBillGenerated(context.Context, *BillGenerated) error { return nil }

// NewPublisher writes to kafka when KAFKA_BROKERS is set and discards events
// otherwise.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	log = log.Named("events.publisher")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, bill events disabled")
		return noopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.BillTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return writer.Close()
		},
	})
	return newKafkaPublisher(writer, cfg.Kafka.BillTopic, log)
}

func newKafkaPublisher(writer messageWriter, topic string, log *zap.Logger) *kafkaPublisher {
	return &kafkaPublisher{writer: writer, topic: topic, log: log}
}

func (p *kafkaPublisher) PublishBillGenerated(ctx context.Context, evt *BillGenerated) error {
	if evt == nil {
		return fmt.Errorf("bill event is nil")
	}
	ctx, span := tracing.StartSpan(ctx, "events.publish",
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
	)
	defer span.End()

	evt.Type = TypeBillGenerated
	if evt.GeneratedAt.IsZero() {
		evt.GeneratedAt = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal bill event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	tracing.InjectContext(ctx, carrier)
	headers := []kafka.Header{
		{Key: "type", Value: []byte(evt.Type)},
		{Key: "provider_id", Value: []byte(evt.ProviderID)},
	}
	for _, key := range carrier.Keys() {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(carrier.Get(key))})
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(evt.ProviderID),
		Value:   data,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		p.log.Warn("bill event publish failed", zap.String("topic", p.topic), zap.Error(err))
		return err
	}
	span.SetStatus(codes.Ok, "published")
	return nil
}

// Package kafka publishes matched pending extrinsics to a Kafka topic, one
// JSON message per extrinsic keyed by its hash.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"pendingScope/internal/model"
)

const flushTimeoutMs = 5000

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// Sink is a storage sink backed by a Kafka producer.
type Sink struct {
	producer producer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

// NewSink connects a producer to brokers (comma-separated bootstrap servers).
func NewSink(brokers, topic string, logger *zap.Logger) (*Sink, error) {
	if brokers == "" {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newSink(p, topic, logger), nil
}

func newSink(p producer, topic string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{producer: p, topic: topic, logger: logger, done: make(chan struct{})}
	go s.drainEvents()
	return s
}

// drainEvents logs client-level errors reported outside delivery reports.
func (s *Sink) drainEvents() {
	defer close(s.done)
	for ev := range s.producer.Events() {
		if kerr, ok := ev.(kafka.Error); ok {
			s.logger.Warn("kafka client error", zap.String("code", kerr.Code().String()), zap.Error(kerr))
		}
	}
}

// PutPending produces one message per record and waits for every delivery report.
func (s *Sink) PutPending(ctx context.Context, records []model.PendingRecord) error {
	if len(records) == 0 {
		return nil
	}

	deliveries := make(chan kafka.Event, len(records))
	produced := 0
	for _, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal pending record: %w", err)
		}
		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &s.topic, Partition: kafka.PartitionAny},
			Key:            []byte(rec.Extrinsic.Hash),
			Value:          value,
			Headers: []kafka.Header{
				{Key: "call_function", Value: []byte(rec.Extrinsic.Call.Function)},
			},
		}
		if err := s.producer.Produce(msg, deliveries); err != nil {
			return fmt.Errorf("produce %s: %w", rec.Extrinsic.Hash, err)
		}
		produced++
	}

	for produced > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-deliveries:
			msg, ok := ev.(*kafka.Message)
			if !ok {
				continue
			}
			produced--
			if msg.TopicPartition.Error != nil {
				return fmt.Errorf("deliver %s: %w", string(msg.Key), msg.TopicPartition.Error)
			}
		}
	}
	return nil
}

func (s *Sink) Close() error {
	if left := s.producer.Flush(flushTimeoutMs); left > 0 {
		s.logger.Warn("kafka messages not flushed", zap.Int("outstanding", left))
	}
	s.producer.Close()
	<-s.done
	return nil
}

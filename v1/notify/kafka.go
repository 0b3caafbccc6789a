package notify

import (
	"context"
	"encoding/json"

	sarama "github.com/IBM/sarama"
)

const defaultKafkaTopic = "lounge-outcomes"

// KafkaSink delivers outcomes as JSON to a Kafka topic, keyed by visitor ID
// so one visitor's outcomes stay ordered within a partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// KafkaSinkOption configures a KafkaSink.
type KafkaSinkOption func(*KafkaSink)

// WithKafkaTopic sets the topic outcomes are produced to.
func WithKafkaTopic(topic string) KafkaSinkOption {
	return func(s *KafkaSink) {
		s.topic = topic
	}
}

// NewKafkaSink creates a new KafkaSink connecting to the given brokers.
func NewKafkaSink(brokers []string, cfg *sarama.Config, opts ...KafkaSinkOption) (*KafkaSink, error) {
	if !cfg.Producer.Return.Successes {
		cfg.Producer.Return.Successes = true
	}
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	s := &KafkaSink{producer: producer, topic: defaultKafkaTopic}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Deliver implements Sink.Deliver.
func (s *KafkaSink) Deliver(ctx context.Context, o Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(o.VisitorID),
		Value: sarama.ByteEncoder(data),
	}
	_, _, err = s.producer.SendMessage(msg)
	return err
}

// Close shuts the underlying producer down.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

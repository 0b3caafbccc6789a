package notify

import (
	"context"
	"os"
	"testing"
	"time"

	sarama "github.com/IBM/sarama"
	"github.com/google/uuid"
)

func TestKafkaSinkDeliver(t *testing.T) {
	addr := os.Getenv("LOUNGE_TEST_KAFKA_ADDR")
	if addr == "" {
		t.Skip("LOUNGE_TEST_KAFKA_ADDR not set, skipping Kafka integration test")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true

	topic := "lounge-test-" + uuid.NewString()
	sink, err := NewKafkaSink([]string{addr}, cfg, WithKafkaTopic(topic))
	if err != nil {
		t.Fatalf("NewKafkaSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	o := Outcome{Kind: KindCompleted, VisitorID: "v1", ProviderID: "p1", At: time.Now().UTC()}
	if err := sink.Deliver(context.Background(), o); err != nil {
		t.Fatalf("deliver: %v", err)
	}
}

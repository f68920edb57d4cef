package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// TransactionCompleted is emitted once per finished gateway transaction.
// It never carries more than the last four digits of an account number.
type TransactionCompleted struct {
	Event                  string    `json:"event"`
	AuditID                uint      `json:"audit_id"`
	ProjectID              int       `json:"project_id"`
	InteractionID          string    `json:"interaction_id,omitempty"`
	ClientReferenceCode    string    `json:"client_reference_code,omitempty"`
	Processor              string    `json:"processor"`
	TransactionType        string    `json:"transaction_type"`
	TenderType             string    `json:"tender_type,omitempty"`
	Amount                 string    `json:"amount,omitempty"`
	AccountLast4           string    `json:"account_last4,omitempty"`
	Result                 string    `json:"result"`
	ProcessorTransactionID string    `json:"processor_transaction_id,omitempty"`
	OccurredAt             time.Time `json:"occurred_at"`
}

// Publisher emits transaction events.
type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by project.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event TransactionCompleted) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Processor + ":" + event.InteractionID),
		Value: msg,
		Time:  event.OccurredAt,
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransactionCompleted) error { return nil }

func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher, or a NopPublisher when brokers is empty.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

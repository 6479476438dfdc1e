package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/contacts_api/internal/logging"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes email tasks for cmd/mailer to deliver.
type KafkaSender struct {
	writer kafkaWriter
}

func NewKafkaSender(brokers []string, topic string) (*KafkaSender, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSender{writer: w}, nil
}

func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	if _, err := msg.info(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.ToEmail), Value: data}); err != nil {
		return fmt.Errorf("kafka: delivery failed: %w", err)
	}
	return nil
}

func (k *KafkaSender) Close() error {
	return k.writer.Close()
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads email tasks from Kafka and hands them to a Sender.
// A task that fails to deliver is logged and committed; there is no retry.
type Consumer struct {
	reader kafkaReader
	sender Sender
}

func NewConsumer(brokers []string, topic, groupID string, sender Sender) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Consumer{reader: r, sender: sender}
}

func (c *Consumer) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "mailer.consumer")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: fetch failed: %w", err)
		}

		c.handle(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.Error("commit_failed", "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	l := logging.FromContext(ctx).With("svc", "mailer.consumer", "partition", m.Partition, "offset", m.Offset)

	var msg Message
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		l.Error("task_decode_failed", "error", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := c.sender.Send(sendCtx, msg); err != nil {
		l.Error("email_send_failed", "flavor", string(msg.Flavor), "error", err)
		return
	}
	l.Info("email_sent", "flavor", string(msg.Flavor))
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

package kafka

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler return nil hanya kalau proses sukses & offset boleh di-commit.
type Handler func(ctx context.Context, m kafka.Message) error

const maxAttempts = 3

type dlqWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Consumer struct {
	r          *kafka.Reader
	dlq        dlqWriter
	workers    int
	retryDelay time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r: r,
		dlq: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic + ".dlq",
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		workers:    workers,
		retryDelay: 200 * time.Millisecond,
	}
}

// handleOne: retry terbatas, lalu parkir ke DLQ. Return true kalau offset
// boleh di-commit — pesan gagal tidak pernah dilewati diam-diam: commit
// hanya terjadi setelah sukses atau setelah pesan aman di DLQ.
func (c *Consumer) handleOne(ctx context.Context, m kafka.Message, h Handler) (bool, error) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = h(ctx, m); err == nil {
			return true, nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	dead := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "x-dlq-reason", Value: []byte(err.Error())}),
	}
	if derr := c.dlq.WriteMessages(ctx, dead); derr != nil {
		// gagal parkir: jangan commit, biar dibaca ulang nanti
		return false, derr
	}
	log.Printf("kafka: topic=%s partition=%d offset=%d parked to dlq: %v",
		m.Topic, m.Partition, m.Offset, err)
	return true, nil
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()
	if w, ok := c.dlq.(*kafka.Writer); ok {
		defer w.Close()
	}

	jobs := make(chan kafka.Message, 1024)
	errs := make(chan error, c.workers)

	for i := 0; i < c.workers; i++ {
		go func() {
			for m := range jobs {
				ok, err := c.handleOne(ctx, m, h)
				if err != nil {
					errs <- err
				}
				if !ok {
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					errs <- err
				}
			}
		}()
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			// jangan berisik saat shutdown normal
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}

		// drain error non-blocking biar tidak deadlock
		select {
		case e := <-errs:
			log.Printf("worker error: %v", e)
			time.Sleep(200 * time.Millisecond) // backoff ringan
		default:
		}
	}
}

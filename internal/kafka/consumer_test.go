package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type dlqRecorder struct {
	msgs []kafka.Message
	err  error
}

func (d *dlqRecorder) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if d.err != nil {
		return d.err
	}
	d.msgs = append(d.msgs, msgs...)
	return nil
}

func testConsumer(dlq dlqWriter) *Consumer {
	return &Consumer{dlq: dlq, workers: 1, retryDelay: time.Millisecond}
}

func TestHandleOneCommitsOnSuccess(t *testing.T) {
	rec := &dlqRecorder{}
	c := testConsumer(rec)

	calls := 0
	ok, err := c.handleOne(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected commit after success")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(rec.msgs) != 0 {
		t.Fatalf("dlq got %d messages, want 0", len(rec.msgs))
	}
}

func TestHandleOneParksFailedMessage(t *testing.T) {
	rec := &dlqRecorder{}
	c := testConsumer(rec)

	calls := 0
	m := kafka.Message{Key: []byte("order-1"), Value: []byte(`{"broken":`)}
	ok, err := c.handleOne(context.Background(), m, func(context.Context, kafka.Message) error {
		calls++
		return errors.New("bad payload")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected commit after message parked to dlq")
	}
	if calls != maxAttempts {
		t.Fatalf("calls = %d, want %d", calls, maxAttempts)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("dlq got %d messages, want 1", len(rec.msgs))
	}
	dead := rec.msgs[0]
	if string(dead.Key) != "order-1" || string(dead.Value) != string(m.Value) {
		t.Fatalf("dlq message does not carry original key/value: %+v", dead)
	}
	found := false
	for _, h := range dead.Headers {
		if h.Key == "x-dlq-reason" && string(h.Value) == "bad payload" {
			found = true
		}
	}
	if !found {
		t.Fatal("dlq message missing x-dlq-reason header")
	}
}

func TestHandleOneHoldsOffsetWhenDLQUnavailable(t *testing.T) {
	rec := &dlqRecorder{err: errors.New("dlq down")}
	c := testConsumer(rec)

	ok, err := c.handleOne(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		return errors.New("bad payload")
	})
	if ok {
		t.Fatal("offset must not be committed when the dlq write fails")
	}
	if err == nil {
		t.Fatal("expected dlq error to surface")
	}
}

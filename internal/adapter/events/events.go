// Package events publishes goal notifications to Kafka, or to the log when no
// brokers are configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"hydration/internal/domain"
)

// DefaultTopic receives goal-reached events.
const DefaultTopic = "hydration.goal-reached"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per reached goal, keyed by user so events
// of a user land on the same partition.
type KafkaNotifier struct {
	w   messageWriter
	log *slog.Logger
}

var _ domain.GoalNotifier = (*KafkaNotifier)(nil)

// Delivery bounds for the synchronous writer. A single event never fills a
// batch, so the batch timeout is what a caller actually waits on.
const (
	batchTimeout = 10 * time.Millisecond
	ioTimeout    = 5 * time.Second
	maxAttempts  = 3
	backoffMax   = 250 * time.Millisecond
)

// NewKafkaNotifier creates a synchronous writer for topic with bounded
// batching, I/O timeouts and retries.
func NewKafkaNotifier(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		ReadTimeout:            ioTimeout,
		WriteTimeout:           ioTimeout,
		MaxAttempts:            maxAttempts,
		WriteBackoffMax:        backoffMax,
	}
	return &KafkaNotifier{w: w, log: log}
}

// NotifyGoalReached publishes ev.
func (n *KafkaNotifier) NotifyGoalReached(ctx context.Context, ev domain.GoalReached) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("goal_reached")},
		},
	}
	if err := n.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish goal reached: %w", err)
	}
	n.log.Debug("goal notification published", "user_id", ev.UserID, "day", ev.Day)
	return nil
}

// Close flushes and releases the writer.
func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}

// LogNotifier logs goal events instead of publishing them.
type LogNotifier struct {
	log *slog.Logger
}

var _ domain.GoalNotifier = LogNotifier{}

// NewLogNotifier returns a notifier writing to log.
func NewLogNotifier(log *slog.Logger) LogNotifier {
	return LogNotifier{log: log}
}

func (n LogNotifier) NotifyGoalReached(_ context.Context, ev domain.GoalReached) error {
	n.log.Info("daily goal reached",
		"user_id", ev.UserID,
		"day", ev.Day,
		"total_ml", ev.TotalML,
		"goal_ml", ev.GoalML,
	)
	return nil
}

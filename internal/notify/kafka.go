package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Producer is the slice of the kafka producer the notifier needs.
type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error
}

const publishRetries = 3

// KafkaNotifier publishes notification events to the notifications topic,
// keyed by recipient so per-user ordering is preserved.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

func NewKafkaNotifier(producer Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, userID uuid.UUID, notification Notification) error {
	if n.producer == nil || n.topic == "" {
		return nil
	}
	event := Event{
		UserID:    userID,
		Kind:      notification.Kind,
		Title:     notification.Title,
		Message:   notification.Message,
		Link:      notification.Link,
		CreatedAt: time.Now(),
	}
	return n.producer.PublishWithRetry(ctx, n.topic, userID.String(), event, publishRetries)
}

var _ Notifier = (*KafkaNotifier)(nil)

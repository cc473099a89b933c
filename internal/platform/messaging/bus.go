package messaging

import (
	"context"
	"log/slog"
	"sync"

	"univote/contexts/campus-elections/election-service/ports"
)

const subscriberBuffer = 128

type subscription struct {
	group string
	ch    chan ports.EventEnvelope
}

// Bus is the in-process publish/subscribe bus the outbox relay publishes to.
// Topics are event types. Brokers are accepted so the constructor matches a
// networked bus; delivery never leaves the process.
type Bus struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]subscription
	logger      *slog.Logger
}

func NewBus(brokers []string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}
}

// Publish fans the event out to every subscriber of topic. A subscriber whose
// buffer is full loses the event; the drop is logged.
func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Info("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscribers", len(subs),
	)
	return nil
}

// Subscribe runs handler for every event on topic until ctx is cancelled.
// Handler errors are logged and do not stop the subscription.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	sub := subscription{group: consumerGroup, ch: make(chan ports.EventEnvelope, subscriberBuffer)}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.unsubscribe(topic, sub.ch)
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) Brokers() []string {
	return append([]string(nil), b.brokers...)
}

func (b *Bus) unsubscribe(topic string, target chan ports.EventEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subscribers[topic]
	kept := current[:0]
	for _, sub := range current {
		if sub.ch != target {
			kept = append(kept, sub)
		}
	}
	if len(kept) == 0 {
		delete(b.subscribers, topic)
		return
	}
	b.subscribers[topic] = kept
}

var _ ports.EventPublisher = (*Bus)(nil)

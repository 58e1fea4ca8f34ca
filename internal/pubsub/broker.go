// Package pubsub implements an in-process event broker for server-push
// notifications. Fan-out is per topic and single-process only; multi-instance
// deployments would need an external broker instead.
package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/libraryapp/library-server/internal/id"
)

// TopicBookAdded carries a *store.BookWithAuthor payload for every newly
// catalogued book. The name is part of the wire contract with subscription
// clients.
const TopicBookAdded = "BOOK_ADDED"

var (
	subscriberGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "library_pubsub_subscribers",
		Help: "Number of active subscribers per topic.",
	}, []string{"topic"})

	droppedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_pubsub_dropped_events_total",
		Help: "Events dropped because a subscriber's queue was full.",
	}, []string{"topic"})
)

// Broker fans out published events to all current subscribers of a topic.
// Delivery is in publish order. Each subscriber has a bounded queue; a
// subscriber that stops draining loses events rather than growing the
// queue without limit.
type Broker struct {
	logger *slog.Logger
	topics map[string]map[string]chan any
	buffer int
	mu     sync.RWMutex
}

// NewBroker creates a broker whose subscribers buffer up to buffer events.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		logger: logger,
		topics: make(map[string]map[string]chan any),
		buffer: buffer,
	}
}

// Publish delivers payload to every current subscriber of topic.
// Subscribers whose queue is full miss the event.
func (b *Broker) Publish(topic string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subID, ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default:
			droppedCounter.WithLabelValues(topic).Inc()
			b.logger.Warn("dropping event for slow subscriber",
				"topic", topic,
				"subscriber", subID,
				"queue_size", b.buffer)
		}
	}
}

// Subscribe registers a new subscriber on topic and returns its event
// channel. The subscription lives until ctx is done, at which point the
// channel is closed.
func (b *Broker) Subscribe(ctx context.Context, topic string) <-chan any {
	ch := make(chan any, b.buffer)
	subID := id.MustGenerate("sub")

	b.mu.Lock()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string]chan any)
	}
	b.topics[topic][subID] = ch
	b.mu.Unlock()

	subscriberGauge.WithLabelValues(topic).Inc()
	b.logger.Debug("subscriber added", "topic", topic, "subscriber", subID)

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, subID)
	}()

	return ch
}

// SubscriberCount returns the number of active subscribers on topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// unsubscribe removes a subscriber and closes its channel. Removal happens
// under the write lock, so no publish can be sending on the channel when
// it is closed.
func (b *Broker) unsubscribe(topic, subID string) {
	b.mu.Lock()
	ch, ok := b.topics[topic][subID]
	if ok {
		delete(b.topics[topic], subID)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
	}
	b.mu.Unlock()

	if ok {
		close(ch)
		subscriberGauge.WithLabelValues(topic).Dec()
		b.logger.Debug("subscriber removed", "topic", topic, "subscriber", subID)
	}
}

// Package notify fans out order and balance changes to subscribed surfaces.
//
// Events are change signals, not diffs: a subscriber that receives one re-reads the
// full current snapshot through Pull. Delivery is best effort per subscriber; when a
// subscriber's buffer is full the oldest pending signal is dropped, which loses nothing
// because the next Pull returns the latest state anyway.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	KindOrderCreated = "order.created"
	KindOrderStatus  = "order.status"
	KindBalance      = "loyalty.balance"
)

var ErrNoPuller = errors.New("no snapshot source for topic")

type Event struct {
	Topic  string    `json:"topic"`
	Kind   string    `json:"kind"`
	Ref    string    `json:"ref,omitempty"`
	Status string    `json:"status,omitempty"`
	At     time.Time `json:"at"`
}

func OrderTopic(orderID string) string { return "order:" + orderID }
func ShopTopic(shopID string) string { return "shop:" + shopID }
func CustomerTopic(customerID string) string { return "customer:" + customerID }

// SplitTopic returns the topic's kind ("order", "shop", "customer") and id.
func SplitTopic(topic string) (kind, id string) {
	kind, id, _ = strings.Cut(topic, ":")
	return kind, id
}

type Publisher interface {
	Publish(ev Event)
}

// PullFunc returns the full current snapshot for an id of one topic kind.
type PullFunc func(ctx context.Context, id string) (any, error)

type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	pullers map[string]PullFunc
	buffer  int
	log     *zap.Logger
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:    make(map[string]map[*Subscription]struct{}),
		pullers: make(map[string]PullFunc),
		buffer:  buffer,
		log:     log.Named("notify"),
	}
}

type Subscription struct {
	Topic string
	ch    chan Event
	hub   *Hub
	once  sync.Once
}

// C delivers change signals until Close.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.Topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.Topic)
			}
		}
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (h *Hub) Subscribe(topic string) *Subscription {
	s := &Subscription{Topic: topic, ch: make(chan Event, h.buffer), hub: h}
	h.mu.Lock()
	set, ok := h.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[topic] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish never blocks the caller.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.Topic] {
		for {
			select {
			case s.ch <- ev:
			default:
				select {
				case <-s.ch:
					h.log.Debug("subscriber lagging, dropped oldest signal", zap.String("topic", ev.Topic))
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribers reports how many subscriptions a topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) RegisterPuller(kind string, fn PullFunc) {
	h.mu.Lock()
	h.pullers[kind] = fn
	h.mu.Unlock()
}

// Pull returns the current snapshot for a topic.
func (h *Hub) Pull(ctx context.Context, topic string) (any, error) {
	kind, id := SplitTopic(topic)
	h.mu.RLock()
	fn, ok := h.pullers[kind]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrNoPuller
	}
	return fn(ctx, id)
}

// Package events is the in-process change-notification fan-out that
// drives the reactive reorder views. Publishers fire and forget; slow
// subscribers lose intermediate events, which is fine because every
// consumer recomputes from storage instead of replaying deltas.
package events

import (
	"sync"
	"time"
)

type Topic string

const (
	TopicThreshold Topic = "threshold"
	TopicInventory Topic = "inventory"
	TopicOrder     Topic = "order"
)

type Event struct {
	Topic       Topic     `json:"topic"`
	CategoryKey string    `json:"category_key"`
	ItemKey     string    `json:"item_key"`
	SubItemKey  string    `json:"sub_item_key"`
	WeightKey   string    `json:"weight_key"`
	At          time.Time `json:"at"`
}

type subscriber struct {
	topics map[Topic]bool
	ch     chan Event
}

type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Subscribe returns a channel receiving events for the given topics
// (all topics when none given) and a cancel function. Cancel closes the
// channel and releases the subscription.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var filter map[Topic]bool
	if len(topics) > 0 {
		filter = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			filter[t] = true
		}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = subscriber{topics: filter, ch: ch}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every matching subscriber without
// blocking. A full subscriber buffer drops the event.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.topics != nil && !s.topics[ev.Topic] {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

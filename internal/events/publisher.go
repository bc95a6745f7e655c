// Package events provides the in-process listener plumbing shared by the
// coordinators, the watch engine, and the settings store: topic-keyed
// subscriptions with per-handler error isolation.
package events

import (
	"sync"

	"github.com/viewfinder/viewfinder/internal/logger"
)

// Handler receives a published payload. A handler error is logged and
// counted; it never prevents delivery to the remaining handlers.
type Handler func(payload any) error

// Subscription detaches a handler from its topic.
type Subscription interface {
	Unsubscribe()
}

// Publisher fans notifications out to subscribed handlers. Publish runs on
// the caller's goroutine; handlers are invoked outside the registry lock so
// they may subscribe or unsubscribe reentrantly.
type Publisher struct {
	log    *logger.Logger
	mu     sync.RWMutex
	subs   map[string][]subscriptionEntry
	nextID int
}

type subscriptionEntry struct {
	id      int
	handler Handler
}

// NewPublisher creates a publisher that logs handler failures through log.
func NewPublisher(log *logger.Logger) *Publisher {
	return &Publisher{
		log:  log.WithComponent("events"),
		subs: make(map[string][]subscriptionEntry),
	}
}

// Publish delivers payload to every handler subscribed to topic and reports
// how many handlers succeeded and how many failed.
func (p *Publisher) Publish(topic string, payload any) (succeeded, failed int) {
	if p == nil {
		return 0, 0
	}

	p.mu.RLock()
	handlers := append([]subscriptionEntry(nil), p.subs[topic]...)
	p.mu.RUnlock()

	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if err := entry.handler(payload); err != nil {
			failed++
			p.log.Warn("listener failed", "topic", topic, "error", err.Error())
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

// Subscribe registers a handler for the given topic.
func (p *Publisher) Subscribe(topic string, handler Handler) Subscription {
	if p == nil || handler == nil {
		return noopSubscription{}
	}

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[topic] = append(p.subs[topic], subscriptionEntry{id: id, handler: handler})
	p.mu.Unlock()

	return subscription{cancel: func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		handlers := p.subs[topic]
		for i, entry := range handlers {
			if entry.id == id {
				p.subs[topic] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}}
}

// SubscriberCount returns the number of handlers attached to topic.
func (p *Publisher) SubscriberCount(topic string) int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[topic])
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

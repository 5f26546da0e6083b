package sse

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

const subscriberBuffer = 16

// Event is a message pushed to live feed subscribers
type Event struct {
	TenantID string
	Event    string
	Data     interface{}
}

// Hub fans attendance events out to subscribers of the same tenant
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for tenantID and returns its channel and cleanup function
func (h *Hub) Subscribe(tenantID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.subscribers[tenantID] == nil {
		h.subscribers[tenantID] = make(map[chan Event]struct{})
	}
	h.subscribers[tenantID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[tenantID], ch)
			close(ch)
			if len(h.subscribers[tenantID]) == 0 {
				delete(h.subscribers, tenantID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends event to every subscriber of its tenant. Slow subscribers miss events.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.TenantID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishEvent implements siteattendance.EventPublisher.
func (h *Hub) PublishEvent(ctx context.Context, tenantID string, event siteattendance.EventResponse) {
	h.Publish(Event{
		TenantID: tenantID,
		Event:    "attendance_event",
		Data:     event,
	})
}

// SubscriberCount returns the number of active subscribers for a tenant
func (h *Hub) SubscriberCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[tenantID])
}

package events

import (
	"sync"
)

// AllTenants is the special tenant ID for subscribing to every tenant's
// events. Intended for operator and debug streams, never for client fanout.
const AllTenants = "*"

// Publisher defines the interface for event publishing. Channel scoping is
// by tenant: subscribers only ever observe events published for their own
// tenant ID.
type Publisher interface {
	// Publish sends an event to all subscribers of the event's tenant.
	Publish(event Event)
	// Subscribe returns a channel that receives events for the given tenant.
	// Use AllTenants ("*") to receive events for all tenants.
	Subscribe(tenantID string) <-chan Event
	// Unsubscribe removes a subscription channel.
	Unsubscribe(tenantID string, ch <-chan Event)
	// Close shuts down the publisher and all subscriptions.
	Close()
}

// MemoryPublisher is an in-memory implementation of Publisher.
type MemoryPublisher struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
}

// PublisherOption configures a MemoryPublisher.
type PublisherOption func(*MemoryPublisher)

// WithBufferSize sets the channel buffer size for subscribers.
func WithBufferSize(size int) PublisherOption {
	return func(p *MemoryPublisher) {
		p.bufferSize = size
	}
}

// NewMemoryPublisher creates a new in-memory publisher.
func NewMemoryPublisher(opts ...PublisherOption) *MemoryPublisher {
	p := &MemoryPublisher{
		subscribers: make(map[string][]chan Event),
		bufferSize:  100, // Default buffer size
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends an event to all subscribers of the event's tenant.
// Also sends to AllTenants subscribers.
// Non-blocking: skips subscribers with full buffers.
func (p *MemoryPublisher) Publish(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	// Send to tenant-specific subscribers
	subs := p.subscribers[event.TenantID]
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Skip if channel buffer is full (non-blocking)
		}
	}

	// Also send to global subscribers (if not already a global subscription)
	if event.TenantID != AllTenants {
		globalSubs := p.subscribers[AllTenants]
		for _, ch := range globalSubs {
			select {
			case ch <- event:
			default:
				// Skip if channel buffer is full (non-blocking)
			}
		}
	}
}

// Subscribe returns a channel that receives events for the given tenant.
func (p *MemoryPublisher) Subscribe(tenantID string) <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		// Return closed channel if publisher is closed
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, p.bufferSize)
	p.subscribers[tenantID] = append(p.subscribers[tenantID], ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (p *MemoryPublisher) Unsubscribe(tenantID string, ch <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subscribers[tenantID]
	for i, sub := range subs {
		if sub == ch {
			p.subscribers[tenantID] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}

	// Clean up empty tenant entries
	if len(p.subscribers[tenantID]) == 0 {
		delete(p.subscribers, tenantID)
	}
}

// Close shuts down the publisher and closes all subscription channels.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	for tenantID, subs := range p.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(p.subscribers, tenantID)
	}
}

// SubscriberCount returns the number of subscribers for a tenant.
func (p *MemoryPublisher) SubscriberCount(tenantID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers[tenantID])
}

// NopPublisher is a no-op publisher for testing or when events are disabled.
type NopPublisher struct{}

// Publish does nothing.
func (p *NopPublisher) Publish(event Event) {}

// Subscribe returns a closed channel.
func (p *NopPublisher) Subscribe(tenantID string) <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Unsubscribe does nothing.
func (p *NopPublisher) Unsubscribe(tenantID string, ch <-chan Event) {}

// Close does nothing.
func (p *NopPublisher) Close() {}

// NewNopPublisher creates a no-op publisher.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

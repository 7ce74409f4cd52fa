package events

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	before := time.Now()
	event := NewEvent(EventTaskCreated, "board-1", "acme", map[string]string{"title": "T1"})
	after := time.Now()

	if event.Type != EventTaskCreated {
		t.Errorf("expected type %s, got %s", EventTaskCreated, event.Type)
	}
	if event.BoardID != "board-1" {
		t.Errorf("expected board ID board-1, got %s", event.BoardID)
	}
	if event.TenantID != "acme" {
		t.Errorf("expected tenant ID acme, got %s", event.TenantID)
	}
	if event.Time.Before(before) || event.Time.After(after) {
		t.Errorf("event time %v not between %v and %v", event.Time, before, after)
	}
}

func TestMemoryPublisher_PublishAndSubscribe(t *testing.T) {
	pub := NewMemoryPublisher()
	defer pub.Close()

	ch := pub.Subscribe("acme")

	event := NewEvent(EventTaskUpdated, "board-1", "acme", "payload")
	pub.Publish(event)

	select {
	case received := <-ch:
		if received.Type != EventTaskUpdated {
			t.Errorf("expected type %s, got %s", EventTaskUpdated, received.Type)
		}
		if received.BoardID != "board-1" {
			t.Errorf("expected board ID board-1, got %s", received.BoardID)
		}
		if received.Payload != "payload" {
			t.Errorf("expected payload 'payload', got %v", received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestMemoryPublisher_TenantIsolation(t *testing.T) {
	pub := NewMemoryPublisher()
	defer pub.Close()

	acme := pub.Subscribe("acme")
	globex := pub.Subscribe("globex")

	pub.Publish(NewEvent(EventTaskCreated, "board-1", "acme", nil))

	select {
	case <-acme:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("acme subscriber did not receive its tenant's event")
	}

	select {
	case ev := <-globex:
		t.Errorf("globex subscriber received another tenant's event: %v", ev)
	default:
	}
}

func TestMemoryPublisher_AllTenants(t *testing.T) {
	pub := NewMemoryPublisher()
	defer pub.Close()

	global := pub.Subscribe(AllTenants)

	pub.Publish(NewEvent(EventBoardCreated, "board-1", "acme", nil))
	pub.Publish(NewEvent(EventBoardCreated, "board-2", "globex", nil))

	for i := 0; i < 2; i++ {
		select {
		case <-global:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("global subscriber missed event %d", i)
		}
	}
}

func TestMemoryPublisher_NonBlockingWhenBufferFull(t *testing.T) {
	pub := NewMemoryPublisher(WithBufferSize(1))
	defer pub.Close()

	_ = pub.Subscribe("acme")

	// The subscriber never drains; publishing must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			pub.Publish(NewEvent(EventTaskUpdated, "board-1", "acme", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestMemoryPublisher_Unsubscribe(t *testing.T) {
	pub := NewMemoryPublisher()
	defer pub.Close()

	ch := pub.Subscribe("acme")
	if got := pub.SubscriberCount("acme"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	pub.Unsubscribe("acme", ch)
	if got := pub.SubscriberCount("acme"); got != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", got)
	}

	// The channel is closed by Unsubscribe.
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestMemoryPublisher_Close(t *testing.T) {
	pub := NewMemoryPublisher()

	ch := pub.Subscribe("acme")
	pub.Close()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after Close")
	}

	// Publishing and subscribing after Close are safe no-ops.
	pub.Publish(NewEvent(EventTaskCreated, "board-1", "acme", nil))
	late := pub.Subscribe("acme")
	if _, ok := <-late; ok {
		t.Error("expected closed channel from Subscribe after Close")
	}
}

func TestNopPublisher(t *testing.T) {
	pub := NewNopPublisher()
	defer pub.Close()

	ch := pub.Subscribe("acme")
	pub.Publish(NewEvent(EventTaskCreated, "board-1", "acme", nil))

	if _, ok := <-ch; ok {
		t.Error("expected closed channel from NopPublisher")
	}
	pub.Unsubscribe("acme", ch)
}

package events

import (
	"sync"
	"testing"
)

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()

	type TestEvent struct {
		Message string
		Value   int
	}

	var receivedEvent *TestEvent
	var wg sync.WaitGroup
	wg.Add(1)

	err := bus.Subscribe("test.event", func(event interface{}) {
		defer wg.Done()
		if testEvent, ok := event.(*TestEvent); ok {
			receivedEvent = testEvent
		}
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	testEvent := &TestEvent{
		Message: "extraction finished",
		Value:   42,
	}

	err = bus.Publish("test.event", testEvent)
	if err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	wg.Wait()

	if receivedEvent == nil {
		t.Fatal("Event was not received")
	}
	if receivedEvent.Message != "extraction finished" {
		t.Errorf("Expected message 'extraction finished', got '%s'", receivedEvent.Message)
	}
	if receivedEvent.Value != 42 {
		t.Errorf("Expected value 42, got %d", receivedEvent.Value)
	}
}

func TestMemoryEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()

	var count1, count2 int
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe("multi.event", func(event interface{}) {
		defer wg.Done()
		count1++
	})
	bus.Subscribe("multi.event", func(event interface{}) {
		defer wg.Done()
		count2++
	})

	bus.Publish("multi.event", "test")
	wg.Wait()

	if count1 != 1 {
		t.Errorf("Expected count1 to be 1, got %d", count1)
	}
	if count2 != 1 {
		t.Errorf("Expected count2 to be 1, got %d", count2)
	}
}

func TestMemoryEventBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()

	// Publishing to a type with no subscribers should not error
	err := bus.Publish("non.existent", "test")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestMemoryEventBus_NilHandler(t *testing.T) {
	bus := NewMemoryEventBus()

	if err := bus.Subscribe("nil.handler", nil); err == nil {
		t.Error("Expected error subscribing nil handler")
	}
}

func TestMemoryEventBus_GetSubscriberCount(t *testing.T) {
	bus := NewMemoryEventBus()

	if count := bus.GetSubscriberCount("count.test"); count != 0 {
		t.Errorf("Expected 0 subscribers, got %d", count)
	}

	bus.Subscribe("count.test", func(event interface{}) {})
	bus.Subscribe("count.test", func(event interface{}) {})

	if count := bus.GetSubscriberCount("count.test"); count != 2 {
		t.Errorf("Expected 2 subscribers, got %d", count)
	}
}

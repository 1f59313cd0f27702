package stream

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub := NewHub(nil)
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelA()
	defer cancelB()

	hub.Publish(PriceUpdate{OpportunityID: 1, Price: decimal.NewFromInt(110)})

	for _, ch := range []<-chan PriceUpdate{a, b} {
		select {
		case update := <-ch:
			if update.OpportunityID != 1 {
				t.Fatalf("update=%+v", update)
			}
		default:
			t.Fatalf("subscriber did not receive update")
		}
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil)
	_, cancel := hub.Subscribe()
	defer cancel()

	// Publish past the buffer; must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(PriceUpdate{OpportunityID: uint64(i)})
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("count=%d want 1", hub.SubscriberCount())
	}
	cancel()
	if hub.SubscriberCount() != 0 {
		t.Fatalf("count=%d want 0", hub.SubscriberCount())
	}
	if _, open := <-ch; open {
		t.Fatalf("channel should be closed")
	}
	// Double cancel is safe.
	cancel()
}

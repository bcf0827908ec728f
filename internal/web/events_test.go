package web

import (
	"testing"
	"time"
)

func TestEventBroker_SubscribePublish(t *testing.T) {
	b := newEventBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventRefresh, Projects: 3})

	select {
	case ev := <-ch:
		if ev.Projects != 3 {
			t.Errorf("Projects = %d, want 3", ev.Projects)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected event on subscriber channel")
	}
}

func TestEventBroker_MultipleSubscribers(t *testing.T) {
	b := newEventBroker()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish(Event{Type: EventRefresh})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d: expected event", i)
		}
	}
}

func TestEventBroker_LatestEventWins(t *testing.T) {
	b := newEventBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 1; i <= 5; i++ {
		b.Publish(Event{Type: EventRefresh, Projects: i})
	}

	ev := <-ch
	if ev.Projects != 5 {
		t.Errorf("Projects = %d, want the latest (5)", ev.Projects)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected second event %+v", extra)
	default:
	}
}

func TestEventBroker_Unsubscribe(t *testing.T) {
	b := newEventBroker()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	b.Publish(Event{Type: EventRefresh})

	select {
	case <-ch:
		t.Fatal("unsubscribed channel should not receive")
	default:
	}
}

package realtime

import (
	"context"
	"testing"
	"time"

	"shooterstats/core"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	id1, ch1 := h.Subscribe(4)
	_, ch2 := h.Subscribe(4)
	defer h.Unsubscribe(id1)

	h.Broadcast(context.Background(), core.NewHighScore(7, 500, 100))

	for _, ch := range []<-chan core.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != core.EventHighScore || ev.UserID != 7 {
				t.Fatalf("wrong event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed broadcast")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)
	h.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Fatal("channel must close on unsubscribe")
	}
	// broadcast after unsubscribe must not panic
	h.Broadcast(context.Background(), core.Event{Type: core.EventGameRecorded})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Broadcast(context.Background(), core.Event{Type: core.EventGameRecorded})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	if len(ch) != 1 {
		t.Fatalf("buffer should hold exactly one event, has %d", len(ch))
	}
}

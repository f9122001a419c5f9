package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the very next event, failing on timeout.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func expectNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v %+v", ev.Kind, ev)
	case <-time.After(wait):
	}
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(opts...)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(ConnID(id), "", "", 16)
	if err := hub.RegisterClient(c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return c
}

func join(t *testing.T, c *Client, room, name string) *Event {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room, Name: name}
	ev := nextEvent(t, c.Events)
	if ev.Kind != EventExistingMembers {
		t.Fatalf("expected existing_members, got %v %+v", ev.Kind, ev)
	}
	return ev
}

package realtime

import (
	"testing"
)

func testClient(hub *Hub, userID string) *Client {
	c := &Client{
		UserID: userID,
		hub:    hub,
		send:   make(chan Envelope, 2),
		rooms:  make(map[string]struct{}),
	}
	hub.Join(c, UserRoom(userID))
	return c
}

func TestHub_PublishReachesRoomMembers(t *testing.T) {
	hub := NewHub(nil)
	a := testClient(hub, "1")
	b := testClient(hub, "2")

	hub.Publish(UserRoom("1"), "notification", "hello")

	select {
	case env := <-a.send:
		if env.Event != "notification" || env.Data != "hello" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	default:
		t.Fatalf("client in room must receive the frame")
	}
	select {
	case env := <-b.send:
		t.Fatalf("client outside the room must not receive: %+v", env)
	default:
	}
}

func TestHub_GreenhouseSubscription(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "1")

	hub.Join(c, GreenhouseRoom("gh-1"))
	hub.Publish(GreenhouseRoom("gh-1"), "pump-activated", map[string]any{"operation_id": "op-1"})
	if len(c.send) != 1 {
		t.Fatalf("expected one frame after subscribing")
	}

	hub.Leave(c, GreenhouseRoom("gh-1"))
	hub.Publish(GreenhouseRoom("gh-1"), "pump-activated", nil)
	if len(c.send) != 1 {
		t.Fatalf("no frame expected after unsubscribing")
	}
}

func TestHub_FullBufferDropsFrame(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "1")

	// fill the buffer, then publish once more
	hub.Publish(UserRoom("1"), "notification", 1)
	hub.Publish(UserRoom("1"), "notification", 2)
	hub.Publish(UserRoom("1"), "notification", 3) // dropped, must not block

	if len(c.send) != 2 {
		t.Fatalf("expected buffer capacity frames, got %d", len(c.send))
	}
}

func TestHub_RemoveDetachesAndCloses(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "1")
	hub.Join(c, GreenhouseRoom("gh-1"))

	hub.Remove(c)
	if hub.Clients(UserRoom("1")) != 0 || hub.Clients(GreenhouseRoom("gh-1")) != 0 {
		t.Fatalf("removed client must leave every room")
	}
	if _, ok := <-c.send; ok {
		t.Fatalf("send channel must be closed")
	}

	// second Remove is a no-op, must not panic on double close
	hub.Remove(c)
}

package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestBroadcastDocumentReachesOwnerOnly(t *testing.T) {
	hub := NewHub()
	owner := &Client{send: make(chan []byte, 1)}
	other := &Client{send: make(chan []byte, 1)}
	hub.Register("user-1", owner)
	hub.Register("user-2", other)

	hub.BroadcastDocument("user-1", DocumentEvent{Type: EventStatus, DocumentID: "doc-1", Status: "paid"})

	select {
	case payload := <-owner.send:
		var event DocumentEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if event.Type != EventStatus || event.DocumentID != "doc-1" || event.Status != "paid" || event.At.IsZero() {
			t.Fatalf("unexpected event: %#v", event)
		}
	default:
		t.Fatal("expected owner to receive event")
	}
	select {
	case <-other.send:
		t.Fatal("other user must not receive event")
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 1)}
	hub.Register("user-1", client)
	hub.BroadcastDocument("user-1", DocumentEvent{Type: EventCreated})
	hub.BroadcastDocument("user-1", DocumentEvent{Type: EventUpdated})
	if len(client.send) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(client.send))
	}
}

func TestUnregister(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 1)}
	hub.Register("user-1", client)
	if hub.connections("user-1") != 1 {
		t.Fatal("expected one connection")
	}
	hub.Unregister("user-1", client)
	hub.Unregister("user-1", client)
	if hub.connections("user-1") != 0 {
		t.Fatal("expected no connections")
	}
	var nilHub *Hub
	nilHub.BroadcastDocument("user-1", DocumentEvent{})
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"https://app.test"})
	req := httptest.NewRequest("GET", "/ws/documents", nil)
	if !check(req) {
		t.Fatal("expected request without origin to pass")
	}
	req.Header.Set("Origin", "https://app.test")
	if !check(req) {
		t.Fatal("expected listed origin to pass")
	}
	req.Header.Set("Origin", "https://evil.test")
	if check(req) {
		t.Fatal("expected unlisted origin to be rejected")
	}
	if !OriginChecker([]string{"*"})(req) {
		t.Fatal("expected wildcard to allow any origin")
	}
}

package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, parentID int64) *Client {
	return &Client{
		hub:      hub,
		parentID: parentID,
		send:     make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	c3 := mockClient(hub, 2)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}
	if got := hub.ParentClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients for parent 1, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ParentClientCount(1); got != 1 {
		t.Fatalf("expected 1 client for parent 1 after unregister, got %d", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c3)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToParent(t *testing.T) {
	hub := NewHub(slog.Default())

	mine1 := mockClient(hub, 1)
	mine2 := mockClient(hub, 1)
	other := mockClient(hub, 2)
	hub.Register(mine1)
	hub.Register(mine2)
	hub.Register(other)

	hub.Broadcast(1, NewMessage("task_log", "approved", 42, map[string]any{"kid_id": float64(3)}))

	for _, c := range []*Client{mine1, mine2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "task_log_approved" {
				t.Errorf("expected type task_log_approved, got %s", got.Type)
			}
			if got.ID != 42 {
				t.Errorf("expected id 42, got %d", got.ID)
			}
			if got.Extra["kid_id"] != float64(3) {
				t.Errorf("expected kid_id 3, got %v", got.Extra["kid_id"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case <-other.send:
		t.Error("other parent should not receive the message")
	default:
	}
}

func TestBroadcastNoClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Broadcast(9, NewMessage("kid", "created", 1, nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(1, NewMessage("test", "fill", int64(i), nil))
	}
	hub.Broadcast(1, NewMessage("test", "dropped", 999, nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d queued messages, got %d", sendBufferSize, got)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("reward", "redeemed", 5, nil)
	if msg.Type != "reward_redeemed" {
		t.Errorf("expected type reward_redeemed, got %s", msg.Type)
	}
	if msg.Entity != "reward" {
		t.Errorf("expected entity reward, got %s", msg.Entity)
	}
	if msg.Action != "redeemed" {
		t.Errorf("expected action redeemed, got %s", msg.Action)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(parentID int64) {
			defer wg.Done()
			c := mockClient(hub, parentID)
			hub.Register(c)
			hub.Broadcast(parentID, NewMessage("test", "concurrent", 0, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i % 3))
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRequiresAuth(t *testing.T) {
	hub := NewHub(slog.Default())
	h := HandleWebSocket(hub, nil, slog.Default())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

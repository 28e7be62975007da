package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healingspace/healingspace/internal/platform/auth"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := NewClient(UserTopic("alice"))

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("user:alice") != 1 {
		t.Fatalf("expected 1 client on user:alice, got %d", hub.TopicCount("user:alice"))
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if _, ok := <-client.Send; ok {
		t.Fatal("expected Send channel to be closed")
	}
}

func TestHub_BroadcastOnlyReachesTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	alice := NewClient(UserTopic("alice"))
	bob := NewClient(UserTopic("bob"))
	hub.Register(alice)
	hub.Register(bob)

	hub.Broadcast(UserTopic("alice"), Event{Type: "notification", Topic: UserTopic("alice")})

	select {
	case msg := <-alice.Send:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "notification" {
			t.Errorf("expected notification, got %s", got.Type)
		}
	default:
		t.Fatal("expected alice to receive the event")
	}

	select {
	case <-bob.Send:
		t.Fatal("bob must not receive alice's event")
	default:
	}
}

func TestHub_BroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := NewClient(UserTopic("alice"))
	hub.Register(client)

	for i := 0; i < sendBuffer+5; i++ {
		hub.Broadcast(UserTopic("alice"), Event{Type: "notification"})
	}
	if len(client.Send) != sendBuffer {
		t.Errorf("expected buffer to hold %d events, got %d", sendBuffer, len(client.Send))
	}
}

func TestHub_PublishStampsTimestamp(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := NewClient(UserTopic("alice"))
	hub.Register(client)

	if err := hub.Publish(context.Background(), Event{Type: "notification", Topic: UserTopic("alice")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got Event
	if err := json.Unmarshal(<-client.Send, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient(UserTopic("alice"))
			hub.Register(c)
			hub.Broadcast(UserTopic("alice"), Event{Type: "notification"})
			hub.Unregister(c)
		}()
	}
	wg.Wait()
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHandler_RequiresIdentity(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), zerolog.Nop(), nil)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/notifications/ws", nil), httptest.NewRecorder())

	err := h.HandleConnect(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_FullUpgradeWithDialer(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	h := NewHandler(hub, zerolog.Nop(), []string{"*"})

	e := echo.New()
	g := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), "test_patient", auth.RoleUser)))
			return next(c)
		}
	})
	h.RegisterRoutes(g)

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/notifications/ws"
	conn, resp, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.TopicCount(UserTopic("test_patient")) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.TopicCount(UserTopic("test_patient")) != 1 {
		t.Fatal("expected client subscribed to user:test_patient")
	}

	data, _ := json.Marshal(map[string]string{"message": "hello"})
	_ = hub.Publish(context.Background(), Event{Type: "notification", Topic: UserTopic("test_patient"), Data: data})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Topic != "user:test_patient" {
		t.Errorf("expected user:test_patient, got %s", received.Topic)
	}
	if !strings.Contains(string(received.Data), "hello") {
		t.Errorf("unexpected data %s", received.Data)
	}
}

func TestHandler_RejectsUnknownOrigin(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), zerolog.Nop(), []string{"https://app.example.org"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if h.upgrader.CheckOrigin(req) {
		t.Error("expected origin to be rejected")
	}
	req.Header.Set("Origin", "https://app.example.org")
	if !h.upgrader.CheckOrigin(req) {
		t.Error("expected origin to be accepted")
	}
}

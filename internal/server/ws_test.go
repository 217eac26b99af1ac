package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/madhubani/internal/menu"
)

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessageOfType reads messages until one of the wanted type arrives,
// skipping interleaved state broadcasts.
func readMessageOfType(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 100; i++ {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON error = %v", err)
		}
		if msg["type"] == want {
			return msg
		}
	}
	t.Fatalf("no %q message received", want)
	return nil
}

func TestEventsHandler_BroadcastsState(t *testing.T) {
	fake := newFakeApp()
	ts := httptest.NewServer(NewEventsHandler(fake))
	defer ts.Close()

	conn := dialEvents(t, ts)

	msg := readMessageOfType(t, conn, "state")

	state, ok := msg["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected state object, got %T", msg["state"])
	}
	if state["mode"] != "idle" {
		t.Errorf("expected mode idle, got %v", state["mode"])
	}
	if _, exists := msg["timestamp"]; !exists {
		t.Error("expected timestamp field")
	}
}

func TestEventsHandler_ClientActions(t *testing.T) {
	fake := newFakeApp()
	ts := httptest.NewServer(NewEventsHandler(fake))
	defer ts.Close()

	conn := dialEvents(t, ts)

	t.Run("settings update is queued", func(t *testing.T) {
		width := 10.0
		if err := conn.WriteJSON(clientMessage{Type: "settings", Update: &menu.Update{Width: &width}}); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		waitFor(t, func() bool { return fake.updateCount() == 1 })
	})

	t.Run("invalid settings get an error reply", func(t *testing.T) {
		bad := "magenta"
		if err := conn.WriteJSON(clientMessage{Type: "settings", Update: &menu.Update{Color: &bad}}); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		msg := readMessageOfType(t, conn, "error")
		if msg["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("close_menu is queued", func(t *testing.T) {
		if err := conn.WriteJSON(clientMessage{Type: "close_menu"}); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		waitFor(t, func() bool { return fake.closeCount() == 1 })
	})

	t.Run("regions replace the layout", func(t *testing.T) {
		regions := []menu.Region{
			{ID: "pen", Type: menu.RegionTool, Value: "pen", Bounds: menu.Rect{W: 40, H: 40}},
		}
		if err := conn.WriteJSON(clientMessage{Type: "regions", Regions: regions}); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		waitFor(t, func() bool { return len(fake.Regions()) == 1 })
	})

	t.Run("unknown type gets an error reply", func(t *testing.T) {
		if err := conn.WriteJSON(clientMessage{Type: "reboot"}); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		readMessageOfType(t, conn, "error")
	})
}

func TestEventsHandler_PushesSelections(t *testing.T) {
	fake := newFakeApp()
	ts := httptest.NewServer(NewEventsHandler(fake))
	defer ts.Close()

	conn := dialEvents(t, ts)

	// Wait for the first broadcast so registration is observable.
	readMessageOfType(t, conn, "state")

	if fake.onSelect == nil {
		t.Fatal("expected selection callback registered")
	}
	fake.onSelect(menu.Region{ID: "color-dc2626", Type: menu.RegionColor, Value: "#dc2626"})

	msg := readMessageOfType(t, conn, "selection")
	region, ok := msg["region"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected region object, got %T", msg["region"])
	}
	if region["id"] != "color-dc2626" {
		t.Errorf("expected region id color-dc2626, got %v", region["id"])
	}
}

// waitFor polls a condition with a deadline, for effects applied on other
// goroutines.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

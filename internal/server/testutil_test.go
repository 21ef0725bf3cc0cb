package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"gamecenter/internal/catalog"
	"gamecenter/internal/game"
	"gamecenter/internal/game/numberguess"
	"gamecenter/internal/game/rps"
	"gamecenter/internal/session"
	"gamecenter/internal/stats"
	"gamecenter/internal/storage"
)

// --- Test environment ---

// sevenRand draws 6 (mod n): guess target 7 in 1..100, CPU rock.
type sevenRand struct{}

func (sevenRand) IntN(n int) int { return 6 % n }

const testRevealDelay = 250 * time.Millisecond

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	stats *stats.MemoryStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cat := catalog.Default()
	reg := game.NewRegistry()
	reg.Register(numberguess.New(numberguess.DefaultRange()))
	reg.Register(rps.New(testRevealDelay))

	statsStore := stats.NewMemoryStore()
	mgr := session.NewManager(cat, reg, store, statsStore)
	mgr.Rand = sevenRand{}

	srv := New(cat, reg, mgr, statsStore)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, stats: statsStore}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func createSessionViaAPI(t *testing.T, ts *httptest.Server, gameID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"gameId":%q}`, gameID)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

// postAction sends an action and decodes the response body into a generic map.
func postAction(t *testing.T, ts *httptest.Server, code, typ string, payload any) (int, map[string]any) {
	t.Helper()
	a := map[string]any{"type": typ}
	if payload != nil {
		a["payload"] = payload
	}
	body, _ := json.Marshal(a)
	resp, err := http.Post(ts.URL+"/api/sessions/"+code+"/actions", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("post action: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode action response: %v", err)
	}
	return resp.StatusCode, out
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/sessions/" + code + "/ws"
}

func wsDial(ctx context.Context, t *testing.T, ts *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// wsJoin dials, joins and consumes the initial state message.
func wsJoin(ctx context.Context, t *testing.T, ts *httptest.Server, code, clientID string) (*websocket.Conn, wsState) {
	t.Helper()
	conn := wsDial(ctx, t, ts, code)
	wsSend(ctx, t, conn, "join", joinPayload{ClientID: clientID})
	return conn, readState(ctx, t, conn)
}

// wsState mirrors statePayload with the view left generic.
type wsState struct {
	Session struct {
		Code   string         `json:"code"`
		Status string         `json:"status"`
		Phase  string         `json:"phase"`
		State  map[string]any `json:"state"`
	} `json:"session"`
}

func readState(ctx context.Context, t *testing.T, conn *websocket.Conn) wsState {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var st wsState
	if err := json.Unmarshal(msg.Payload, &st); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return st
}

func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) errorPayload {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep
}

func action(typ string, payload any) game.Action {
	a := game.Action{Type: typ}
	if payload != nil {
		a.Payload, _ = json.Marshal(payload)
	}
	return a
}

package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremeet/internal/auth"
	"github.com/vovakirdan/wiremeet/internal/config"
	"github.com/vovakirdan/wiremeet/internal/core"
	"github.com/vovakirdan/wiremeet/internal/metrics"
	"github.com/vovakirdan/wiremeet/internal/proto"
)

const testSecret = "testsecret"

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func testJWTConfig() *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(testSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Minute,
	}
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	return startTestServerWithMetrics(t, nil, mutate)
}

func startTestServerWithMetrics(t *testing.T, m *metrics.Metrics, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	hub := core.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.PingInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.New(nil)
	identities := auth.NewService(nil, testJWTConfig())

	ts := httptest.NewServer(NewRouter(hub, identities, m, &cfg, &disabledLogger))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) wireOutbound {
	t.Helper()

	var out wireOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, into any) {
	t.Helper()

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeEvent || out.Event != event {
		t.Fatalf("expected event %s, got %+v", event, out)
	}
	if into != nil {
		if err := json.Unmarshal(out.Data, into); err != nil {
			t.Fatalf("unmarshal %s: %v", event, err)
		}
	}
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn, code string) {
	t.Helper()

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != code {
		t.Fatalf("expected %s error, got %+v", code, out)
	}
}

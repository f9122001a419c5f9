package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vovakirdan/wiremeet/internal/auth"
	"github.com/vovakirdan/wiremeet/internal/config"
	"github.com/vovakirdan/wiremeet/internal/metrics"
	"github.com/vovakirdan/wiremeet/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketMeetingFlow(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(t, ctx, wsURL(ts))
	connB := dial(t, ctx, wsURL(ts))

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "R1", Name: "alice"})
	var existingA proto.EventExistingMembersData
	readEvent(t, ctx, connA, proto.EventExistingMembers, &existingA)
	if len(existingA.Members) != 0 || existingA.Self == "" {
		t.Fatalf("unexpected existing members for A: %+v", existingA)
	}

	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "R1", Name: "bob"})
	var existingB proto.EventExistingMembersData
	readEvent(t, ctx, connB, proto.EventExistingMembers, &existingB)
	if len(existingB.Members) != 1 || existingB.Members[0].ID != existingA.Self || existingB.Members[0].Name != "alice" {
		t.Fatalf("unexpected existing members for B: %+v", existingB)
	}

	var joined proto.EventPeerJoinedData
	readEvent(t, ctx, connA, proto.EventPeerJoined, &joined)
	if joined.ID != existingB.Self || joined.Name != "bob" {
		t.Fatalf("unexpected peer_joined: %+v", joined)
	}

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	send(t, ctx, connA, proto.InboundTypeOffer, proto.NegotiationData{Target: existingB.Self, Payload: payload})

	var offer proto.EventNegotiationData
	readEvent(t, ctx, connB, proto.InboundTypeOffer, &offer)
	if offer.From != existingA.Self || string(offer.Payload) != string(payload) {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	send(t, ctx, connB, proto.InboundTypeChat, proto.ChatData{Text: "hello"})
	var chat proto.EventChatData
	readEvent(t, ctx, connA, proto.EventChat, &chat)
	if chat.From != existingB.Self || chat.Name != "bob" || chat.Text != "hello" {
		t.Fatalf("unexpected chat: %+v", chat)
	}

	connA.Close(websocket.StatusNormalClosure, "bye")

	var left proto.EventPeerLeftData
	readEvent(t, ctx, connB, proto.EventPeerLeft, &left)
	if left.ID != existingA.Self || left.Room != "R1" {
		t.Fatalf("unexpected peer_left: %+v", left)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/R1")
	if err != nil {
		t.Fatalf("room request failed: %v", err)
	}
	defer resp.Body.Close()
	var room RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	if room.Count != 1 || room.Members[0].ID != existingB.Self {
		t.Fatalf("unexpected room after A left: %+v", room)
	}
}

func TestWebSocketPeerUnavailable(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, wsURL(ts))
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "R1", Name: "alice"})
	readEvent(t, ctx, conn, proto.EventExistingMembers, nil)

	send(t, ctx, conn, proto.InboundTypeCandidate, proto.NegotiationData{Target: "nobody", Payload: json.RawMessage(`{}`)})

	var miss proto.EventPeerUnavailableData
	readEvent(t, ctx, conn, proto.EventPeerUnavailable, &miss)
	if miss.Target != "nobody" || miss.Kind != "candidate" {
		t.Fatalf("unexpected peer_unavailable: %+v", miss)
	}
}

func TestWebSocketProtocolErrorsKeepConnectionOpen(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, wsURL(ts))

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	readError(t, ctx, conn, "bad_request")

	send(t, ctx, conn, "dance", map[string]string{})
	readError(t, ctx, conn, "invalid_message")

	send(t, ctx, conn, proto.InboundTypeChat, proto.ChatData{Text: "early"})
	readError(t, ctx, conn, "not_in_room")

	send(t, ctx, conn, proto.InboundTypeOffer, proto.NegotiationData{Target: "x"})
	readError(t, ctx, conn, "bad_request")

	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "R1"})
	var existing proto.EventExistingMembersData
	readEvent(t, ctx, conn, proto.EventExistingMembers, &existing)
	if existing.Room != "R1" {
		t.Fatalf("unexpected room: %+v", existing)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) { cfg.MessagesPerMinute = 1 })

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, wsURL(ts))
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "R1"})
	readEvent(t, ctx, conn, proto.EventExistingMembers, nil)

	send(t, ctx, conn, proto.InboundTypeChat, proto.ChatData{Text: "spam"})
	readError(t, ctx, conn, "rate_limited")
}

func TestWebSocketTokenIdentity(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	token, err := auth.GenerateToken(testJWTConfig(), "user-1", "Alice")
	if err != nil {
		t.Fatalf("make jwt: %v", err)
	}

	connA := dial(t, ctx, wsURL(ts)+"?token="+token)
	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "R9"})
	readEvent(t, ctx, connA, proto.EventExistingMembers, nil)

	connB := dial(t, ctx, wsURL(ts))
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "R9", Name: "bob"})
	var existing proto.EventExistingMembersData
	readEvent(t, ctx, connB, proto.EventExistingMembers, &existing)
	if len(existing.Members) != 1 || existing.Members[0].Name != "Alice" {
		t.Fatalf("expected token display name, got %+v", existing.Members)
	}
}

func TestWebSocketRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name    string
		require bool
		query   string
	}{
		{name: "invalid token", query: "?token=invalid"},
		{name: "missing token when required", require: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := startTestServer(t, func(cfg *config.Config) { cfg.RequireToken = tt.require })

			ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCtx()

			conn, resp, err := websocket.Dial(ctx, wsURL(ts)+tt.query, nil)
			if err == nil {
				conn.Close(websocket.StatusNormalClosure, "done")
				t.Fatalf("expected dial to fail")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %+v", resp)
			}
		})
	}
}

func TestRoomEndpointUnknownRoom(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/ghost")
	if err != nil {
		t.Fatalf("room request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketUpgradeThroughRouter(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, wsURL(ts))
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "R2", Name: "carol"})

	var existing proto.EventExistingMembersData
	readEvent(t, ctx, conn, proto.EventExistingMembers, &existing)
	if existing.Room != "R2" || len(existing.Members) != 0 {
		t.Fatalf("unexpected existing members: %+v", existing)
	}
}

func TestWebSocketNegotiationPayloadBytes(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(t, ctx, wsURL(ts))
	connB := dial(t, ctx, wsURL(ts))

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "R1", Name: "alice"})
	var existingA proto.EventExistingMembersData
	readEvent(t, ctx, connA, proto.EventExistingMembers, &existingA)

	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "R1", Name: "bob"})
	var existingB proto.EventExistingMembersData
	readEvent(t, ctx, connB, proto.EventExistingMembers, &existingB)
	readEvent(t, ctx, connA, proto.EventPeerJoined, nil)

	payload := `{"sdp":"o=- 1 <x> & y","type":"offer"}`
	frame := `{"type":"offer","data":{"target":"` + existingB.Self + `","payload":` + payload + `}}`
	if err := connA.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("write offer: %v", err)
	}

	_, raw, err := connB.Read(ctx)
	if err != nil {
		t.Fatalf("read offer: %v", err)
	}
	if !bytes.Contains(raw, []byte(`"payload":`+payload)) {
		t.Fatalf("payload altered in transit: %s", raw)
	}
}

func TestWebSocketCountsTransportProtocolErrors(t *testing.T) {
	m := metrics.New()
	ts := startTestServerWithMetrics(t, m, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, wsURL(ts))
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	readError(t, ctx, conn, "bad_request")

	send(t, ctx, conn, "dance", map[string]string{})
	readError(t, ctx, conn, "invalid_message")

	expected := `
# HELP wiremeet_protocol_errors_total Inbound events rejected, by error code.
# TYPE wiremeet_protocol_errors_total counter
wiremeet_protocol_errors_total{code="bad_request"} 1
wiremeet_protocol_errors_total{code="invalid_message"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "wiremeet_protocol_errors_total"); err != nil {
		t.Fatalf("unexpected protocol error counters: %v", err)
	}
}

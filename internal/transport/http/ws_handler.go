package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"slices"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremeet/internal/auth"
	"github.com/vovakirdan/wiremeet/internal/config"
	"github.com/vovakirdan/wiremeet/internal/core"
	"github.com/vovakirdan/wiremeet/internal/metrics"
	"github.com/vovakirdan/wiremeet/internal/proto"
)

var errTerminated = errors.New("connection terminated by hub")

// IdentityResolver turns an issued token into a user identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (auth.Identity, error)
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub        *core.Hub
	identities IdentityResolver
	metrics    *metrics.Metrics
	cfg        *config.Config
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, identities IdentityResolver, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, identities: identities, metrics: m, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(core.ConnID(uuid.NewString()), identity.UserID, identity.DisplayName, h.cfg.EventBuffer)
	if err := h.hub.RegisterClient(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.pingLoop(ctx, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutines
	<-errCh
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, errTerminated) {
		status = websocket.StatusPolicyViolation
		reason = "terminated"
		err = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", string(client.ID)).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// authenticate resolves the optional token. It writes a 401 and returns false
// when the token is invalid, or missing while required.
func (h *WSHandler) authenticate(w stdhttp.ResponseWriter, r *stdhttp.Request) (auth.Identity, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	if token == "" {
		if h.cfg.RequireToken {
			writeUnauthorized(w, "missing token")
			return auth.Identity{}, false
		}
		return auth.Identity{}, true
	}
	if h.identities == nil {
		writeUnauthorized(w, "tokens not accepted")
		return auth.Identity{}, false
	}

	identity, err := h.identities.ResolveIdentity(r.Context(), token)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid token")
		writeUnauthorized(w, "invalid token")
		return auth.Identity{}, false
	}
	return identity, true
}

func writeUnauthorized(w stdhttp.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(stdhttp.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := make([]string, 0, len(h.cfg.AllowedOrigins))
	for _, origin := range h.cfg.AllowedOrigins {
		origin = strings.TrimPrefix(origin, "https://")
		origin = strings.TrimPrefix(origin, "http://")
		patterns = append(patterns, origin)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.MessagesPerMinute)
	limiter.startReset(ctx.Done())

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", string(client.ID)).Msg("read ws inbound")
			return err
		}

		var protoErr *proto.Error
		var cmd *core.Command
		var inbound proto.Inbound
		switch {
		case !limiter.allow():
			protoErr = &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}
		case json.Unmarshal(data, &inbound) != nil:
			protoErr = badRequest("malformed frame")
		default:
			cmd, protoErr = inboundToCommand(inbound)
		}

		if protoErr != nil {
			h.log.Debug().Str("conn_id", string(client.ID)).Str("code", protoErr.Code).Msg("rejected inbound")
			h.metrics.ProtocolError(protoErr.Code)
			if writeErr := writeFrame(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return errTerminated
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := writeFrame(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("conn_id", string(client.ID)).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return errTerminated
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// writeFrame encodes one outbound message as a text frame. HTML escaping is
// off so negotiation payloads reach the peer with their characters intact.
func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	w, err := conn.Writer(ctx, websocket.MessageText)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = w.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	return w.Close()
}

func (h *WSHandler) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	if h.cfg.PingInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.cfg.PingInterval)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

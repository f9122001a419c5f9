package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremeet/internal/metrics"
)

// ErrHubStopped is returned when the hub loop is no longer running.
var ErrHubStopped = errors.New("hub stopped")

const defaultGuestName = "guest"

// ParticipationRecorder stores that a user took part in a meeting.
type ParticipationRecorder interface {
	RecordParticipation(ctx context.Context, userID, roomID string) error
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub is the lifecycle coordinator. A single loop goroutine owns the registry
// and directory, so every membership mutation completes before the next event.
type Hub struct {
	registry  *Registry
	directory *Directory
	relay     *Relay

	recorder      ParticipationRecorder
	recordTimeout time.Duration
	metrics       *metrics.Metrics
	log           *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	queries    chan func()
	stopped    chan struct{}

	evictions []*Client
	evicting  map[ConnID]struct{}
	recording sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithRecorder sets the collaborator that records meeting participation.
func WithRecorder(r ParticipationRecorder, timeout time.Duration) Option {
	return func(h *Hub) {
		h.recorder = r
		if timeout > 0 {
			h.recordTimeout = timeout
		}
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithLogger sets the hub logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHub creates a hub with empty registry and directory.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	registry := NewRegistry()
	directory := NewDirectory()
	h := &Hub{
		registry:      registry,
		directory:     directory,
		relay:         NewRelay(registry, directory),
		recordTimeout: 5 * time.Second,
		log:           &nop,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		commands:      make(chan clientCommand, 64),
		queries:       make(chan func()),
		stopped:       make(chan struct{}),
		evicting:      make(map[ConnID]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes events until ctx is cancelled. On exit every live client is
// terminated.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.teardown(c)
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case fn := <-h.queries:
			fn()
		}
		h.flushEvictions()
		rooms, _ := h.directory.Stats()
		h.metrics.SetRooms(rooms)
	}
}

// RegisterClient adds a newly established connection and starts forwarding
// its commands to the hub loop.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
	case <-h.stopped:
		return ErrHubStopped
	}
	go h.pump(c)
	return nil
}

// UnregisterClient tears the connection down. Calling it more than once is
// harmless.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// RoomMembers returns the members of a room in join order.
func (h *Hub) RoomMembers(ctx context.Context, roomID string) ([]Member, error) {
	var members []Member
	err := h.inspect(ctx, func() { members = h.directory.Snapshot(roomID) })
	return members, err
}

// Stats returns the number of live rooms and registered connections.
func (h *Hub) Stats(ctx context.Context) (rooms, connections int, err error) {
	err = h.inspect(ctx, func() {
		rooms, _ = h.directory.Stats()
		connections = h.registry.Len()
	})
	return rooms, connections, err
}

// Done is closed once Run has returned. No participation record starts after
// that, so Wait is only complete when called after Done.
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

// Wait blocks until in-flight participation records are done.
func (h *Hub) Wait() {
	h.recording.Wait()
}

func (h *Hub) inspect(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case h.queries <- func() { fn(); close(done) }:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pump forwards a client's commands in order until it terminates.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.stopped:
				return
			}
		case <-c.done:
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.registry.Register(c)
	c.setState(StateUnbound)
	h.metrics.ConnectionOpened()
	h.log.Debug().Str("conn_id", string(c.ID)).Str("user_id", c.UserID).Msg("connection registered")
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if c.State() == StateTerminated {
		h.log.Debug().Str("conn_id", string(c.ID)).Msg("dropping command from terminated connection")
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		if cmd.Room == "" {
			h.reject(c, coreError(ErrCodeBadRequest, "room is required"))
			return
		}
		h.join(ctx, c, cmd.Room, cmd.Name)
	case CommandLeaveRoom:
		if c.State() != StateBound {
			h.reject(c, coreError(ErrCodeNotInRoom, "not in a room"))
			return
		}
		h.leaveRoom(c)
	case CommandChat, CommandNegotiate:
		sig := cmd.Signal
		sig.From = c.ID
		deliveries, err := h.relay.Route(sig)
		switch {
		case errors.Is(err, ErrNotInRoom):
			h.reject(c, coreError(ErrCodeNotInRoom, "join a room first"))
			return
		case err != nil:
			h.reject(c, coreError(ErrCodeInvalidMessage, err.Error()))
			return
		}
		h.emit(deliveries)
	default:
		h.reject(c, coreError(ErrCodeInvalidMessage, "unknown command"))
	}
}

func (h *Hub) join(ctx context.Context, c *Client, roomID, name string) {
	if c.State() == StateBound {
		h.leaveRoom(c)
	}
	if name == "" {
		name = c.Name
	}
	if name == "" {
		name = defaultGuestName
	}

	prior := h.directory.Join(roomID, c.ID, name)
	h.registry.AssignRoom(c.ID, roomID, name)
	c.setState(StateBound)

	h.log.Info().
		Str("conn_id", string(c.ID)).
		Str("room", roomID).
		Str("name", name).
		Int("prior_members", len(prior)).
		Msg("joined room")

	h.emit([]Delivery{{To: c.ID, Event: &Event{
		Kind:    EventExistingMembers,
		Room:    roomID,
		Self:    c.ID,
		Members: prior,
	}}})
	h.emit(h.relay.Joined(roomID, Member{ID: c.ID, Name: name}, prior))

	h.recordParticipation(ctx, c, roomID)
}

// leaveRoom removes a bound client from its room and notifies the rest.
// The registry entry must still exist so the leaver's name resolves.
func (h *Hub) leaveRoom(c *Client) {
	roomID := h.registry.ResolveRoom(c.ID)
	leaver := Member{ID: c.ID, Name: h.registry.DisplayName(c.ID)}

	remaining, ok := h.directory.Leave(roomID, c.ID)
	if !ok {
		panic(fmt.Sprintf("hub: %s bound to %q but not a member", c.ID, roomID))
	}
	h.registry.ClearRoom(c.ID)
	c.setState(StateUnbound)

	h.log.Info().
		Str("conn_id", string(c.ID)).
		Str("room", roomID).
		Int("remaining", len(remaining)).
		Msg("left room")

	h.emit(h.relay.Left(roomID, leaver, remaining))
}

// teardown handles loss of the channel: leave, then unregister.
func (h *Hub) teardown(c *Client) {
	if _, ok := h.registry.Lookup(c.ID); !ok {
		return
	}
	if c.State() == StateBound {
		h.leaveRoom(c)
	}
	h.registry.Unregister(c.ID)
	c.terminate()
	h.metrics.ConnectionClosed()
	h.log.Debug().Str("conn_id", string(c.ID)).Msg("connection unregistered")
}

func (h *Hub) reject(c *Client, cerr *CoreError) {
	h.metrics.ProtocolError(cerr.Code)
	h.emit([]Delivery{{To: c.ID, Event: &Event{Kind: EventError, Error: cerr}}})
}

// emit queues each delivery without blocking. A recipient whose queue is full
// is scheduled for termination after the current event.
func (h *Hub) emit(deliveries []Delivery) {
	for _, d := range deliveries {
		client := h.registry.Client(d.To)
		if client.State() == StateTerminated {
			continue
		}
		if _, marked := h.evicting[client.ID]; marked {
			continue
		}
		select {
		case client.Events <- d.Event:
			h.metrics.Relayed(d.Event.Kind.String())
			if d.Event.Kind == EventPeerUnavailable {
				h.metrics.PeerUnavailable()
			}
		default:
			h.log.Warn().Str("conn_id", string(client.ID)).Msg("outbound queue full, evicting")
			h.evicting[client.ID] = struct{}{}
			h.evictions = append(h.evictions, client)
		}
	}
}

func (h *Hub) flushEvictions() {
	for len(h.evictions) > 0 {
		c := h.evictions[0]
		h.evictions = h.evictions[1:]
		delete(h.evicting, c.ID)
		if _, ok := h.registry.Lookup(c.ID); !ok {
			continue
		}
		h.metrics.Evicted()
		h.teardown(c)
	}
}

func (h *Hub) recordParticipation(ctx context.Context, c *Client, roomID string) {
	if h.recorder == nil || c.UserID == "" {
		return
	}
	h.recording.Add(1)
	go func(userID string) {
		defer h.recording.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.recordTimeout)
		defer cancel()
		if err := h.recorder.RecordParticipation(rctx, userID, roomID); err != nil {
			h.log.Warn().Err(err).Str("user_id", userID).Str("room", roomID).Msg("record participation")
		}
	}(c.UserID)
}

func (h *Hub) shutdown() {
	for _, c := range h.registry.Clients() {
		if c.State() == StateBound {
			h.leaveRoom(c)
		}
		h.registry.Unregister(c.ID)
		c.terminate()
		h.metrics.ConnectionClosed()
	}
	h.log.Info().Msg("hub stopped")
}

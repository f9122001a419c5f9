package core

import "sync/atomic"

// ConnID identifies one live connection.
type ConnID string

// ConnState is the lifecycle state of a connection.
type ConnState int32

const (
	// StateUnbound is a registered connection that has not joined a room.
	StateUnbound ConnState = iota
	// StateBound is a connection that is a member of exactly one room.
	StateBound
	// StateTerminated is a torn down connection. There is no way back.
	StateTerminated
)

func (s ConnState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Client is a meeting participant connection as seen by the core layer.
type Client struct {
	ID ConnID
	// UserID is the collaborator identity carried by the socket, empty for guests.
	UserID string
	// Name is the identity's display name, used when join carries none.
	Name string

	Commands chan *Command
	Events   chan *Event

	state atomic.Int32
	done  chan struct{}
}

// NewClient constructs a client with initialized channels. buffer bounds the
// outbound event queue; a full queue terminates the client.
func NewClient(id ConnID, userID, name string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// State reports the current lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// Done is closed once the hub terminates the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// terminate moves the client to StateTerminated. Only the hub loop calls it.
func (c *Client) terminate() {
	if c.State() == StateTerminated {
		return
	}
	c.setState(StateTerminated)
	close(c.done)
}

package core

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventExistingMembers replies to a joiner with the members already present.
	EventExistingMembers EventKind = iota
	// EventPeerJoined notifies prior members about a joiner.
	EventPeerJoined
	// EventPeerLeft notifies remaining members about a departure.
	EventPeerLeft
	// EventChat delivers a chat message.
	EventChat
	// EventNegotiation delivers an offer, answer or candidate from a peer.
	EventNegotiation
	// EventPeerUnavailable tells a sender its negotiation target is gone.
	EventPeerUnavailable
	// EventError notifies clients about a domain error.
	EventError
)

// Member is a room member as reported to clients.
type Member struct {
	ID   ConnID
	Name string
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Self    ConnID
	Peer    Member
	Members []Member

	// Signal fields for chat and negotiation events.
	SignalKind SignalKind
	Text       string
	Payload    json.RawMessage
	SentAt     time.Time

	Error *CoreError
}

func (k EventKind) String() string {
	switch k {
	case EventExistingMembers:
		return "existing_members"
	case EventPeerJoined:
		return "peer_joined"
	case EventPeerLeft:
		return "peer_left"
	case EventChat:
		return "chat"
	case EventNegotiation:
		return "negotiation"
	case EventPeerUnavailable:
		return "peer_unavailable"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

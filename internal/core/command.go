package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the client to a room, leaving any prior one.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unbinds the client from its room but keeps the connection.
	CommandLeaveRoom
	// CommandChat broadcasts text to the other room members.
	CommandChat
	// CommandNegotiate relays an offer, answer or candidate to one peer.
	CommandNegotiate
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	// Name is the display name supplied with a join.
	Name   string
	Signal Signal
}

// SignalKind tags a signaling message.
type SignalKind int

const (
	SignalChat SignalKind = iota
	SignalOffer
	SignalAnswer
	SignalCandidate
	SignalMembership
)

func (k SignalKind) String() string {
	switch k {
	case SignalChat:
		return "chat"
	case SignalOffer:
		return "offer"
	case SignalAnswer:
		return "answer"
	case SignalCandidate:
		return "candidate"
	case SignalMembership:
		return "membership"
	default:
		return "unknown"
	}
}

// IsNegotiation reports whether the kind is addressed to a single peer.
func (k SignalKind) IsNegotiation() bool {
	return k == SignalOffer || k == SignalAnswer || k == SignalCandidate
}

// Signal is a signaling message. Payload is never inspected by the core.
type Signal struct {
	Kind    SignalKind
	From    ConnID
	Target  ConnID
	Text    string
	Payload json.RawMessage
}

package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin      = "join"
	InboundTypeLeave     = "leave"
	InboundTypeChat      = "chat"
	InboundTypeOffer     = "offer"
	InboundTypeAnswer    = "answer"
	InboundTypeCandidate = "candidate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventExistingMembers = "existing_members"
	EventPeerJoined      = "peer_joined"
	EventPeerLeft        = "peer_left"
	EventChat            = "chat"
	EventPeerUnavailable = "peer_unavailable"
)

// JoinData requests to join a meeting room.
type JoinData struct {
	Room string `json:"room"`
	Name string `json:"name,omitempty"`
}

// ChatData is a chat message from the client.
type ChatData struct {
	Text string `json:"text"`
}

// NegotiationData carries an offer, answer or candidate for one peer.
// Payload is forwarded without inspection.
type NegotiationData struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Member describes a room participant.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventExistingMembersData answers a join with the members already present.
type EventExistingMembersData struct {
	Room    string   `json:"room"`
	Self    string   `json:"self"`
	Members []Member `json:"members"`
}

// EventPeerJoinedData notifies that a participant joined.
type EventPeerJoinedData struct {
	Room string `json:"room"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventPeerLeftData notifies that a participant left.
type EventPeerLeftData struct {
	Room string `json:"room"`
	ID   string `json:"id"`
}

// EventChatData is a chat message relayed to a participant.
type EventChatData struct {
	From string `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventNegotiationData is an offer, answer or candidate from a peer.
type EventNegotiationData struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// EventPeerUnavailableData reports a negotiation target that is gone.
type EventPeerUnavailableData struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

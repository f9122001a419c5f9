package core

import "time"

// Delivery is one event addressed to one connection.
type Delivery struct {
	To    ConnID
	Event *Event
}

// Relay computes recipients for signaling messages. It holds no state of its
// own and never inspects negotiation payloads.
type Relay struct {
	registry  *Registry
	directory *Directory
	now       func() time.Time
}

// NewRelay builds a relay over the given registry and directory.
func NewRelay(registry *Registry, directory *Directory) *Relay {
	return &Relay{registry: registry, directory: directory, now: time.Now}
}

// Route computes deliveries for a client-submitted signal.
// It returns ErrNotInRoom when the sender is not bound to a room.
func (r *Relay) Route(sig Signal) ([]Delivery, error) {
	roomID := r.registry.ResolveRoom(sig.From)
	if roomID == "" {
		return nil, ErrNotInRoom
	}

	switch {
	case sig.Kind == SignalChat:
		return r.chat(roomID, sig), nil
	case sig.Kind.IsNegotiation():
		return []Delivery{r.negotiation(roomID, sig)}, nil
	default:
		// Membership changes are generated by the hub, never submitted.
		return nil, ErrBadSignal
	}
}

func (r *Relay) chat(roomID string, sig Signal) []Delivery {
	from := Member{ID: sig.From, Name: r.registry.DisplayName(sig.From)}
	sentAt := r.now()

	members := r.directory.Members(roomID)
	out := make([]Delivery, 0, len(members))
	for _, id := range members {
		if id == sig.From {
			continue
		}
		out = append(out, Delivery{To: id, Event: &Event{
			Kind:       EventChat,
			Room:       roomID,
			Peer:       from,
			SignalKind: SignalChat,
			Text:       sig.Text,
			SentAt:     sentAt,
		}})
	}
	return out
}

// negotiation forwards to a peer in the sender's room. Anything else,
// including the sender itself, is reported back as unavailable.
func (r *Relay) negotiation(roomID string, sig Signal) Delivery {
	if _, ok := r.registry.Lookup(sig.Target); !ok || sig.Target == sig.From || r.registry.ResolveRoom(sig.Target) != roomID {
		return Delivery{To: sig.From, Event: &Event{
			Kind:       EventPeerUnavailable,
			Room:       roomID,
			Peer:       Member{ID: sig.Target},
			SignalKind: sig.Kind,
		}}
	}
	return Delivery{To: sig.Target, Event: &Event{
		Kind:       EventNegotiation,
		Room:       roomID,
		Peer:       Member{ID: sig.From, Name: r.registry.DisplayName(sig.From)},
		SignalKind: sig.Kind,
		Payload:    sig.Payload,
	}}
}

// Joined addresses a peer-joined notification to every prior member.
func (r *Relay) Joined(roomID string, joiner Member, prior []Member) []Delivery {
	out := make([]Delivery, 0, len(prior))
	for _, m := range prior {
		out = append(out, Delivery{To: m.ID, Event: &Event{
			Kind:       EventPeerJoined,
			Room:       roomID,
			Peer:       joiner,
			SignalKind: SignalMembership,
		}})
	}
	return out
}

// Left addresses a peer-left notification to every remaining member.
func (r *Relay) Left(roomID string, leaver Member, remaining []Member) []Delivery {
	out := make([]Delivery, 0, len(remaining))
	for _, m := range remaining {
		out = append(out, Delivery{To: m.ID, Event: &Event{
			Kind:       EventPeerLeft,
			Room:       roomID,
			Peer:       leaver,
			SignalKind: SignalMembership,
		}})
	}
	return out
}

package http

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wiremeet/internal/core"
	"github.com/vovakirdan/wiremeet/internal/proto"
)

const maxNameLength = 64

var negotiationKinds = map[string]core.SignalKind{
	proto.InboundTypeOffer:     core.SignalOffer,
	proto.InboundTypeAnswer:    core.SignalAnswer,
	proto.InboundTypeCandidate: core.SignalCandidate,
}

// truncateName caps a display name at maxNameLength bytes without splitting
// a rune.
func truncateName(name string) string {
	if len(name) <= maxNameLength {
		return name
	}
	cut := maxNameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand maps a client frame to a hub command. A non-nil proto.Error
// rejects the frame without touching any state.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("malformed join data")
		}
		room := strings.TrimSpace(join.Room)
		if room == "" {
			return nil, badRequest("room is required")
		}
		name := truncateName(strings.TrimSpace(join.Name))
		return &core.Command{Kind: core.CommandJoinRoom, Room: room, Name: name}, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil
	case proto.InboundTypeChat:
		var chat proto.ChatData
		if err := json.Unmarshal(inbound.Data, &chat); err != nil {
			return nil, badRequest("malformed chat data")
		}
		if chat.Text == "" {
			return nil, badRequest("text is required")
		}
		return &core.Command{
			Kind:   core.CommandChat,
			Signal: core.Signal{Kind: core.SignalChat, Text: chat.Text},
		}, nil
	default:
		kind, ok := negotiationKinds[inbound.Type]
		if !ok {
			return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
		}
		var neg proto.NegotiationData
		if err := json.Unmarshal(inbound.Data, &neg); err != nil {
			return nil, badRequest("malformed negotiation data")
		}
		if neg.Target == "" {
			return nil, badRequest("target is required")
		}
		if len(neg.Payload) == 0 || bytes.Equal(neg.Payload, []byte("null")) {
			return nil, badRequest("payload is required")
		}
		return &core.Command{
			Kind: core.CommandNegotiate,
			Signal: core.Signal{
				Kind:    kind,
				Target:  core.ConnID(neg.Target),
				Payload: neg.Payload,
			},
		}, nil
	}
}

func toProtoMembers(members []core.Member) []proto.Member {
	out := make([]proto.Member, 0, len(members))
	for _, m := range members {
		out = append(out, proto.Member{ID: string(m.ID), Name: m.Name})
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventExistingMembers:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventExistingMembers,
			Data: proto.EventExistingMembersData{
				Room:    event.Room,
				Self:    string(event.Self),
				Members: toProtoMembers(event.Members),
			},
		}
	case core.EventPeerJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPeerJoined,
			Data: proto.EventPeerJoinedData{
				Room: event.Room,
				ID:   string(event.Peer.ID),
				Name: event.Peer.Name,
			},
		}
	case core.EventPeerLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPeerLeft,
			Data: proto.EventPeerLeftData{
				Room: event.Room,
				ID:   string(event.Peer.ID),
			},
		}
	case core.EventChat:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventChat,
			Data: proto.EventChatData{
				From: string(event.Peer.ID),
				Name: event.Peer.Name,
				Text: event.Text,
				TS:   event.SentAt.Unix(),
			},
		}
	case core.EventNegotiation:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.SignalKind.String(),
			Data: proto.EventNegotiationData{
				From:    string(event.Peer.ID),
				Payload: event.Payload,
			},
		}
	case core.EventPeerUnavailable:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPeerUnavailable,
			Data: proto.EventPeerUnavailableData{
				Target: string(event.Peer.ID),
				Kind:   event.SignalKind.String(),
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

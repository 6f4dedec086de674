package wire

import (
	"encoding/json"
	"fmt"
)

// Response is one tagged response variant. Each variant marshals itself
// so any Response value can be handed straight to the framing codec.
type Response interface {
	json.Marshaler
	// ResponseTag returns the wire tag of the variant.
	ResponseTag() string
}

type Pong struct{ Data string }

// Error carries one of the closed set of error kinds.
type Error struct{ Kind ErrorKind }

// SessionCreated is the sign-up result; the id doubles as the session cookie.
type SessionCreated struct{ ID ID }

type ServerCreated struct{ ID ID }

type ChannelList struct{ Channels []string }

type MessagesFound struct{ Messages []Message }

type EndOfChannel struct{}

type Success struct{}

func (Pong) ResponseTag() string           { return "Pong" }
func (Error) ResponseTag() string          { return "Error" }
func (SessionCreated) ResponseTag() string { return "SessionCreated" }
func (ServerCreated) ResponseTag() string  { return "ServerCreated" }
func (ChannelList) ResponseTag() string    { return "ChannelList" }
func (MessagesFound) ResponseTag() string  { return "MessagesFound" }
func (EndOfChannel) ResponseTag() string   { return "EndOfChannel" }
func (Success) ResponseTag() string        { return "Success" }

func tagged(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}

func (r Pong) MarshalJSON() ([]byte, error)  { return tagged("Pong", r.Data) }
func (r Error) MarshalJSON() ([]byte, error) { return tagged("Error", string(r.Kind)) }

func (r SessionCreated) MarshalJSON() ([]byte, error) {
	return tagged("SessionCreated", string(r.ID))
}

func (r ServerCreated) MarshalJSON() ([]byte, error) {
	return tagged("ServerCreated", string(r.ID))
}

func (r ChannelList) MarshalJSON() ([]byte, error) {
	if r.Channels == nil {
		return tagged("ChannelList", []string{})
	}
	return tagged("ChannelList", r.Channels)
}

func (r MessagesFound) MarshalJSON() ([]byte, error) {
	if r.Messages == nil {
		return tagged("MessagesFound", []Message{})
	}
	return tagged("MessagesFound", r.Messages)
}

// Unit variants marshal as bare strings, matching external tagging.
func (EndOfChannel) MarshalJSON() ([]byte, error) { return json.Marshal("EndOfChannel") }
func (Success) MarshalJSON() ([]byte, error)      { return json.Marshal("Success") }

// UnmarshalResponse decodes one response variant.
func UnmarshalResponse(data []byte) (Response, error) {
	tag, payload, err := splitVariant(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Pong":
		var s string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		return Pong{Data: s}, nil

	case "Error":
		var s string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		kind, err := ParseErrorKind(s)
		if err != nil {
			return nil, err
		}
		return Error{Kind: kind}, nil

	case "SessionCreated":
		var id string
		if err := unmarshalPayload(payload, &id); err != nil {
			return nil, err
		}
		return SessionCreated{ID: ID(id)}, nil

	case "ServerCreated":
		var id string
		if err := unmarshalPayload(payload, &id); err != nil {
			return nil, err
		}
		return ServerCreated{ID: ID(id)}, nil

	case "ChannelList":
		var names []string
		if err := unmarshalPayload(payload, &names); err != nil {
			return nil, err
		}
		return ChannelList{Channels: names}, nil

	case "MessagesFound":
		var msgs []Message
		if err := unmarshalPayload(payload, &msgs); err != nil {
			return nil, err
		}
		return MessagesFound{Messages: msgs}, nil

	case "EndOfChannel":
		return EndOfChannel{}, nil

	case "Success":
		return Success{}, nil

	default:
		return nil, fmt.Errorf("wire: unknown response variant %q", tag)
	}
}

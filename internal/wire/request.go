package wire

import (
	"encoding/json"
	"fmt"
)

// Request is the outer frame payload sent by clients: a tagged request
// variant plus an optional session cookie.
//
// On the wire: {"tp": <variant>, "session_cookie": <24-hex string | null>}.
// Variants follow external tagging: a one-field variant carries its value
// directly ({"Ping":"hi"}), a multi-field variant carries an array
// ({"SignIn":["u","p","<id>"]}), and the empty SignOut tuple carries []
// (a bare "SignOut" string is accepted on decode).
type Request struct {
	Type   RequestType
	Cookie *ID
}

// RequestType is one request variant.
type RequestType interface {
	// Tag returns the wire tag of the variant.
	Tag() string
}

type Ping struct{ Data string }

type SignUp struct{ Username, Password string }

// SignIn carries the claimed user id alongside the credentials.
type SignIn struct {
	Username string
	Password string
	UserID   ID
}

type SignOut struct{}

// NewServer creates a guild.
type NewServer struct{ Name string }

type DeleteServer struct{ ServerID ID }

type NewChannel struct {
	ServerID ID
	Name     string
}

type DeleteChannel struct {
	ServerID ID
	Name     string
}

type GetChannels struct{ ServerID ID }

type SendMessage struct {
	ServerID ID
	Channel  string
	Content  string
}

type GetMessages struct {
	ServerID ID
	Channel  string
	Block    uint32
}

func (Ping) Tag() string          { return "Ping" }
func (SignUp) Tag() string        { return "SignUp" }
func (SignIn) Tag() string        { return "SignIn" }
func (SignOut) Tag() string       { return "SignOut" }
func (NewServer) Tag() string     { return "NewServer" }
func (DeleteServer) Tag() string  { return "DeleteServer" }
func (NewChannel) Tag() string    { return "NewChannel" }
func (DeleteChannel) Tag() string { return "DeleteChannel" }
func (GetChannels) Tag() string   { return "GetChannels" }
func (SendMessage) Tag() string   { return "SendMessage" }
func (GetMessages) Tag() string   { return "GetMessages" }

func (r Request) MarshalJSON() ([]byte, error) {
	if r.Type == nil {
		return nil, fmt.Errorf("wire: request has no type")
	}

	var payload any
	switch t := r.Type.(type) {
	case Ping:
		payload = t.Data
	case SignUp:
		payload = []any{t.Username, t.Password}
	case SignIn:
		payload = []any{t.Username, t.Password, string(t.UserID)}
	case SignOut:
		payload = []any{}
	case NewServer:
		payload = t.Name
	case DeleteServer:
		payload = string(t.ServerID)
	case NewChannel:
		payload = []any{string(t.ServerID), t.Name}
	case DeleteChannel:
		payload = []any{string(t.ServerID), t.Name}
	case GetChannels:
		payload = string(t.ServerID)
	case SendMessage:
		payload = []any{string(t.ServerID), t.Channel, t.Content}
	case GetMessages:
		payload = []any{string(t.ServerID), t.Channel, t.Block}
	default:
		return nil, fmt.Errorf("wire: unknown request type %T", r.Type)
	}

	return json.Marshal(struct {
		TP     map[string]any `json:"tp"`
		Cookie *ID            `json:"session_cookie"`
	}{
		TP:     map[string]any{r.Type.Tag(): payload},
		Cookie: r.Cookie,
	})
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var env struct {
		TP     json.RawMessage `json:"tp"`
		Cookie *string         `json:"session_cookie"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if len(env.TP) == 0 {
		return fmt.Errorf("wire: request missing tp field")
	}

	tag, payload, err := splitVariant(env.TP)
	if err != nil {
		return err
	}

	tp, err := decodeRequestType(tag, payload)
	if err != nil {
		return err
	}
	r.Type = tp

	r.Cookie = nil
	if env.Cookie != nil {
		id := ID(*env.Cookie)
		r.Cookie = &id
	}
	return nil
}

func decodeRequestType(tag string, payload json.RawMessage) (RequestType, error) {
	switch tag {
	case "Ping":
		var s string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		return Ping{Data: s}, nil

	case "SignUp":
		var u, p string
		if err := unmarshalTuple(payload, &u, &p); err != nil {
			return nil, err
		}
		return SignUp{Username: u, Password: p}, nil

	case "SignIn":
		var u, p, id string
		if err := unmarshalTuple(payload, &u, &p, &id); err != nil {
			return nil, err
		}
		return SignIn{Username: u, Password: p, UserID: ID(id)}, nil

	case "SignOut":
		return SignOut{}, nil

	case "NewServer":
		var name string
		if err := unmarshalPayload(payload, &name); err != nil {
			return nil, err
		}
		return NewServer{Name: name}, nil

	case "DeleteServer":
		var id string
		if err := unmarshalPayload(payload, &id); err != nil {
			return nil, err
		}
		return DeleteServer{ServerID: ID(id)}, nil

	case "NewChannel":
		var id, name string
		if err := unmarshalTuple(payload, &id, &name); err != nil {
			return nil, err
		}
		return NewChannel{ServerID: ID(id), Name: name}, nil

	case "DeleteChannel":
		var id, name string
		if err := unmarshalTuple(payload, &id, &name); err != nil {
			return nil, err
		}
		return DeleteChannel{ServerID: ID(id), Name: name}, nil

	case "GetChannels":
		var id string
		if err := unmarshalPayload(payload, &id); err != nil {
			return nil, err
		}
		return GetChannels{ServerID: ID(id)}, nil

	case "SendMessage":
		var id, channel, content string
		if err := unmarshalTuple(payload, &id, &channel, &content); err != nil {
			return nil, err
		}
		return SendMessage{ServerID: ID(id), Channel: channel, Content: content}, nil

	case "GetMessages":
		var parts []json.RawMessage
		if err := json.Unmarshal(payload, &parts); err != nil {
			return nil, err
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("wire: GetMessages expects 3 fields, got %d", len(parts))
		}
		var id, channel string
		var block uint32
		if err := json.Unmarshal(parts[0], &id); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(parts[1], &channel); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(parts[2], &block); err != nil {
			return nil, err
		}
		return GetMessages{ServerID: ID(id), Channel: channel, Block: block}, nil

	default:
		return nil, fmt.Errorf("wire: unknown request variant %q", tag)
	}
}

// splitVariant takes an externally tagged variant, either a bare string
// ("SignOut") or a single-key object ({"Ping":"hi"}), and returns the
// tag and the raw payload (nil for the bare form).
func splitVariant(raw json.RawMessage) (string, json.RawMessage, error) {
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		return tag, nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil, fmt.Errorf("wire: malformed variant: %w", err)
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("wire: variant must have exactly one tag, got %d", len(obj))
	}
	for k, v := range obj {
		return k, v, nil
	}
	panic("unreachable")
}

func unmarshalPayload(payload json.RawMessage, out any) error {
	if payload == nil {
		return fmt.Errorf("wire: variant payload missing")
	}
	return json.Unmarshal(payload, out)
}

// unmarshalTuple decodes an array payload of strings into the given slots.
func unmarshalTuple(payload json.RawMessage, out ...*string) error {
	var parts []string
	if err := unmarshalPayload(payload, &parts); err != nil {
		return err
	}
	if len(parts) != len(out) {
		return fmt.Errorf("wire: variant expects %d fields, got %d", len(out), len(parts))
	}
	for i, p := range parts {
		*out[i] = p
	}
	return nil
}

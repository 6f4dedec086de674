package wire

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestResponseMarshalForms(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "unit variant is a bare string",
			resp: Success{},
			want: `"Success"`,
		},
		{
			name: "end of channel is a bare string",
			resp: EndOfChannel{},
			want: `"EndOfChannel"`,
		},
		{
			name: "error carries its kind",
			resp: Error{Kind: ErrPermissionDenied},
			want: `{"Error":"PermissionDenied"}`,
		},
		{
			name: "session id as plain string",
			resp: SessionCreated{ID: testID},
			want: `{"SessionCreated":"` + testID + `"}`,
		},
		{
			name: "nil channel list marshals as empty array",
			resp: ChannelList{},
			want: `{"ChannelList":[]}`,
		},
		{
			name: "nil message list marshals as empty array",
			resp: MessagesFound{},
			want: `{"MessagesFound":[]}`,
		},
		{
			name: "messages keep content and author",
			resp: MessagesFound{Messages: []Message{{Content: "hi", Author: "alice"}}},
			want: `{"MessagesFound":[{"content":"hi","author":"alice"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	responses := []Response{
		Pong{Data: "hello"},
		Error{Kind: ErrSessionExpired},
		SessionCreated{ID: testID},
		ServerCreated{ID: testID},
		ChannelList{Channels: []string{"general", "random"}},
		MessagesFound{Messages: []Message{{Content: "hi", Author: "alice"}}},
		EndOfChannel{},
		Success{},
	}

	for _, resp := range responses {
		t.Run(resp.ResponseTag(), func(t *testing.T) {
			data, err := json.Marshal(resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			got, err := UnmarshalResponse(data)
			if err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if !reflect.DeepEqual(got, resp) {
				t.Errorf("round trip = %+v, want %+v", got, resp)
			}
		})
	}
}

func TestUnmarshalResponseErrors(t *testing.T) {
	bad := []string{
		`"NotAVariant"`,
		`{"Error":"NotAKind"}`,
		`{"Pong":42}`,
		`{"Pong":"a","Success":null}`,
		`[]`,
	}
	for _, raw := range bad {
		if _, err := UnmarshalResponse([]byte(raw)); err == nil {
			t.Errorf("UnmarshalResponse(%s): expected error", raw)
		}
	}
}

func TestParseErrorKind(t *testing.T) {
	for _, kind := range []ErrorKind{
		ErrInternalServerError,
		ErrPermissionDenied,
		ErrSessionExpired,
		ErrInvalidCredentials,
		ErrBadRequest,
	} {
		got, err := ParseErrorKind(string(kind))
		if err != nil {
			t.Errorf("ParseErrorKind(%q): %v", kind, err)
		}
		if got != kind {
			t.Errorf("ParseErrorKind(%q) = %q", kind, got)
		}
	}
	if _, err := ParseErrorKind("Teapot"); err == nil {
		t.Error("ParseErrorKind(Teapot): expected error")
	}
}

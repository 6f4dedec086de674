package wire

import (
	"encoding/json"
	"reflect"
	"testing"
)

const testID = "0123456789abcdef01234567"

func TestRequestMarshalForms(t *testing.T) {
	cookie := ID(testID)
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "one-field variant carries its value directly",
			req:  Request{Type: Ping{Data: "hello"}},
			want: `{"tp":{"Ping":"hello"},"session_cookie":null}`,
		},
		{
			name: "multi-field variant carries an array",
			req:  Request{Type: SignUp{Username: "alice", Password: "pw1"}},
			want: `{"tp":{"SignUp":["alice","pw1"]},"session_cookie":null}`,
		},
		{
			name: "empty tuple variant carries an empty array",
			req:  Request{Type: SignOut{}, Cookie: &cookie},
			want: `{"tp":{"SignOut":[]},"session_cookie":"` + testID + `"}`,
		},
		{
			name: "block index is numeric",
			req:  Request{Type: GetMessages{ServerID: testID, Channel: "general", Block: 3}, Cookie: &cookie},
			want: `{"tp":{"GetMessages":["` + testID + `","general",3]},"session_cookie":"` + testID + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.req)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	cookie := ID(testID)
	requests := []Request{
		{Type: Ping{Data: "hello"}},
		{Type: SignUp{Username: "alice", Password: "pw1"}},
		{Type: SignIn{Username: "alice", Password: "pw1", UserID: testID}},
		{Type: SignOut{}, Cookie: &cookie},
		{Type: NewServer{Name: "g1"}, Cookie: &cookie},
		{Type: DeleteServer{ServerID: testID}, Cookie: &cookie},
		{Type: NewChannel{ServerID: testID, Name: "general"}, Cookie: &cookie},
		{Type: DeleteChannel{ServerID: testID, Name: "general"}, Cookie: &cookie},
		{Type: GetChannels{ServerID: testID}, Cookie: &cookie},
		{Type: SendMessage{ServerID: testID, Channel: "general", Content: "hi"}, Cookie: &cookie},
		{Type: GetMessages{ServerID: testID, Channel: "general", Block: 7}, Cookie: &cookie},
	}

	for _, req := range requests {
		t.Run(req.Type.Tag(), func(t *testing.T) {
			data, err := json.Marshal(req)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got Request
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if !reflect.DeepEqual(got, req) {
				t.Errorf("round trip = %+v, want %+v", got, req)
			}
		})
	}
}

func TestRequestUnmarshalBareTag(t *testing.T) {
	var req Request
	raw := `{"tp":"SignOut","session_cookie":"` + testID + `"}`
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := req.Type.(SignOut); !ok {
		t.Errorf("type = %T, want SignOut", req.Type)
	}
	if req.Cookie == nil || *req.Cookie != testID {
		t.Errorf("cookie = %v", req.Cookie)
	}
}

func TestRequestUnmarshalErrors(t *testing.T) {
	bad := []string{
		`{"session_cookie":null}`,
		`{"tp":{"Ping":"a","Pong":"b"},"session_cookie":null}`,
		`{"tp":{"Nonsense":"x"},"session_cookie":null}`,
		`{"tp":{"SignIn":["only","two"]},"session_cookie":null}`,
		`{"tp":{"GetMessages":["id","ch","not-a-number"]},"session_cookie":null}`,
	}
	for _, raw := range bad {
		var req Request
		if err := json.Unmarshal([]byte(raw), &req); err == nil {
			t.Errorf("unmarshal %s: expected error", raw)
		}
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID(testID); err != nil {
		t.Errorf("ParseID(%q): %v", testID, err)
	}
	for _, bad := range []string{"", "short", testID + "00", "0123456789ABCDEF01234567", "0123456789abcdef0123456g"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q): expected error", bad)
		}
	}
}

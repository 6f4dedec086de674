package transport

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/guildd/guildd/internal/framing"
	"github.com/guildd/guildd/internal/wire"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := New(a), New(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func TestWriteThenReadRequest(t *testing.T) {
	client, server := pipePair(t)

	done := make(chan error, 1)
	go func() {
		done <- client.WriteValue(wire.Request{Type: wire.Ping{Data: "hello"}})
	}()

	req, err := server.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	ping, ok := req.Type.(wire.Ping)
	if !ok {
		t.Fatalf("type = %T, want Ping", req.Type)
	}
	if ping.Data != "hello" {
		t.Errorf("data = %q", ping.Data)
	}
	if req.Cookie != nil {
		t.Errorf("cookie = %v, want nil", req.Cookie)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
}

func TestReadAcrossShortReads(t *testing.T) {
	client, server := pipePair(t)

	frame, err := framing.EncodeValue(wire.Success{})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}

	// Deliver the frame one byte at a time.
	go func() {
		raw := client.c
		for _, b := range frame {
			if _, err := raw.Write([]byte{b}); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	resp, err := server.ReadResponse()
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if _, ok := resp.(wire.Success); !ok {
		t.Errorf("response = %T, want Success", resp)
	}
}

func TestReadClosedMidFrame(t *testing.T) {
	client, server := pipePair(t)

	go func() {
		client.c.Write([]byte("00000")) // partial length prefix
		client.Close()
	}()

	if _, err := server.ReadRequest(); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
}

func TestReadBadFrame(t *testing.T) {
	client, server := pipePair(t)

	go func() {
		client.c.Write([]byte("zzzzzzz{}"))
	}()

	if _, err := server.ReadRequest(); err == nil {
		t.Fatal("expected decode error")
	}
}

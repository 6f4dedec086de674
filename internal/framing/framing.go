// Package framing implements the length-prefixed JSON frame format:
// 7 left-zero-padded ASCII decimal digits encoding the payload length,
// followed by exactly that many bytes of UTF-8 JSON.
package framing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// MaxFrame is the maximum total frame size, header included.
const MaxFrame = 9_999_999

// headerLen is the fixed width of the decimal length prefix.
const headerLen = 7

// ErrFrameTooLarge is returned by Encode when header plus payload
// would exceed MaxFrame.
var ErrFrameTooLarge = errors.New("framing: maximum frame size exceeded")

// Encode wraps a JSON payload in a frame.
func Encode(payload []byte) ([]byte, error) {
	if len(payload)+headerLen > MaxFrame {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, 0, headerLen+len(payload))
	frame = append(frame, []byte(fmt.Sprintf("%07d", len(payload)))...)
	frame = append(frame, payload...)
	return frame, nil
}

// EncodeValue serializes v to JSON and wraps it in a frame.
func EncodeValue(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Encode(payload)
}

// Decode attempts to extract one frame from the front of buf. It returns
// the payload and the number of bytes consumed, or (nil, 0, nil) when buf
// does not yet hold a complete frame. A malformed length prefix is fatal
// for the connection.
func Decode(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) <= headerLen {
		return nil, 0, nil
	}
	length, err := strconv.Atoi(string(buf[:headerLen]))
	if err != nil {
		return nil, 0, fmt.Errorf("framing: bad length prefix: %w", err)
	}
	if length < 0 {
		return nil, 0, fmt.Errorf("framing: negative length prefix %d", length)
	}
	if len(buf) < length+headerLen {
		return nil, 0, nil
	}
	return buf[headerLen : headerLen+length], length + headerLen, nil
}

// DecodeValue extracts one frame and unmarshals its payload into out.
// It returns false when buf does not yet hold a complete frame.
func DecodeValue(buf []byte, out any) (consumed int, ok bool, err error) {
	payload, consumed, err := Decode(buf)
	if err != nil {
		return 0, false, err
	}
	if consumed == 0 {
		return 0, false, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return 0, false, fmt.Errorf("framing: bad payload: %w", err)
	}
	return consumed, true, nil
}

package wire

import (
	"errors"
	"fmt"
)

// ID is a 24-character lowercase hex identifier, the hex form of the
// document store's native object id. User ids, guild ids and session
// cookies all share this format.
type ID string

// ErrInvalidID is returned when a string is not a well-formed ID.
// The handler surfaces it as BadRequest.
var ErrInvalidID = errors.New("wire: invalid id")

// ParseID validates s and returns it as an ID.
func ParseID(s string) (ID, error) {
	if len(s) != 24 {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }

// Valid reports whether the ID is well formed.
func (id ID) Valid() bool {
	_, err := ParseID(string(id))
	return err == nil
}

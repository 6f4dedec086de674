package wire

import "fmt"

// ErrorKind is the error taxonomy surfaced to clients inside
// Response Error variants. The set is closed; anything unexpected
// collapses to InternalServerError before it reaches the wire.
type ErrorKind string

const (
	ErrInternalServerError ErrorKind = "InternalServerError"
	ErrPermissionDenied    ErrorKind = "PermissionDenied"
	ErrSessionExpired      ErrorKind = "SessionExpired"
	ErrInvalidCredentials  ErrorKind = "InvalidCredentials"
	ErrBadRequest          ErrorKind = "BadRequest"
)

// ParseErrorKind maps a wire tag back onto an ErrorKind.
func ParseErrorKind(s string) (ErrorKind, error) {
	switch k := ErrorKind(s); k {
	case ErrInternalServerError, ErrPermissionDenied, ErrSessionExpired,
		ErrInvalidCredentials, ErrBadRequest:
		return k, nil
	}
	return "", fmt.Errorf("wire: unknown error kind %q", s)
}

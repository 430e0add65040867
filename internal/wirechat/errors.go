package wirechat

import "errors"

var (
	ErrClosed        = errors.New("connection closed")
	ErrNotRegistered = errors.New("not registered")
	ErrRejected      = errors.New("rejected by server")
	ErrEmptyNick     = errors.New("nickname is empty")
	ErrNoRoom        = errors.New("no active room")
	ErrNotJoined     = errors.New("not joined to room")
	ErrBadRoom       = errors.New("room name must be a single word")
	ErrTokenExpired  = errors.New("token expired")
)

// ServerError is an error frame the server sent in reply to a request.
type ServerError struct {
	Code string
	Msg  string
}

func (e *ServerError) Error() string {
	if e.Code == "" {
		return e.Msg
	}
	return e.Msg + " (" + e.Code + ")"
}

// Unwrap lets callers match any server refusal with errors.Is(err, ErrRejected).
func (e *ServerError) Unwrap() error {
	return ErrRejected
}

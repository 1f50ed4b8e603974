// internal/link/errors.go
package link

import (
	"fmt"

	"github.com/juju/errors"
)

var (
	// ErrNoWriteChannel: no open channel exists for command transmission.
	ErrNoWriteChannel = errors.New("no channel available to send commands")

	// ErrNotConnected: reception requested without connectivity.
	ErrNotConnected = errors.New("link not connected")
)

// ConnectError is returned when the transport cannot be opened.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

// Cause lets errors.Cause see through to the transport failure.
func (e *ConnectError) Cause() error { return errors.Cause(e.Err) }

// SessionError is returned by start/stop receiving.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Cause() error { return errors.Cause(e.Err) }

// IsNoWriteChannel reports whether err is (or wraps) ErrNoWriteChannel.
func IsNoWriteChannel(err error) bool {
	return err != nil && errors.Cause(err) == ErrNoWriteChannel
}

// internal/link/session.go
package link

import (
	"context"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/iec104-driver/internal/command"
)

type Connectivity uint8

const (
	Disconnected Connectivity = iota
	Connected
)

func (c Connectivity) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

type Reception uint8

const (
	Stopped Reception = iota
	Receiving
)

func (r Reception) String() string {
	if r == Receiving {
		return "receiving"
	}
	return "stopped"
}

// State is the controller's view of the link.
// Invariant: Reception == Receiving implies Connectivity == Connected.
type State struct {
	Connectivity Connectivity
	Reception    Reception
}

// Session is the single owner of link lifecycle state.
// Not safe for concurrent use: one goroutine drives it.
type Session struct {
	link     Link
	endpoint string
	state    State
	log      logrus.FieldLogger
}

func NewSession(l Link, endpoint string, log logrus.FieldLogger) *Session {
	return &Session{
		link:     l,
		endpoint: endpoint,
		log:      log.WithField("endpoint", endpoint),
	}
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.state }

// Observe folds transport loss reported by the link into the state and
// returns it. A lost transport drops the session back to Disconnected;
// only Connect brings it back.
func (s *Session) Observe() State {
	if s.state.Connectivity != Connected {
		return s.state
	}
	w, ok := s.link.(TransportWatcher)
	if !ok || w.TransportUp() {
		return s.state
	}

	s.state = State{}
	s.log.Warn("link transport lost")
	return s.state
}

// Connect establishes connectivity. Already connected is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	if s.state.Connectivity == Connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectError{Endpoint: s.endpoint, Err: err}
	}

	if err := s.link.Connect(ctx); err != nil {
		return &ConnectError{Endpoint: s.endpoint, Err: err}
	}

	s.state.Connectivity = Connected
	s.log.Info("link connected")
	return nil
}

// StartReceiving begins inbound dispatch. Already receiving is a no-op.
func (s *Session) StartReceiving(ctx context.Context) error {
	if s.state.Connectivity != Connected {
		return &SessionError{Op: "start_receiving", Err: ErrNotConnected}
	}
	if s.state.Reception == Receiving {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &SessionError{Op: "start_receiving", Err: err}
	}

	if err := s.link.StartReceiving(ctx); err != nil {
		return &SessionError{Op: "start_receiving", Err: err}
	}

	s.state.Reception = Receiving
	s.log.Debug("reception started")
	return nil
}

// StopReceiving halts inbound dispatch; transport stays open.
// Already stopped (or disconnected) is a no-op.
func (s *Session) StopReceiving(ctx context.Context) error {
	if s.state.Reception == Stopped {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &SessionError{Op: "stop_receiving", Err: err}
	}

	if err := s.link.StopReceiving(ctx); err != nil {
		return &SessionError{Op: "stop_receiving", Err: err}
	}

	s.state.Reception = Stopped
	s.log.Debug("reception stopped")
	return nil
}

// Send transmits one command. No implicit reconnect.
func (s *Session) Send(ctx context.Context, spec command.Spec) error {
	if s.state.Connectivity != Connected {
		return errors.Annotatef(ErrNoWriteChannel, "send %s", spec)
	}
	if err := ctx.Err(); err != nil {
		return errors.Annotatef(err, "send %s", spec)
	}

	var err error
	q := spec.Qualifiers

	switch spec.Kind {
	case command.KindSingle:
		err = s.link.SendSingle(ctx, spec.CommonAddr, spec.IOA, spec.Single, q)
	case command.KindDouble:
		err = s.link.SendDouble(ctx, spec.CommonAddr, spec.IOA, spec.Double, q)
	case command.KindStep:
		err = s.link.SendStep(ctx, spec.CommonAddr, spec.IOA, spec.Step, q)
	case command.KindBitstring:
		err = s.link.SendBitstring(ctx, spec.CommonAddr, spec.IOA, spec.Bitstring, q)
	default:
		return errors.NotValidf("command kind %d", uint8(spec.Kind))
	}

	if err != nil {
		return errors.Annotatef(err, "send %s", spec)
	}
	return nil
}

// Close tears the link down. Best effort; used after the loop has returned.
func (s *Session) Close() error {
	s.state = State{}
	return errors.Trace(s.link.Close())
}

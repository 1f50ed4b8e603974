// internal/link/link.go
package link

import (
	"context"
	"time"

	"github.com/tamzrod/iec104-driver/internal/command"
)

// Link abstracts the protocol library that owns the transport.
// Every method may block on network I/O.
type Link interface {
	Connect(ctx context.Context) error
	StartReceiving(ctx context.Context) error
	StopReceiving(ctx context.Context) error

	SendSingle(ctx context.Context, ca, ioa uint16, v bool, q command.Qualifiers) error
	SendDouble(ctx context.Context, ca, ioa uint16, v command.DoubleValue, q command.Qualifiers) error
	SendStep(ctx context.Context, ca, ioa uint16, v command.StepValue, q command.Qualifiers) error
	SendBitstring(ctx context.Context, ca, ioa uint16, v uint32, q command.Qualifiers) error

	Close() error
}

// Object is one received application data unit, reduced to routing facts.
// Payload decoding belongs to the protocol library.
type Object struct {
	At         time.Time
	TypeID     uint8
	TypeName   string
	Cause      string
	CommonAddr uint16
	Count      int
	Sequence   bool
}

// ObjectSink receives inbound objects on the link's receive path.
// HandleObject MUST NOT block.
type ObjectSink interface {
	HandleObject(o Object)
}

// SinkFunc adapts a plain function to ObjectSink.
type SinkFunc func(o Object)

func (f SinkFunc) HandleObject(o Object) { f(o) }

// TransportWatcher is implemented by links that learn about transport
// loss outside of a call, from the library's own receive path.
type TransportWatcher interface {
	TransportUp() bool
}

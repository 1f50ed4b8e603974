// internal/link/linktest/fake.go
package linktest

import (
	"context"
	"sync"

	"github.com/tamzrod/iec104-driver/internal/command"
)

// Call is one recorded collaborator call.
type Call struct {
	Op   string // connect | start | stop | SP | DP | RC | BS | close
	CA   uint16
	IOA  uint16
	Spec command.Qualifiers
}

// Link is a recording fake of link.Link.
// Hooks run under the lock; they must not call back into the fake.
type Link struct {
	mu    sync.Mutex
	calls []Call
	sends int

	ConnectErr error
	StartErr   error
	StopErr    error

	// SendErr is consulted per send with the 1-based send index.
	SendErr func(n int, c Call) error

	// AfterSend runs after every send with the 1-based send index.
	AfterSend func(n int)

	down bool
}

func (f *Link) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *Link) send(c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.sends++
	n := f.sends
	var err error
	if f.SendErr != nil {
		err = f.SendErr(n, c)
	}
	after := f.AfterSend
	f.mu.Unlock()

	if after != nil {
		after(n)
	}
	return err
}

// Calls returns a copy of all recorded calls.
func (f *Link) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Ops returns the op names of all recorded calls, optionally filtered.
func (f *Link) Ops(only ...string) []string {
	keep := map[string]bool{}
	for _, o := range only {
		keep[o] = true
	}
	var out []string
	for _, c := range f.Calls() {
		if len(keep) == 0 || keep[c.Op] {
			out = append(out, c.Op)
		}
	}
	return out
}

// Sends returns the number of send calls so far.
func (f *Link) Sends() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

// SetTransportDown simulates the library losing (or regaining) the transport.
func (f *Link) SetTransportDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

// TransportUp implements link.TransportWatcher.
func (f *Link) TransportUp() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.down
}

// ---- link.Link ----

func (f *Link) Connect(ctx context.Context) error {
	f.record(Call{Op: "connect"})
	return f.ConnectErr
}

func (f *Link) StartReceiving(ctx context.Context) error {
	f.record(Call{Op: "start"})
	return f.StartErr
}

func (f *Link) StopReceiving(ctx context.Context) error {
	f.record(Call{Op: "stop"})
	return f.StopErr
}

func (f *Link) SendSingle(ctx context.Context, ca, ioa uint16, v bool, q command.Qualifiers) error {
	return f.send(Call{Op: "SP", CA: ca, IOA: ioa, Spec: q})
}

func (f *Link) SendDouble(ctx context.Context, ca, ioa uint16, v command.DoubleValue, q command.Qualifiers) error {
	return f.send(Call{Op: "DP", CA: ca, IOA: ioa, Spec: q})
}

func (f *Link) SendStep(ctx context.Context, ca, ioa uint16, v command.StepValue, q command.Qualifiers) error {
	return f.send(Call{Op: "RC", CA: ca, IOA: ioa, Spec: q})
}

func (f *Link) SendBitstring(ctx context.Context, ca, ioa uint16, v uint32, q command.Qualifiers) error {
	return f.send(Call{Op: "BS", CA: ca, IOA: ioa, Spec: q})
}

func (f *Link) Close() error {
	f.record(Call{Op: "close"})
	return nil
}

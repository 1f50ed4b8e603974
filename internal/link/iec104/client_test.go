// internal/link/iec104/client_test.go
package iec104

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thinkgos/go-iecp5/asdu"
	"github.com/thinkgos/go-iecp5/cs104"

	"github.com/tamzrod/iec104-driver/internal/command"
	"github.com/tamzrod/iec104-driver/internal/link"
)

func TestMapSendErr(t *testing.T) {
	assert.NoError(t, mapSendErr(nil))

	err := mapSendErr(cs104.ErrUseClosedConnection)
	assert.True(t, link.IsNoWriteChannel(err), "err=%v", err)

	err = mapSendErr(errors.New("buffer is full"))
	require.Error(t, err)
	assert.False(t, link.IsNoWriteChannel(err))
}

func TestQOC(t *testing.T) {
	q := qoc(command.Qualifiers{Select: true, Duration: command.DurationPersistent})
	assert.True(t, q.InSelect)
	assert.Equal(t, asdu.QOCPersistentOutput, q.Qual)

	q = qoc(command.Qualifiers{})
	assert.False(t, q.InSelect)
	assert.Equal(t, asdu.QOCNoAdditionalDefinition, q.Qual)
}

func TestToObject(t *testing.T) {
	at := time.Unix(1700000000, 0)
	a := &asdu.ASDU{
		Identifier: asdu.Identifier{
			Type:       asdu.M_SP_NA_1,
			Variable:   asdu.VariableStruct{IsSequence: true, Number: 3},
			Coa:        asdu.CauseOfTransmission{Cause: asdu.Spontaneous},
			CommonAddr: 47,
		},
	}

	o := toObject(a, at)
	assert.Equal(t, at, o.At)
	assert.Equal(t, uint8(asdu.M_SP_NA_1), o.TypeID)
	assert.Equal(t, uint16(47), o.CommonAddr)
	assert.Equal(t, 3, o.Count)
	assert.True(t, o.Sequence)
	assert.NotEmpty(t, o.TypeName)
	assert.NotEmpty(t, o.Cause)
}

func TestDispatch_GatedByReception(t *testing.T) {
	var got []link.Object
	sink := link.SinkFunc(func(o link.Object) { got = append(got, o) })

	l, _ := test.NewNullLogger()
	c, err := New(Config{Endpoint: "127.0.0.1:2404"}, sink, l)
	require.NoError(t, err)

	h := &handler{c: c}
	a := &asdu.ASDU{Identifier: asdu.Identifier{Type: asdu.M_ME_NC_1, CommonAddr: 1}}

	require.NoError(t, h.ASDUHandler(nil, a))
	assert.Empty(t, got, "stopped reception must not dispatch")

	c.receiving.Store(true)
	require.NoError(t, h.ASDUHandler(nil, a))
	require.NoError(t, h.InterrogationHandler(nil, a))
	assert.Len(t, got, 2)
}

func TestNew_EndpointRequired(t *testing.T) {
	l, _ := test.NewNullLogger()
	_, err := New(Config{}, nil, l)
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err))
}

func TestStartReceiving_NotConnected(t *testing.T) {
	l, _ := test.NewNullLogger()
	c, err := New(Config{Endpoint: "127.0.0.1:2404"}, nil, l)
	require.NoError(t, err)

	err = c.StartReceiving(context.Background())
	require.Error(t, err)
	assert.Equal(t, link.ErrNotConnected, errors.Cause(err))
	assert.False(t, c.receiving.Load())
}

func TestDialHost(t *testing.T) {
	for in, want := range map[string]string{
		"10.0.0.5:2404":        "10.0.0.5:2404",
		":2404":                "127.0.0.1:2404",
		"tcp://rtu.local:2404": "rtu.local:2404",
	} {
		got, err := dialHost(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCancelledContextWinsOverLinkState(t *testing.T) {
	l, _ := test.NewNullLogger()
	c, err := New(Config{Endpoint: "127.0.0.1:2404"}, nil, l)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.SendSingle(ctx, 1, 1, true, command.Qualifiers{})
	assert.Equal(t, context.Canceled, errors.Cause(err))
	assert.False(t, link.IsNoWriteChannel(err))

	assert.Equal(t, context.Canceled, errors.Cause(c.SendDouble(ctx, 1, 1, command.DoubleOn, command.Qualifiers{})))
	assert.Equal(t, context.Canceled, errors.Cause(c.SendStep(ctx, 1, 1, command.StepIncrement, command.Qualifiers{})))
	assert.Equal(t, context.Canceled, errors.Cause(c.SendBitstring(ctx, 1, 1, 1, command.Qualifiers{})))
	assert.Equal(t, context.Canceled, errors.Cause(c.StartReceiving(ctx)))
	assert.Equal(t, context.Canceled, errors.Cause(c.StopReceiving(ctx)))
}

// freeAddr returns a loopback address nothing listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestConnect_RefusedFailsFast(t *testing.T) {
	l, _ := test.NewNullLogger()
	addr := freeAddr(t)
	c, err := New(Config{Endpoint: addr, ConnectTimeout: 5 * time.Second}, nil, l)
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, errors.IsTimeout(err), "err=%v", err)
	assert.Contains(t, err.Error(), addr)
	assert.False(t, c.started, "library must not start after a failed dial")
}

// station is a controlled station that records the command types it receives.
type station struct {
	mu    sync.Mutex
	types []asdu.TypeID
}

func (s *station) record(a *asdu.ASDU) {
	s.mu.Lock()
	s.types = append(s.types, a.Identifier.Type)
	s.mu.Unlock()
}

func (s *station) received() []asdu.TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]asdu.TypeID, len(s.types))
	copy(out, s.types)
	return out
}

func (s *station) InterrogationHandler(asdu.Connect, *asdu.ASDU, asdu.QualifierOfInterrogation) error {
	return nil
}

func (s *station) CounterInterrogationHandler(asdu.Connect, *asdu.ASDU, asdu.QualifierCountCall) error {
	return nil
}

func (s *station) ReadHandler(asdu.Connect, *asdu.ASDU, asdu.InfoObjAddr) error { return nil }

func (s *station) ClockSyncHandler(asdu.Connect, *asdu.ASDU, time.Time) error { return nil }

func (s *station) ResetProcessHandler(asdu.Connect, *asdu.ASDU, asdu.QualifierOfResetProcessCmd) error {
	return nil
}

func (s *station) DelayAcquisitionHandler(asdu.Connect, *asdu.ASDU, uint16) error { return nil }

func (s *station) ASDUHandler(_ asdu.Connect, a *asdu.ASDU) error {
	s.record(a)
	return nil
}

func TestClient_LoopbackStation(t *testing.T) {
	addr := freeAddr(t)

	st := &station{}
	srv := cs104.NewServer(st)
	go srv.ListenAndServer(addr)
	defer srv.Close()

	l, _ := test.NewNullLogger()
	c, err := New(Config{Endpoint: addr, ConnectTimeout: 2 * time.Second}, nil, l)
	require.NoError(t, err)
	ctx := context.Background()

	// the listener comes up asynchronously
	require.Eventually(t, func() bool {
		return c.Connect(ctx) == nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, c.TransportUp())

	require.NoError(t, c.StartReceiving(ctx))
	q := command.Qualifiers{}

	// I-frames are refused until STARTDT is confirmed
	require.Eventually(t, func() bool {
		return c.SendStep(ctx, 47, 13, command.StepIncrement, q) == nil
	}, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, c.SendSingle(ctx, 47, 14, true, q))
	require.NoError(t, c.SendDouble(ctx, 47, 15, command.DoubleOn, q))
	require.NoError(t, c.SendBitstring(ctx, 47, 16, 1, q))

	want := []asdu.TypeID{asdu.C_RC_NA_1, asdu.C_SC_NA_1, asdu.C_DC_NA_1, asdu.C_BO_NA_1}
	require.Eventually(t, func() bool {
		return len(st.received()) >= len(want)
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, st.received())

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool {
		return link.IsNoWriteChannel(c.SendSingle(ctx, 47, 14, true, q))
	}, 3*time.Second, 10*time.Millisecond)
	assert.False(t, c.TransportUp())
}

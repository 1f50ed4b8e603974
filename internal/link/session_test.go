// internal/link/session_test.go
package link_test

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/iec104-driver/internal/command"
	"github.com/tamzrod/iec104-driver/internal/link"
	"github.com/tamzrod/iec104-driver/internal/link/linktest"
)

func newSession(f *linktest.Link) *link.Session {
	l, _ := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return link.NewSession(f, "fake:2404", l)
}

func TestSession_ConnectThenStart(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.StartReceiving(ctx))

	assert.Equal(t, link.State{Connectivity: link.Connected, Reception: link.Receiving}, s.State())
	assert.Equal(t, []string{"connect", "start"}, f.Ops())
}

func TestSession_StartRequiresConnection(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)

	err := s.StartReceiving(context.Background())
	require.Error(t, err)

	se, ok := err.(*link.SessionError)
	require.True(t, ok, "err=%T", err)
	assert.Equal(t, "start_receiving", se.Op)
	assert.Equal(t, link.ErrNotConnected, errors.Cause(err))
	assert.Empty(t, f.Ops(), "collaborator must not be called")
	assert.Equal(t, link.Stopped, s.State().Reception)
}

func TestSession_ConnectFailure(t *testing.T) {
	f := &linktest.Link{ConnectErr: errors.New("connection refused")}
	s := newSession(f)

	err := s.Connect(context.Background())
	require.Error(t, err)
	ce, ok := err.(*link.ConnectError)
	require.True(t, ok, "err=%T", err)
	assert.Equal(t, "fake:2404", ce.Endpoint)
	assert.Equal(t, link.Disconnected, s.State().Connectivity)
}

func TestSession_StopIdempotent(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()

	// stopped + disconnected
	require.NoError(t, s.StopReceiving(ctx))

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.StartReceiving(ctx))
	require.NoError(t, s.StopReceiving(ctx))
	require.NoError(t, s.StopReceiving(ctx))

	assert.Equal(t, []string{"connect", "start", "stop"}, f.Ops())
	assert.Equal(t, link.Stopped, s.State().Reception)
}

func TestSession_StartIdempotent(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.StartReceiving(ctx))
	require.NoError(t, s.StartReceiving(ctx))
	require.NoError(t, s.Connect(ctx))

	assert.Equal(t, []string{"connect", "start"}, f.Ops())
}

func TestSession_FailedStopKeepsState(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.StartReceiving(ctx))

	f.StopErr = errors.New("t1 timeout")
	require.Error(t, s.StopReceiving(ctx))
	assert.Equal(t, link.Receiving, s.State().Reception)
}

func TestSession_CancelledContextDoesNotStart(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.Connect(ctx))
	assert.Empty(t, f.Ops())
	assert.Equal(t, link.State{}, s.State())
}

func TestSession_SendDispatchByKind(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))

	batch := command.Batch{
		{Kind: command.KindStep, CommonAddr: 47, IOA: 13, Step: command.StepIncrement},
		{Kind: command.KindSingle, CommonAddr: 47, IOA: 14, Single: true},
		{Kind: command.KindDouble, CommonAddr: 47, IOA: 15, Double: command.DoubleOn},
		{Kind: command.KindBitstring, CommonAddr: 47, IOA: 16, Bitstring: 1},
	}
	for _, spec := range batch {
		require.NoError(t, s.Send(ctx, spec))
	}

	calls := f.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, []string{"RC", "SP", "DP", "BS"}, f.Ops("RC", "SP", "DP", "BS"))
	assert.Equal(t, uint16(16), calls[4].IOA)
	assert.Equal(t, uint16(47), calls[4].CA)
}

func TestSession_SendWithoutConnectionIsNoWriteChannel(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)

	err := s.Send(context.Background(), command.Spec{Kind: command.KindSingle, CommonAddr: 1, IOA: 1})
	require.Error(t, err)
	assert.True(t, link.IsNoWriteChannel(err))
	assert.Equal(t, 0, f.Sends())
}

func TestSession_SendErrorKeepsCause(t *testing.T) {
	f := &linktest.Link{
		SendErr: func(n int, c linktest.Call) error {
			return errors.Annotate(link.ErrNoWriteChannel, "closed")
		},
	}
	s := newSession(f)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))

	err := s.Send(ctx, command.Spec{Kind: command.KindDouble, CommonAddr: 1, IOA: 1, Double: command.DoubleOff})
	require.Error(t, err)
	assert.True(t, link.IsNoWriteChannel(err))
}

func TestSession_ObserveTransportLoss(t *testing.T) {
	f := &linktest.Link{}
	s := newSession(f)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.StartReceiving(ctx))
	assert.Equal(t, link.State{Connectivity: link.Connected, Reception: link.Receiving}, s.Observe())

	f.SetTransportDown(true)
	assert.Equal(t, link.State{}, s.Observe())
	assert.Equal(t, link.State{}, s.State())

	// library reconnects on its own; the session does not follow
	f.SetTransportDown(false)
	assert.Equal(t, link.Disconnected, s.Observe().Connectivity)

	err := s.Send(ctx, command.Spec{Kind: command.KindSingle, CommonAddr: 1, IOA: 1})
	assert.True(t, link.IsNoWriteChannel(err))

	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, link.Connected, s.Observe().Connectivity)
	assert.Equal(t, []string{"connect", "start", "connect"}, f.Ops())
}

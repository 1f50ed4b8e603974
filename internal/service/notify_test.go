// internal/service/notify_test.go
package service

import (
	"testing"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_States(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	var states []string
	n := NewNotifier(logger)
	n.notify = func(_ bool, state string) (bool, error) {
		states = append(states, state)
		return true, nil
	}

	n.Ready()
	n.Watchdog()
	n.Stopping()

	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyWatchdog, daemon.SdNotifyStopping}, states)
}

func TestNotifier_ErrorIsLoggedNotFatal(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	n := NewNotifier(logger)
	n.notify = func(bool, string) (bool, error) { return false, errors.New("socket gone") }
	n.Ready()

	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.WarnLevel, e.Level)
}

func TestNotifier_NoSocketIsNoop(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	logger, hook := logtest.NewNullLogger()

	NewNotifier(logger).Ready()
	assert.Empty(t, hook.AllEntries())
}

// internal/service/notify.go
package service

import (
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/sirupsen/logrus"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier reports lifecycle to the service manager.
// Outside systemd (no NOTIFY_SOCKET) every call is a no-op.
type Notifier struct {
	notify notifyFunc
	log    logrus.FieldLogger
}

func NewNotifier(log logrus.FieldLogger) *Notifier {
	return &Notifier{notify: daemon.SdNotify, log: log.WithField("component", "systemd")}
}

func (n *Notifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *Notifier) Watchdog() { n.send(daemon.SdNotifyWatchdog) }
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		n.log.WithError(err).WithField("state", state).Warn("sd_notify failed")
		return
	}
	if sent && state != daemon.SdNotifyWatchdog {
		n.log.WithField("state", state).Debug("sd_notify")
	}
}

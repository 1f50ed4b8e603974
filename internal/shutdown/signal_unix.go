// internal/shutdown/signal_unix.go
//go:build !windows

package shutdown

import (
	"os"

	"golang.org/x/sys/unix"
)

func terminationSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM}
}

func signalReason(s os.Signal) string {
	switch s {
	case unix.SIGINT:
		return "SIGINT/Ctrl+C"
	case unix.SIGTERM:
		return "SIGTERM"
	}
	return s.String()
}

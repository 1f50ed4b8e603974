// internal/shutdown/signal_windows.go
//go:build windows

package shutdown

import (
	"os"
	"syscall"
)

// Ctrl+C and Ctrl+Break both arrive as os.Interrupt; console close and
// service stop arrive as SIGTERM.
func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

func signalReason(s os.Signal) string {
	if s == os.Interrupt {
		return "Ctrl+C"
	}
	return s.String()
}

// internal/shutdown/shutdown.go
package shutdown

import (
	"os"
	"os/signal"
	"sync"

	"github.com/temoto/alive/v2"
)

// Token is a process-wide cancellation event.
// Armed at construction, fires at most once, terminal after firing.
type Token struct {
	alive *alive.Alive

	once   sync.Once
	mu     sync.Mutex
	reason string

	sigCh chan os.Signal
	quit  chan struct{}
}

func New() *Token {
	return &Token{
		alive: alive.NewAlive(),
		quit:  make(chan struct{}),
	}
}

// Fire trips the token. Only the first reason is kept.
func (t *Token) Fire(reason string) {
	t.once.Do(func() {
		t.mu.Lock()
		t.reason = reason
		t.mu.Unlock()
	})
	t.alive.Stop()
}

// Done is closed once the token fires.
func (t *Token) Done() <-chan struct{} { return t.alive.StopChan() }

// Fired reports whether the token has fired.
func (t *Token) Fired() bool { return !t.alive.IsRunning() }

// Reason returns the originating reason, empty before firing.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Watch subscribes the platform termination signals and fires the token on the
// first one delivered. Platform selection lives in signal_*.go.
func (t *Token) Watch() {
	t.sigCh = make(chan os.Signal, 1)
	signal.Notify(t.sigCh, terminationSignals()...)

	go func() {
		select {
		case s := <-t.sigCh:
			t.Fire(signalReason(s))
		case <-t.quit:
		}
	}()
}

// Close unsubscribes signals. The token keeps its fired state.
func (t *Token) Close() {
	if t.sigCh != nil {
		signal.Stop(t.sigCh)
	}
	select {
	case <-t.quit:
	default:
		close(t.quit)
	}
}

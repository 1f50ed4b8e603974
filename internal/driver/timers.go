// internal/driver/timers.go
package driver

import (
	"time"

	cfg "github.com/tamzrod/iec104-driver/internal/config"
)

// RearmPolicy decides the delay before each firing of a timer.
// First applies once at arm time, Then after every firing.
type RearmPolicy struct {
	First time.Duration
	Then  time.Duration
}

// Repeating fires every d.
func Repeating(d time.Duration) RearmPolicy {
	return RearmPolicy{First: d, Then: d}
}

// OneShotThenReschedule fires once after first, then every cooldown.
func OneShotThenReschedule(first, cooldown time.Duration) RearmPolicy {
	return RearmPolicy{First: first, Then: cooldown}
}

// Timers is the injected set of loop intervals.
type Timers struct {
	Heartbeat RearmPolicy
	Stop      RearmPolicy
	Restart   RearmPolicy
}

// TimersFromConfig converts normalized millisecond config into policies.
func TimersFromConfig(t cfg.TimersConfig) Timers {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return Timers{
		Heartbeat: Repeating(ms(t.HeartbeatMs)),
		Stop:      OneShotThenReschedule(ms(t.StopMs), ms(t.StopCooldownMs)),
		Restart:   OneShotThenReschedule(ms(t.RestartMs), ms(t.RestartCooldownMs)),
	}
}

// Timer is a deadline that fires once per arm. The loop rearms it at the
// firing instant; missed deadlines are not coalesced or replayed.
// Owned by the loop goroutine.
type Timer struct {
	policy   RearmPolicy
	t        *time.Timer
	deadline time.Time
}

func newTimer(p RearmPolicy) *Timer {
	return &Timer{
		policy:   p,
		t:        time.NewTimer(p.First),
		deadline: time.Now().Add(p.First),
	}
}

// C delivers one value per deadline.
func (t *Timer) C() <-chan time.Time { return t.t.C }

// Rearm must only be called after a value was received from C.
func (t *Timer) Rearm() {
	t.t.Reset(t.policy.Then)
	t.deadline = time.Now().Add(t.policy.Then)
}

// Deadline is the next expected firing.
func (t *Timer) Deadline() time.Time { return t.deadline }

func (t *Timer) Stop() { t.t.Stop() }

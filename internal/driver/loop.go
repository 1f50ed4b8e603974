// internal/driver/loop.go
package driver

import (
	"context"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/iec104-driver/internal/command"
	"github.com/tamzrod/iec104-driver/internal/link"
	"github.com/tamzrod/iec104-driver/internal/status"
	"github.com/tamzrod/iec104-driver/internal/writer"
)

// Canceller is the shutdown source observed by the loop.
type Canceller interface {
	Done() <-chan struct{}
	Reason() string
}

// Notifier receives a liveness ping on every heartbeat.
type Notifier interface {
	Watchdog()
}

// Options wires a Driver. Session, Batch, Token and Log are required.
type Options struct {
	Session *link.Session
	Batch   command.Batch
	Timers  Timers
	Token   Canceller
	Status  writer.StatusWriter // optional
	Notify  Notifier            // optional
	Log     logrus.FieldLogger
}

// Driver is the orchestration loop. One goroutine owns the session,
// the timers and the status snapshot.
type Driver struct {
	session *link.Session
	batch   command.Batch
	timers  Timers
	token   Canceller
	status  writer.StatusWriter
	notify  Notifier
	log     logrus.FieldLogger

	snap status.Snapshot
}

func New(o Options) (*Driver, error) {
	if o.Session == nil {
		return nil, errors.NotValidf("nil session")
	}
	if len(o.Batch) == 0 {
		return nil, errors.NotValidf("empty command batch")
	}
	if o.Token == nil {
		return nil, errors.NotValidf("nil shutdown token")
	}
	if o.Log == nil {
		return nil, errors.NotValidf("nil logger")
	}
	for name, p := range map[string]RearmPolicy{
		"heartbeat": o.Timers.Heartbeat,
		"stop":      o.Timers.Stop,
		"restart":   o.Timers.Restart,
	} {
		if p.First <= 0 || p.Then <= 0 {
			return nil, errors.NotValidf("%s timer %v", name, p)
		}
	}

	return &Driver{
		session: o.Session,
		batch:   o.Batch,
		timers:  o.Timers,
		token:   o.Token,
		status:  o.Status,
		notify:  o.Notify,
		log:     o.Log,
		snap:    status.Snapshot{Health: status.HealthUnknown},
	}, nil
}

// Run brings the link up and drives it until cancellation or a fatal
// outcome. Cancellation returns nil and leaves the link as it is;
// the caller owns teardown.
//
// The status snapshot is published once per handler, after the handler
// completed or aborted, so a restart is never observed half done.
func (d *Driver) Run(ctx context.Context) error {
	defer d.publish(func(s *status.Snapshot) { s.Health = status.HealthShutdown })

	// Full block write on start (identity re-assert) if enabled.
	d.publish(nil)

	// --------------------
	// Startup: fatal on any failure
	// --------------------

	if err := d.session.Connect(ctx); err != nil {
		d.note(err)
		return errors.Annotate(err, "startup")
	}
	if err := d.session.StartReceiving(ctx); err != nil {
		d.note(err)
		return errors.Annotate(err, "startup")
	}
	d.note(nil)
	d.publish(nil)

	heartbeat := newTimer(d.timers.Heartbeat)
	stop := newTimer(d.timers.Stop)
	restart := newTimer(d.timers.Restart)
	defer heartbeat.Stop()
	defer stop.Stop()
	defer restart.Stop()

	d.log.WithFields(logrus.Fields{
		"heartbeat":  d.timers.Heartbeat.First,
		"stop_at":    stop.Deadline().Format("15:04:05"),
		"restart_at": restart.Deadline().Format("15:04:05"),
		"commands":   len(d.batch),
	}).Info("driver loop started")

	for {
		// Cancellation wins over any timer that is ready at the same time.
		if d.cancelled(ctx) {
			return nil
		}

		var err error

		select {
		case <-d.token.Done():
			d.cancelled(ctx)
			return nil

		case <-ctx.Done():
			d.cancelled(ctx)
			return nil

		case <-heartbeat.C():
			heartbeat.Rearm()
			if d.notify != nil {
				d.notify.Watchdog()
			}
			err = d.onHeartbeat(ctx)

		case <-stop.C():
			stop.Rearm()
			d.log.WithField("next", stop.Deadline().Format("15:04:05")).Info("stop timer fired")
			err = d.onStop(ctx)

		case <-restart.C():
			restart.Rearm()
			d.log.WithField("next", restart.Deadline().Format("15:04:05")).Info("restart timer fired")
			err = d.onRestart(ctx)
		}

		d.publish(nil)
		if err != nil {
			return err
		}
	}
}

// ------------------------------------------------------------
// Handlers
// ------------------------------------------------------------

// onHeartbeat sends the batch in order. A context cancelled mid-batch
// ends the batch without counting the remaining commands.
func (d *Driver) onHeartbeat(ctx context.Context) error {
	for _, spec := range d.batch {
		if ctx.Err() != nil {
			return nil
		}

		err := d.session.Send(ctx, spec)
		if d.interrupted(ctx, err) {
			return nil
		}

		if err == nil {
			d.snap.CommandsSent++
		} else {
			d.snap.CommandsFailed++
		}
		if abort := d.check("send", err); abort != nil {
			return abort
		}
	}
	return nil
}

func (d *Driver) onStop(ctx context.Context) error {
	err := d.session.StopReceiving(ctx)
	if d.interrupted(ctx, err) {
		return nil
	}
	return d.check("stop_receiving", err)
}

// onRestart is stop then start. A non-fatal stop failure still proceeds
// to the start half. Nothing is published between the two halves.
func (d *Driver) onRestart(ctx context.Context) error {
	err := d.session.StopReceiving(ctx)
	if d.interrupted(ctx, err) {
		return nil
	}
	if abort := d.check("stop_receiving", err); abort != nil {
		return abort
	}

	err = d.session.StartReceiving(ctx)
	if d.interrupted(ctx, err) {
		return nil
	}
	return d.check("start_receiving", err)
}

// check classifies one outcome, records it in the snapshot and returns
// a non-nil error only when the loop must end. No IO.
func (d *Driver) check(op string, err error) error {
	d.note(err)
	if err == nil {
		return nil
	}

	v := Classify(err)
	if v.Abort {
		d.log.WithField("op", op).WithError(err).Error(v.Reason)
		return errors.Annotate(err, v.Reason)
	}

	d.log.WithField("op", op).WithError(err).Error("link operation failed")
	return nil
}

// interrupted reports an outcome caused by our own context ending.
// That is a shutdown, not a link failure.
func (d *Driver) interrupted(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Cause(err) == ctx.Err()
}

// cancelled reports a fired shutdown source and logs its reason.
func (d *Driver) cancelled(ctx context.Context) bool {
	select {
	case <-d.token.Done():
		d.log.WithField("reason", d.token.Reason()).Info("shutdown requested, leaving driver loop")
		return true
	default:
	}
	select {
	case <-ctx.Done():
		d.log.WithError(ctx.Err()).Info("context done, leaving driver loop")
		return true
	default:
	}
	return false
}

// ------------------------------------------------------------
// Status snapshot
// ------------------------------------------------------------

// note records an outcome in the snapshot without publishing it.
func (d *Driver) note(err error) {
	if err == nil {
		d.snap.LastErrorCode = status.ErrorNone
		d.snap.Health = status.HealthOK
		return
	}
	d.snap.LastErrorCode = errorCode(err)
	d.snap.Health = status.HealthError
}

// publish applies mut, refreshes link bits from the observed link state
// and hands the snapshot to the status writer. Write failures are logged,
// never fatal.
func (d *Driver) publish(mut func(*status.Snapshot)) {
	if mut != nil {
		mut(&d.snap)
	}

	st := d.session.Observe()
	d.snap.LinkState = status.LinkBits(
		st.Connectivity == link.Connected,
		st.Reception == link.Receiving,
	)
	if d.snap.Health == status.HealthOK && st.Connectivity == link.Connected && st.Reception == link.Stopped {
		d.snap.Health = status.HealthStopped
	}

	if d.status == nil {
		return
	}
	if err := d.status.WriteStatus(d.snap); err != nil {
		d.log.WithError(err).Warn("status write failed")
	}
}

// Snapshot returns the current status snapshot.
// Only meaningful from the loop goroutine or after Run returned.
func (d *Driver) Snapshot() status.Snapshot { return d.snap }

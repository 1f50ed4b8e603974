// internal/driver/classify.go
package driver

import (
	"github.com/juju/errors"

	"github.com/tamzrod/iec104-driver/internal/link"
	"github.com/tamzrod/iec104-driver/internal/status"
)

// AbortNoWriteChannel is the reason carried by a fatal send verdict.
const AbortNoWriteChannel = "no channel available to send commands"

// Verdict is the decision for one operation outcome.
type Verdict struct {
	Abort  bool
	Reason string
}

// Classify maps an outcome to a verdict. Pure; logging is the caller's job.
//
//	nil                     -> continue
//	cause ErrNoWriteChannel -> abort
//	anything else           -> continue (transient)
func Classify(err error) Verdict {
	if err == nil {
		return Verdict{}
	}
	if errors.Cause(err) == link.ErrNoWriteChannel {
		return Verdict{Abort: true, Reason: AbortNoWriteChannel}
	}
	return Verdict{}
}

// errorCode maps an outcome to the status block error code.
func errorCode(err error) uint16 {
	switch {
	case err == nil:
		return status.ErrorNone
	case link.IsNoWriteChannel(err):
		return status.ErrorNoWriteChannel
	case errors.HasType[*link.ConnectError](err):
		return status.ErrorConnect
	case errors.HasType[*link.SessionError](err):
		return status.ErrorSession
	default:
		return status.ErrorTransient
	}
}

// internal/link/iec104/handler.go
package iec104

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thinkgos/go-iecp5/asdu"

	"github.com/tamzrod/iec104-driver/internal/link"
)

// handler implements cs104.ClientHandlerInterface.
// Every inbound ASDU, whatever its class, is forwarded to the sink.
type handler struct {
	c *Client
}

func (h *handler) InterrogationHandler(_ asdu.Connect, a *asdu.ASDU) error        { return h.dispatch(a) }
func (h *handler) CounterInterrogationHandler(_ asdu.Connect, a *asdu.ASDU) error { return h.dispatch(a) }
func (h *handler) ReadHandler(_ asdu.Connect, a *asdu.ASDU) error                 { return h.dispatch(a) }
func (h *handler) TestCommandHandler(_ asdu.Connect, a *asdu.ASDU) error          { return h.dispatch(a) }
func (h *handler) ClockSyncHandler(_ asdu.Connect, a *asdu.ASDU) error            { return h.dispatch(a) }
func (h *handler) ResetProcessHandler(_ asdu.Connect, a *asdu.ASDU) error         { return h.dispatch(a) }
func (h *handler) DelayAcquisitionHandler(_ asdu.Connect, a *asdu.ASDU) error     { return h.dispatch(a) }
func (h *handler) ASDUHandler(_ asdu.Connect, a *asdu.ASDU) error                 { return h.dispatch(a) }

func (h *handler) dispatch(a *asdu.ASDU) error {
	if a == nil || h.c.sink == nil {
		return nil
	}
	// Reception stopped: drop silently, the outstation may still flush.
	if !h.c.receiving.Load() {
		return nil
	}
	h.c.sink.HandleObject(toObject(a, time.Now()))
	return nil
}

func toObject(a *asdu.ASDU, at time.Time) link.Object {
	return link.Object{
		At:         at,
		TypeID:     uint8(a.Type),
		TypeName:   fmt.Sprint(a.Type),
		Cause:      fmt.Sprint(a.Coa),
		CommonAddr: uint16(a.CommonAddr),
		Count:      int(a.Variable.Number),
		Sequence:   a.Variable.IsSequence,
	}
}

// ---- clog bridge ----

// logProvider routes the library's internal log lines into logrus.
type logProvider struct {
	log logrus.FieldLogger
}

func (p logProvider) Critical(format string, v ...interface{}) { p.log.Errorf("critical: "+format, v...) }
func (p logProvider) Error(format string, v ...interface{})    { p.log.Errorf(format, v...) }
func (p logProvider) Warn(format string, v ...interface{})     { p.log.Warnf(format, v...) }
func (p logProvider) Debug(format string, v ...interface{})    { p.log.Debugf(format, v...) }

// internal/writer/status_writer.go
package writer

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/tamzrod/iec104-driver/internal/status"
)

// StatusWriter is the delivery-only contract for driver status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan is where the status block lives.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// deviceStatusWriter is the concrete implementation used by the driver.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// NewStatusWriter builds a status writer over one endpoint client.
func NewStatusWriter(plan StatusPlan, cli endpointClient) StatusWriter {
	return &deviceStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
		nameRegs: status.EncodeDeviceName(plan.DeviceName),
	}
}

// WriteStatus delivers a driver status snapshot into status memory.
// On any write failure, the next call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return errors.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			return errors.Annotate(err, "status writer: full block write failed")
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one register per changed slot
	// ------------------------------------------------------------
	slots := []struct {
		name string
		slot uint16
		prev *uint16
		next uint16
	}{
		{"health", status.SlotHealthCode, &sw.last.Health, s.Health},
		{"last_error", status.SlotLastErrorCode, &sw.last.LastErrorCode, s.LastErrorCode},
		{"link_state", status.SlotLinkState, &sw.last.LinkState, s.LinkState},
		{"commands_sent", status.SlotCommandsSent, &sw.last.CommandsSent, s.CommandsSent},
		{"commands_failed", status.SlotCommandsFailed, &sw.last.CommandsFailed, s.CommandsFailed},
	}

	var errs []string
	for _, sl := range slots {
		if *sl.prev == sl.next {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr+sl.slot, []uint16{sl.next}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", sl.slot, sl.name, err))
			continue
		}
		*sl.prev = sl.next
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each driver owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Device name always lives at the end of the block
	for i := 0; i < status.SlotDeviceNameSlots && i < len(sw.nameRegs); i++ {
		regs[status.SlotDeviceNameStart+i] = sw.nameRegs[i]
	}

	return regs
}

// internal/writer/builder.go
package writer

import (
	"time"

	"github.com/juju/errors"

	cfg "github.com/tamzrod/iec104-driver/internal/config"
	wmodbus "github.com/tamzrod/iec104-driver/internal/writer/modbus"
)

// BuildPlan converts the status config into a StatusPlan.
// Assumes config has already passed validation and normalization.
func BuildPlan(s cfg.StatusConfig) (StatusPlan, error) {
	if s.Endpoint == "" {
		return StatusPlan{}, errors.NotValidf("status endpoint")
	}

	return StatusPlan{
		Endpoint:   s.Endpoint,
		UnitID:     s.UnitID,
		BaseSlot:   s.BaseSlot,
		DeviceName: s.DeviceName,
	}, nil
}

// Build wires a status writer over a dedicated TCP client.
// A nil config means the status mirror is disabled: the writer is nil
// and the returned closer is a no-op.
func Build(s *cfg.StatusConfig) (StatusWriter, func() error, error) {
	noop := func() error { return nil }
	if s == nil {
		return nil, noop, nil
	}

	plan, err := BuildPlan(*s)
	if err != nil {
		return nil, noop, errors.Trace(err)
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(s.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, noop, errors.Trace(err)
	}

	return NewStatusWriter(plan, c), c.Close, nil
}

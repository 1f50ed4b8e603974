// internal/config/validate.go
package config

import (
	"strings"

	"github.com/juju/errors"

	"github.com/tamzrod/iec104-driver/internal/status"
)

var validKinds = map[string]struct{}{
	"single":    {},
	"double":    {},
	"step":      {},
	"bitstring": {},
}

var validQualifiers = map[string]struct{}{
	"":           {},
	"none":       {},
	"short":      {},
	"long":       {},
	"persistent": {},
}

var validLevels = map[string]struct{}{
	"":      {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are legal here; Normalize replaces them with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.NotValidf("config nil")
	}
	d := &cfg.Driver

	// ------------------------------------------------------------
	// LINK
	// ------------------------------------------------------------

	if strings.TrimSpace(d.Link.Endpoint) == "" {
		return errors.NotValidf("link.endpoint empty")
	}
	if d.Link.ConnectTimeoutMs < 0 {
		return errors.NotValidf("link.connect_timeout_ms=%d", d.Link.ConnectTimeoutMs)
	}
	if d.Link.ReconnectIntervalMs < 0 {
		return errors.NotValidf("link.reconnect_interval_ms=%d", d.Link.ReconnectIntervalMs)
	}

	// ------------------------------------------------------------
	// TIMERS
	// ------------------------------------------------------------

	timers := []struct {
		name string
		ms   int
	}{
		{"heartbeat_ms", d.Timers.HeartbeatMs},
		{"stop_ms", d.Timers.StopMs},
		{"stop_cooldown_ms", d.Timers.StopCooldownMs},
		{"restart_ms", d.Timers.RestartMs},
		{"restart_cooldown_ms", d.Timers.RestartCooldownMs},
	}
	for _, t := range timers {
		if t.ms < 0 {
			return errors.NotValidf("timers.%s=%d", t.name, t.ms)
		}
	}

	// ------------------------------------------------------------
	// COMMAND BATCH
	// ------------------------------------------------------------

	for i, c := range d.Commands {
		if _, ok := validKinds[strings.ToLower(c.Kind)]; !ok {
			return errors.NotValidf("commands[%d].kind=%q", i, c.Kind)
		}
		if strings.TrimSpace(c.Value) == "" {
			return errors.NotValidf("commands[%d].value empty", i)
		}
		if _, ok := validQualifiers[strings.ToLower(c.Qualifier)]; !ok {
			return errors.NotValidf("commands[%d].qualifier=%q", i, c.Qualifier)
		}
		// bitstring commands carry no qualifier of command
		if strings.ToLower(c.Kind) == "bitstring" && (c.Select || (c.Qualifier != "" && c.Qualifier != "none")) {
			return errors.NotValidf("commands[%d]: bitstring takes no select/qualifier", i)
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if _, ok := validLevels[strings.ToLower(d.Log.Level)]; !ok {
		return errors.NotValidf("log.level=%q", d.Log.Level)
	}
	if d.Log.MaxSizeMB < 0 || d.Log.MaxBackups < 0 {
		return errors.NotValidf("log rotation max_size_mb=%d max_backups=%d", d.Log.MaxSizeMB, d.Log.MaxBackups)
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if s := d.Status; s != nil {
		if s.Endpoint == "" {
			return errors.NotValidf("status.endpoint empty")
		}
		if s.TimeoutMs < 0 {
			return errors.NotValidf("status.timeout_ms=%d", s.TimeoutMs)
		}
		// block must fit the 16-bit register address space
		if (int(s.BaseSlot)+1)*status.SlotsPerDevice > 1<<16 {
			return errors.NotValidf("status.base_slot=%d", s.BaseSlot)
		}
		// device_name sanity (ASCII only)
		for i := 0; i < len(s.DeviceName); i++ {
			if s.DeviceName[i] > 0x7F {
				return errors.NotValidf("status.device_name %q (ASCII only)", s.DeviceName)
			}
		}
	}

	// ------------------------------------------------------------
	// MQTT FORWARDING (OPT-IN)
	// ------------------------------------------------------------

	if m := d.MQTT; m != nil {
		if m.Broker == "" {
			return errors.NotValidf("mqtt.broker empty")
		}
		if m.Topic == "" {
			return errors.NotValidf("mqtt.topic empty")
		}
		if m.QoS > 2 {
			return errors.NotValidf("mqtt.qos=%d", m.QoS)
		}
	}

	return nil
}

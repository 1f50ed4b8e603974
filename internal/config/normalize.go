// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultConnectTimeoutMs    = 10_000
	DefaultReconnectIntervalMs = 1_000

	DefaultHeartbeatMs       = 1_000
	DefaultStopMs            = 500_000
	DefaultStopCooldownMs    = 3_600_000
	DefaultRestartMs         = 500_000
	DefaultRestartCooldownMs = 3_615_000

	DefaultStatusTimeoutMs = 2_000
	DefaultLogLevel        = "info"
	DefaultMQTTClientID    = "iec104-driver"
)

// DefaultCommands is the batch emitted on every heartbeat when none is configured:
// regulating step, single point, double point, bitstring.
func DefaultCommands() []CommandConfig {
	return []CommandConfig{
		{Kind: "step", CommonAddress: 47, IOA: 13, Value: "increment"},
		{Kind: "single", CommonAddress: 47, IOA: 14, Value: "on"},
		{Kind: "double", CommonAddress: 47, IOA: 15, Value: "on"},
		{Kind: "bitstring", CommonAddress: 47, IOA: 16, Value: "1"},
	}
}

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	d := &cfg.Driver

	// ---- link ----
	d.Link.Endpoint = strings.TrimSpace(d.Link.Endpoint)
	setDefault(&d.Link.ConnectTimeoutMs, DefaultConnectTimeoutMs)
	setDefault(&d.Link.ReconnectIntervalMs, DefaultReconnectIntervalMs)
	if d.Link.AutoReconnect == nil {
		on := true
		d.Link.AutoReconnect = &on
	}

	// ---- timers ----
	setDefault(&d.Timers.HeartbeatMs, DefaultHeartbeatMs)
	setDefault(&d.Timers.StopMs, DefaultStopMs)
	setDefault(&d.Timers.StopCooldownMs, DefaultStopCooldownMs)
	setDefault(&d.Timers.RestartMs, DefaultRestartMs)
	setDefault(&d.Timers.RestartCooldownMs, DefaultRestartCooldownMs)

	// ---- commands ----
	if len(d.Commands) == 0 {
		d.Commands = DefaultCommands()
	}
	for i := range d.Commands {
		c := &d.Commands[i]
		c.Kind = strings.ToLower(c.Kind)
		c.Qualifier = strings.ToLower(c.Qualifier)
		if c.Qualifier == "" {
			c.Qualifier = "none"
		}
		c.Value = strings.ToLower(strings.TrimSpace(c.Value))
	}

	// ---- log ----
	d.Log.Level = strings.ToLower(d.Log.Level)
	if d.Log.Level == "" {
		d.Log.Level = DefaultLogLevel
	}

	// ---- status ----
	if s := d.Status; s != nil {
		setDefault(&s.TimeoutMs, DefaultStatusTimeoutMs)
		// Truncate to max 16 characters
		if len(s.DeviceName) > 16 {
			s.DeviceName = s.DeviceName[:16]
		}
	}

	// ---- mqtt ----
	if m := d.MQTT; m != nil && m.ClientID == "" {
		m.ClientID = DefaultMQTTClientID
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

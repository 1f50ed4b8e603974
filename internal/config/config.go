// internal/config/config.go
package config

type Config struct {
	Driver DriverConfig `yaml:"driver"`
}

type DriverConfig struct {
	Link     LinkConfig      `yaml:"link"`
	Timers   TimersConfig    `yaml:"timers"`
	Commands []CommandConfig `yaml:"commands"`
	Log      LogConfig       `yaml:"log"`

	// Optional, opt-in outputs
	Status *StatusConfig `yaml:"status"`
	MQTT   *MQTTConfig   `yaml:"mqtt"`
}

// ---- LINK ----

type LinkConfig struct {
	Endpoint            string `yaml:"endpoint"`
	ConnectTimeoutMs    int    `yaml:"connect_timeout_ms"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
	AutoReconnect       *bool  `yaml:"auto_reconnect"`
}

// ---- TIMERS ----

// TimersConfig holds the three independent maintenance rhythms.
// Zero means "use default" and is filled by Normalize.
type TimersConfig struct {
	HeartbeatMs       int `yaml:"heartbeat_ms"`
	StopMs            int `yaml:"stop_ms"`
	StopCooldownMs    int `yaml:"stop_cooldown_ms"`
	RestartMs         int `yaml:"restart_ms"`
	RestartCooldownMs int `yaml:"restart_cooldown_ms"`
}

// ---- COMMANDS ----

type CommandConfig struct {
	Kind          string `yaml:"kind"` // single | double | step | bitstring
	CommonAddress uint16 `yaml:"common_address"`
	IOA           uint16 `yaml:"ioa"`
	Value         string `yaml:"value"`

	// Qualifiers (optional)
	Select    bool   `yaml:"select"`
	Qualifier string `yaml:"qualifier"` // none | short | long | persistent
	TimeTag   bool   `yaml:"time_tag"`
}

// ---- LOG ----

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty => stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// ---- STATUS MIRROR ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

// ---- MQTT FORWARDING ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

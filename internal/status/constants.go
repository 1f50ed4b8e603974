// internal/status/constants.go
package status

// Driver Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per driver.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the driver health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last classified error code.
const SlotLastErrorCode = 1

// SlotLinkState holds the link state bits.
const SlotLinkState = 2

// SlotCommandsSent counts successful command sends (wraps at 65535).
const SlotCommandsSent = 3

// SlotCommandsFailed counts failed command sends (wraps at 65535).
const SlotCommandsFailed = 4

// ---- RESERVED RANGE ----

// Slots 5–10 are reserved for future use.
const SlotReservedStart = 5
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents boot state, before the link is up.
const HealthUnknown uint16 = 0

// HealthOK represents a running link whose last operation succeeded.
const HealthOK uint16 = 1

// HealthError represents a running link whose last operation failed.
const HealthError uint16 = 2

// HealthStopped represents an intentional reception stop window.
const HealthStopped uint16 = 3

// HealthShutdown represents a driver that left its loop.
const HealthShutdown uint16 = 4

// ---- ERROR CODES ----

const (
	ErrorNone           uint16 = 0
	ErrorTransient      uint16 = 1
	ErrorNoWriteChannel uint16 = 2
	ErrorSession        uint16 = 3
	ErrorConnect        uint16 = 4
)

// ---- LINK STATE BITS ----

const (
	LinkBitConnected uint16 = 1 << 0
	LinkBitReceiving uint16 = 1 << 1
)

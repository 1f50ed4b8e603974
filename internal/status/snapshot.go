// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	LinkState      uint16
	CommandsSent   uint16
	CommandsFailed uint16
}

// LinkBits packs connectivity and reception into the link state slot.
func LinkBits(connected, receiving bool) uint16 {
	var v uint16
	if connected {
		v |= LinkBitConnected
	}
	if receiving {
		v |= LinkBitReceiving
	}
	return v
}

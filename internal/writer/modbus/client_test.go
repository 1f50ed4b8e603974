// internal/writer/modbus/client_test.go
package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juju/errors"
)

func TestPackRegisters_BigEndian(t *testing.T) {
	out := packRegisters([]uint16{0x0102, 0xA0B0})
	assert.Equal(t, []byte{0x01, 0x02, 0xA0, 0xB0}, out)
	assert.Empty(t, packRegisters(nil))
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	_, err := NewEndpointClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err))
}

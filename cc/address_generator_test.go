package cc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressGenerator_DeviceCountStartsAtOne(t *testing.T) {
	g := NewAddressGenerator()
	assert.Equal(t, NewAddress(0x0001), g.NextDevice())
	assert.Equal(t, NewAddress(0x0002), g.NextDevice())
	assert.Equal(t, NewAddress(0x0003), g.NextDevice())
}

func TestAddressGenerator_GatewayCountStartsAt0x8000(t *testing.T) {
	g := NewAddressGenerator()
	a := g.NextGateway()
	assert.Equal(t, NewAddress(0x8000), a)
	assert.True(t, a.IsGateway())
	assert.Equal(t, NewAddress(0x8001), g.NextGateway())
}

func TestAddressGenerator_DeviceAndGatewaySequencesAreIndependent(t *testing.T) {
	g := NewAddressGenerator()
	g.NextDevice()
	g.NextDevice()
	gw := g.NextGateway()
	assert.Equal(t, NewAddress(0x8000), gw)
}

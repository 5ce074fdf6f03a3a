package cc

import "encoding/binary"

// GatewayBit marks an Address as belonging to the gateway rather than an
// end device.
const GatewayBit = uint16(0x8000)

// Broadcast is the sentinel address used for frames with no single
// destination (Seek-Join announcements).
const Broadcast = Address(0x00ff)

// Address is a 16-bit device or gateway address. The top bit marks the
// gateway; equality and ordering are by the raw integer value.
type Address uint16

// NewAddress wraps a raw 16-bit value as an Address.
func NewAddress(v uint16) Address {
	return Address(v)
}

// IsGateway reports whether the top bit is set.
func (a Address) IsGateway() bool {
	return uint16(a)&GatewayBit != 0
}

// Less orders addresses by their integer value.
func (a Address) Less(b Address) bool {
	return a < b
}

// Serialize writes the address as 2 big-endian bytes.
func (a Address) Serialize() [2]byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(a))
	return buf
}

// AppendTo appends the address's big-endian encoding to dst.
func (a Address) AppendTo(dst []byte) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(a))
	return append(dst, buf[:]...)
}

// DeserializeAddress reads an Address from the first 2 bytes of b.
// It returns ErrMalformedPacket if b is too short.
func DeserializeAddress(b []byte) (Address, int, error) {
	if len(b) < 2 {
		return 0, 0, newMalformed("address: short buffer")
	}
	return Address(binary.BigEndian.Uint16(b)), 2, nil
}

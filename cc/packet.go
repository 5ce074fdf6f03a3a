package cc

import "encoding/binary"

// MAC frame types (MACHeader.Type).
const (
	TypeJoin        uint8 = 1
	TypeJoinAck     uint8 = 2
	TypeJoinCfm     uint8 = 3
	TypeSeekJoin    uint8 = 4
	TypeGatewayReq  uint8 = 6
	TypeNodeReply   uint8 = 7
)

// NodeReply option bits (spec.md §4.B).
const (
	NodeReplyAggregated uint8 = 0x80 // payload is an aggregation of embedded mini-replies
	NodeReplyMorePending uint8 = 0x40 // more pending data follows in a later round
	NodeReplyLeafLocal  uint8 = 0x20 // a leaf's own local reading
)

// MACHeader is the 5-byte header always present on the wire.
type MACHeader struct {
	Type uint8
	Src  Address
	Dst  Address
}

// Serialize writes the 5-byte MAC header.
func (h MACHeader) Serialize() []byte {
	buf := make([]byte, 0, 5)
	buf = append(buf, h.Type)
	buf = h.Src.AppendTo(buf)
	buf = h.Dst.AppendTo(buf)
	return buf
}

// DeserializeMACHeader reads a MACHeader and returns the number of bytes
// consumed (always 5 on success).
func DeserializeMACHeader(b []byte) (MACHeader, int, error) {
	if len(b) < 5 {
		return MACHeader{}, 0, newMalformed("mac header: short buffer")
	}
	h := MACHeader{Type: b[0]}
	h.Src = Address(binary.BigEndian.Uint16(b[1:3]))
	h.Dst = Address(binary.BigEndian.Uint16(b[3:5]))
	return h, 5, nil
}

// JoinAckHeader is the 3-byte header following a MAC header of type
// JOIN_ACK.
type JoinAckHeader struct {
	Hops         uint8
	NumChildren  uint8
	RSSIMagnitude uint8 // rssi is negative; magnitude stored unsigned
}

// RSSI returns the signed dBm value (-RSSIMagnitude).
func (h JoinAckHeader) RSSI() int {
	return -int(h.RSSIMagnitude)
}

func (h JoinAckHeader) Serialize() []byte {
	return []byte{h.Hops, h.NumChildren, h.RSSIMagnitude}
}

func DeserializeJoinAckHeader(b []byte) (JoinAckHeader, int, error) {
	if len(b) < 3 {
		return JoinAckHeader{}, 0, newMalformed("join-ack header: short buffer")
	}
	return JoinAckHeader{Hops: b[0], NumChildren: b[1], RSSIMagnitude: b[2]}, 3, nil
}

// SeekJoinHeader is the 8-byte Seek-Join advertisement header.
type SeekJoinHeader struct {
	PrivateChannel   uint8
	ParentChannel    uint8
	NumChildren      uint8
	MaxBackoff       uint8
	NextAcceptJoinS  uint32
}

func (h SeekJoinHeader) Serialize() []byte {
	buf := make([]byte, 8)
	buf[0] = h.PrivateChannel
	buf[1] = h.ParentChannel
	buf[2] = h.NumChildren
	buf[3] = h.MaxBackoff
	binary.BigEndian.PutUint32(buf[4:8], h.NextAcceptJoinS)
	return buf
}

func DeserializeSeekJoinHeader(b []byte) (SeekJoinHeader, int, error) {
	if len(b) < 8 {
		return SeekJoinHeader{}, 0, newMalformed("seek-join header: short buffer")
	}
	h := SeekJoinHeader{
		PrivateChannel: b[0],
		ParentChannel:  b[1],
		NumChildren:    b[2],
		MaxBackoff:     b[3],
	}
	h.NextAcceptJoinS = binary.BigEndian.Uint32(b[4:8])
	return h, 8, nil
}

// GatewayReqHeader is the 7-byte Gateway-Req header. The option bit-field's
// semantics vary across the source variants and are carried verbatim
// without new meaning assigned (spec.md §9 Open Questions).
type GatewayReqHeader struct {
	Option        uint8
	Channel       uint8
	NextReqTimeS  uint32
	MaxBackoff    uint8
}

func (h GatewayReqHeader) Serialize() []byte {
	buf := make([]byte, 7)
	buf[0] = h.Option
	buf[1] = h.Channel
	binary.BigEndian.PutUint32(buf[2:6], h.NextReqTimeS)
	buf[6] = h.MaxBackoff
	return buf
}

func DeserializeGatewayReqHeader(b []byte) (GatewayReqHeader, int, error) {
	if len(b) < 7 {
		return GatewayReqHeader{}, 0, newMalformed("gateway-req header: short buffer")
	}
	h := GatewayReqHeader{Option: b[0], Channel: b[1]}
	h.NextReqTimeS = binary.BigEndian.Uint32(b[2:6])
	h.MaxBackoff = b[6]
	return h, 7, nil
}

// NodeReplyHeader is the 2-byte header preceding a Node-Reply payload.
type NodeReplyHeader struct {
	Option  uint8
	DataLen uint8
}

func (h NodeReplyHeader) Serialize() []byte {
	return []byte{h.Option, h.DataLen}
}

func DeserializeNodeReplyHeader(b []byte) (NodeReplyHeader, int, error) {
	if len(b) < 2 {
		return NodeReplyHeader{}, 0, newMalformed("node-reply header: short buffer")
	}
	return NodeReplyHeader{Option: b[0], DataLen: b[1]}, 2, nil
}

// EmbeddedMiniReplyHeader precedes one child's payload inside an
// aggregated Node-Reply.
type EmbeddedMiniReplyHeader struct {
	Src     Address
	DataLen uint8
}

func (h EmbeddedMiniReplyHeader) Serialize() []byte {
	buf := make([]byte, 0, 3)
	buf = h.Src.AppendTo(buf)
	buf = append(buf, h.DataLen)
	return buf
}

func DeserializeEmbeddedMiniReplyHeader(b []byte) (EmbeddedMiniReplyHeader, int, error) {
	if len(b) < 3 {
		return EmbeddedMiniReplyHeader{}, 0, newMalformed("embedded mini-reply header: short buffer")
	}
	src := Address(binary.BigEndian.Uint16(b[0:2]))
	return EmbeddedMiniReplyHeader{Src: src, DataLen: b[2]}, 3, nil
}

// MiniReply is one decoded embedded mini-reply: its source and payload.
type MiniReply struct {
	Src  Address
	Data []byte
}

// DecodeMiniReplies walks an aggregated Node-Reply payload and returns
// every embedded mini-reply in the order they appear (pop order at the
// sender, per spec.md §4.F / testable property 7).
func DecodeMiniReplies(payload []byte) ([]MiniReply, error) {
	var out []MiniReply
	rest := payload
	for len(rest) > 0 {
		hdr, n, err := DeserializeEmbeddedMiniReplyHeader(rest)
		if err != nil {
			return nil, err
		}
		rest = rest[n:]
		if int(hdr.DataLen) > len(rest) {
			return nil, newMalformed("embedded mini-reply: body shorter than advertised")
		}
		out = append(out, MiniReply{Src: hdr.Src, Data: rest[:hdr.DataLen]})
		rest = rest[hdr.DataLen:]
	}
	return out, nil
}

// Frame is a fully-assembled wire frame: a MAC header plus a type-specific
// body. Exactly one of the typed fields is meaningful, selected by
// Header.Type — a tagged union per spec.md §9, dispatched with a type
// switch rather than runtime polymorphism.
type Frame struct {
	Header MACHeader

	JoinAck    *JoinAckHeader
	SeekJoin   *SeekJoinHeader
	GatewayReq *GatewayReqHeader

	// NodeReply carries NodeReplyHeader plus its raw payload bytes. The
	// payload is either one leaf's own reading, one relayed frame's raw
	// bytes, or an aggregation of EmbeddedMiniReplyHeader-prefixed chunks
	// (see NodeReplyAggregated).
	NodeReply        *NodeReplyHeader
	NodeReplyPayload []byte
}

// Serialize renders the frame to wire bytes, MAC header first.
func (f Frame) Serialize() []byte {
	buf := f.Header.Serialize()
	switch f.Header.Type {
	case TypeJoinAck:
		if f.JoinAck != nil {
			buf = append(buf, f.JoinAck.Serialize()...)
		}
	case TypeSeekJoin:
		if f.SeekJoin != nil {
			buf = append(buf, f.SeekJoin.Serialize()...)
		}
	case TypeGatewayReq:
		if f.GatewayReq != nil {
			buf = append(buf, f.GatewayReq.Serialize()...)
		}
	case TypeNodeReply:
		if f.NodeReply != nil {
			buf = append(buf, f.NodeReply.Serialize()...)
			buf = append(buf, f.NodeReplyPayload...)
		}
	case TypeJoin, TypeJoinCfm:
		// MAC header only.
	}
	return buf
}

// DeserializeFrame decodes a complete frame. Any inconsistency between an
// advertised body length and the buffer it was found in is a
// MalformedPacket, per spec.md §4.B's decoding contract.
func DeserializeFrame(b []byte) (Frame, error) {
	hdr, n, err := DeserializeMACHeader(b)
	if err != nil {
		return Frame{}, err
	}
	rest := b[n:]
	f := Frame{Header: hdr}
	switch hdr.Type {
	case TypeJoin, TypeJoinCfm:
		return f, nil
	case TypeJoinAck:
		ja, _, err := DeserializeJoinAckHeader(rest)
		if err != nil {
			return Frame{}, err
		}
		f.JoinAck = &ja
	case TypeSeekJoin:
		sj, _, err := DeserializeSeekJoinHeader(rest)
		if err != nil {
			return Frame{}, err
		}
		f.SeekJoin = &sj
	case TypeGatewayReq:
		gr, _, err := DeserializeGatewayReqHeader(rest)
		if err != nil {
			return Frame{}, err
		}
		f.GatewayReq = &gr
	case TypeNodeReply:
		nr, n2, err := DeserializeNodeReplyHeader(rest)
		if err != nil {
			return Frame{}, err
		}
		body := rest[n2:]
		if int(nr.DataLen) > len(body) {
			return Frame{}, newMalformed("node-reply: body shorter than advertised data_len")
		}
		f.NodeReply = &nr
		f.NodeReplyPayload = body[:nr.DataLen]
	default:
		return Frame{}, newMalformed("unknown frame type")
	}
	return f, nil
}

package cc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func drawAddress(t *rapid.T, label string) Address {
	return NewAddress(rapid.Uint16().Draw(t, label))
}

func Test_MACHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := MACHeader{
			Type: rapid.Uint8().Draw(t, "type"),
			Src:  drawAddress(t, "src"),
			Dst:  drawAddress(t, "dst"),
		}
		buf := h.Serialize()
		assert.Lenf(t, buf, 5, "header %+v serialized to wrong length", h)

		got, n, err := DeserializeMACHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, h, got)
	})
}

func Test_JoinAckHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := JoinAckHeader{
			Hops:          rapid.Uint8().Draw(t, "hops"),
			NumChildren:   rapid.Uint8Range(0, MaxNumChildren).Draw(t, "num_children"),
			RSSIMagnitude: rapid.Uint8().Draw(t, "rssi_magnitude"),
		}
		buf := h.Serialize()
		got, n, err := DeserializeJoinAckHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, h, got)
		assert.Equal(t, -int(h.RSSIMagnitude), got.RSSI())
	})
}

func Test_SeekJoinHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := SeekJoinHeader{
			PrivateChannel:  rapid.Uint8().Draw(t, "private_channel"),
			ParentChannel:   rapid.Uint8().Draw(t, "parent_channel"),
			NumChildren:     rapid.Uint8().Draw(t, "num_children"),
			MaxBackoff:      rapid.Uint8().Draw(t, "max_backoff"),
			NextAcceptJoinS: rapid.Uint32().Draw(t, "next_accept_join_s"),
		}
		buf := h.Serialize()
		assert.Len(t, buf, 8)
		got, n, err := DeserializeSeekJoinHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 8, n)
		assert.Equal(t, h, got)
	})
}

func Test_GatewayReqHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := GatewayReqHeader{
			Option:       rapid.Uint8().Draw(t, "option"),
			Channel:      rapid.Uint8().Draw(t, "channel"),
			NextReqTimeS: rapid.Uint32().Draw(t, "next_req_time_s"),
			MaxBackoff:   rapid.Uint8().Draw(t, "max_backoff"),
		}
		buf := h.Serialize()
		assert.Len(t, buf, 7)
		got, n, err := DeserializeGatewayReqHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Equal(t, h, got)
	})
}

func Test_NodeReplyHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := NodeReplyHeader{
			Option:  rapid.Uint8().Draw(t, "option"),
			DataLen: rapid.Uint8().Draw(t, "data_len"),
		}
		buf := h.Serialize()
		assert.Len(t, buf, 2)
		got, n, err := DeserializeNodeReplyHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, h, got)
	})
}

func Test_EmbeddedMiniReplyHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := EmbeddedMiniReplyHeader{
			Src:     drawAddress(t, "src"),
			DataLen: rapid.Uint8().Draw(t, "data_len"),
		}
		buf := h.Serialize()
		assert.Len(t, buf, 3)
		got, n, err := DeserializeEmbeddedMiniReplyHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, h, got)
	})
}

// Test_Frame_RoundTrip covers testable property 6: every frame type
// serializes and deserializes to an identical value.
func Test_Frame_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := drawAddress(t, "src")
		dst := drawAddress(t, "dst")

		kind := rapid.SampledFrom([]uint8{TypeJoin, TypeJoinCfm, TypeJoinAck, TypeSeekJoin, TypeGatewayReq, TypeNodeReply}).Draw(t, "kind")
		f := Frame{Header: MACHeader{Type: kind, Src: src, Dst: dst}}

		switch kind {
		case TypeJoinAck:
			ja := JoinAckHeader{
				Hops:          rapid.Uint8().Draw(t, "hops"),
				NumChildren:   rapid.Uint8().Draw(t, "num_children"),
				RSSIMagnitude: rapid.Uint8().Draw(t, "rssi_magnitude"),
			}
			f.JoinAck = &ja
		case TypeSeekJoin:
			sj := SeekJoinHeader{
				PrivateChannel:  rapid.Uint8().Draw(t, "private_channel"),
				ParentChannel:   rapid.Uint8().Draw(t, "parent_channel"),
				NumChildren:     rapid.Uint8().Draw(t, "num_children"),
				MaxBackoff:      rapid.Uint8().Draw(t, "max_backoff"),
				NextAcceptJoinS: rapid.Uint32().Draw(t, "next_accept_join_s"),
			}
			f.SeekJoin = &sj
		case TypeGatewayReq:
			gr := GatewayReqHeader{
				Option:       rapid.Uint8().Draw(t, "option"),
				Channel:      rapid.Uint8().Draw(t, "channel"),
				NextReqTimeS: rapid.Uint32().Draw(t, "next_req_time_s"),
				MaxBackoff:   rapid.Uint8().Draw(t, "max_backoff"),
			}
			f.GatewayReq = &gr
		case TypeNodeReply:
			payload := rapid.SliceOfN(rapid.Byte(), 0, 20).Draw(t, "payload")
			nr := NodeReplyHeader{Option: 0, DataLen: uint8(len(payload))}
			f.NodeReply = &nr
			f.NodeReplyPayload = payload
		}

		buf := f.Serialize()
		got, err := DeserializeFrame(buf)
		assert.NoErrorf(t, err, "frame %+v failed to round-trip", f)
		assert.Equal(t, f.Header, got.Header)

		switch kind {
		case TypeJoinAck:
			assert.Equal(t, f.JoinAck, got.JoinAck)
		case TypeSeekJoin:
			assert.Equal(t, f.SeekJoin, got.SeekJoin)
		case TypeGatewayReq:
			assert.Equal(t, f.GatewayReq, got.GatewayReq)
		case TypeNodeReply:
			assert.Equal(t, f.NodeReply, got.NodeReply)
			assert.Equal(t, f.NodeReplyPayload, got.NodeReplyPayload)
		}
	})
}

func Test_DeserializeFrame_ShortBuffer(t *testing.T) {
	_, err := DeserializeFrame([]byte{0x01, 0x02})
	assert.True(t, IsMalformed(err))
}

func Test_DeserializeFrame_UnknownType(t *testing.T) {
	h := MACHeader{Type: 0xfe, Src: NewAddress(1), Dst: NewAddress(2)}
	_, err := DeserializeFrame(h.Serialize())
	assert.True(t, IsMalformed(err))
}

// Test_DecodeMiniReplies_Order covers testable property 7: k embedded
// mini-replies decode to exactly k entries, in the order they were packed.
func Test_DecodeMiniReplies_Order(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(t, "n")
		var want []MiniReply
		var buf []byte
		for i := 0; i < n; i++ {
			data := rapid.SliceOfN(rapid.Byte(), 0, 8).Draw(t, "data")
			src := drawAddress(t, "mini_src")
			hdr := EmbeddedMiniReplyHeader{Src: src, DataLen: uint8(len(data))}
			buf = append(buf, hdr.Serialize()...)
			buf = append(buf, data...)
			want = append(want, MiniReply{Src: src, Data: data})
		}

		got, err := DecodeMiniReplies(buf)
		assert.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		for i := range want {
			assert.Equal(t, want[i].Src, got[i].Src)
			assert.Equal(t, want[i].Data, got[i].Data)
		}
	})
}

func Test_DecodeMiniReplies_TruncatedBody(t *testing.T) {
	hdr := EmbeddedMiniReplyHeader{Src: NewAddress(1), DataLen: 5}
	buf := append(hdr.Serialize(), []byte{0x01, 0x02}...)
	_, err := DecodeMiniReplies(buf)
	assert.True(t, IsMalformed(err))
}

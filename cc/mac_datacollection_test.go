package cc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMAC_BuildOutgoingFrame_AggregatesWithCorrectOptionBits covers S4: a
// relay holding several pending frames aggregates them into one Node-Reply
// with option 0xA0 (aggregated + leaf-local bits, no more-pending bit) when
// everything fits under the 64-byte cap, preserving pop order.
func TestMAC_BuildOutgoingFrame_AggregatesWithCorrectOptionBits(t *testing.T) {
	sched := NewScheduler()
	medium := NewMedium(sched, fixedPropagation{rxPowerDBm: -50, ok: true})
	tracker := NewTracker(1)
	rng := NewRand(5)
	m := newHarnessMAC(NewAddress(2), false, Position{}, medium, sched, tracker, rng, false)

	// Three distinct senders, data_lens 10/15/20: with the 3-byte embedded
	// mini-reply header each costs, total wire bytes are 13+18+23=54,
	// comfortably under MaxAggregatedBytes so all three are included.
	srcs := []Address{NewAddress(10), NewAddress(11), NewAddress(12)}
	lens := []int{10, 15, 20}
	for i, src := range srcs {
		m.pending = append(m.pending, Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: src},
			NodeReply:        &NodeReplyHeader{Option: 0, DataLen: uint8(lens[i])},
			NodeReplyPayload: make([]byte, lens[i]),
		})
	}

	fr, ok := m.buildOutgoingFrame(NewAddress(0x8000))
	assert.True(t, ok)
	assert.Equal(t, NodeReplyAggregated|NodeReplyLeafLocal, fr.NodeReply.Option, "aggregated option must be 0xA0, not bare 0x80")
	assert.Zero(t, fr.NodeReply.Option&NodeReplyMorePending, "no frames left pending, so 0x40 must be clear")

	minis, err := DecodeMiniReplies(fr.NodeReplyPayload)
	assert.NoError(t, err)
	if assert.Len(t, minis, 3) {
		for i, mr := range minis {
			assert.Equal(t, srcs[i], mr.Src, "mini-replies must decode in pop order")
			assert.Len(t, mr.Data, lens[i])
		}
	}
}

// TestMAC_BuildOutgoingFrame_LeavesOverflowPendingWithMoreBitSet covers the
// companion overflow path: frames that do not fit under the cap are
// requeued and the emitted frame's 0x40 bit is set.
func TestMAC_BuildOutgoingFrame_LeavesOverflowPendingWithMoreBitSet(t *testing.T) {
	sched := NewScheduler()
	medium := NewMedium(sched, fixedPropagation{rxPowerDBm: -50, ok: true})
	tracker := NewTracker(1)
	rng := NewRand(6)
	m := newHarnessMAC(NewAddress(2), false, Position{}, medium, sched, tracker, rng, false)

	srcs := []Address{NewAddress(10), NewAddress(11), NewAddress(12)}
	lens := []int{10, 20, 30} // 13+23+33=69 bytes > MaxAggregatedBytes once all three are wrapped
	for i, src := range srcs {
		m.pending = append(m.pending, Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: src},
			NodeReply:        &NodeReplyHeader{Option: 0, DataLen: uint8(lens[i])},
			NodeReplyPayload: make([]byte, lens[i]),
		})
	}

	fr, ok := m.buildOutgoingFrame(NewAddress(0x8000))
	assert.True(t, ok)
	assert.NotZero(t, fr.NodeReply.Option&NodeReplyMorePending, "overflowing frames must set the more-pending bit")

	minis, err := DecodeMiniReplies(fr.NodeReplyPayload)
	assert.NoError(t, err)
	assert.Less(t, len(minis), 3, "at least one mini-reply must not have fit this round")
	assert.NotEmpty(t, m.pending, "frames that did not fit must be requeued")
}

// TestMAC_GatewayIngest_AggregatedFrame_CreditsEachOriginalSender covers
// the gateway side of S4: unpacking an aggregated Node-Reply must deliver
// one ReplyDelivered event per original sender, not one for the relay.
func TestMAC_GatewayIngest_AggregatedFrame_CreditsEachOriginalSender(t *testing.T) {
	sched := NewScheduler()
	medium := NewMedium(sched, fixedPropagation{rxPowerDBm: -50, ok: true})
	tracker := NewTracker(3)
	rng := NewRand(7)
	gw := newHarnessMAC(NewAddress(0x8000), true, Position{}, medium, sched, tracker, rng, false)

	srcs := []Address{NewAddress(10), NewAddress(11), NewAddress(12)}
	var payload []byte
	for _, src := range srcs {
		payload = append(payload, EmbeddedMiniReplyHeader{Src: src, DataLen: 2}.Serialize()...)
		payload = append(payload, []byte{0, 0}...)
	}
	relay := NewAddress(5)
	aggregated := Frame{
		Header:           MACHeader{Type: TypeNodeReply, Src: relay, Dst: gw.addr},
		NodeReply:        &NodeReplyHeader{Option: NodeReplyAggregated, DataLen: uint8(len(payload))},
		NodeReplyPayload: payload,
	}

	gw.gatewayIngest(aggregated)

	for _, src := range srcs {
		rec, ok := tracker.nodes[src]
		if assert.True(t, ok, "each original sender must gain a tracker entry") {
			assert.Equal(t, 1, rec.NumReplyDelivered)
		}
	}
	_, relayCredited := tracker.nodes[relay]
	assert.False(t, relayCredited, "the relaying address itself must not be credited with a delivery")
}

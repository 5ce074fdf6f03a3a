package cc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_OnConnection_FreshJoinSetsFirstJoinTime(t *testing.T) {
	tr := NewTracker(2)
	tr.OnConnection(NewAddress(1), NewAddress(0x8000), Position{X: 1, Y: 2}, MinTxPowerDBm, 10)

	nodes := tr.Nodes()
	assert.Len(t, nodes, 1)
	assert.Equal(t, Time(10), nodes[0].TimeFirstJoin)
	assert.Equal(t, 0, nodes[0].NumSelfHealing)
}

func TestTracker_OnConnection_SelfHealIncrementsWithoutResettingFirstJoin(t *testing.T) {
	tr := NewTracker(2)
	addr := NewAddress(1)
	tr.OnConnection(addr, NewAddress(0x8000), Position{}, MinTxPowerDBm, 10)
	tr.OnConnection(addr, NewAddress(0x8000), Position{}, MinTxPowerDBm, 50)

	nodes := tr.Nodes()
	assert.Len(t, nodes, 1)
	assert.Equal(t, Time(10), nodes[0].TimeFirstJoin, "self-heal reconnection must not reset the original join time")
	assert.Equal(t, 1, nodes[0].NumSelfHealing)
}

// TestTracker_JoinCompletionMonotonicity covers invariant 5 / testable
// property 5: once join completion is recorded it never changes, even if
// OnConnection fires again later (self-heal of an already-counted node).
func TestTracker_JoinCompletionMonotonicity(t *testing.T) {
	tr := NewTracker(1)
	tr.OnConnection(NewAddress(1), NewAddress(0x8000), Position{}, MinTxPowerDBm, 5)

	ct, ok := tr.JoinCompletionTime()
	assert.True(t, ok)
	assert.Equal(t, Time(5), ct)

	tr.OnConnection(NewAddress(1), NewAddress(0x8000), Position{}, MinTxPowerDBm, 999)
	ct2, ok2 := tr.JoinCompletionTime()
	assert.True(t, ok2)
	assert.Equal(t, Time(5), ct2, "join completion time must be fixed at first reach, never updated afterward")
}

func TestTracker_JoinCompletionNotReachedUntilCountMatches(t *testing.T) {
	tr := NewTracker(2)
	tr.OnConnection(NewAddress(1), NewAddress(0x8000), Position{}, MinTxPowerDBm, 5)
	_, ok := tr.JoinCompletionTime()
	assert.False(t, ok)
}

func TestTracker_CollisionHistogram(t *testing.T) {
	tr := NewTracker(1)
	tr.OnCollision(3)
	tr.OnCollision(3)
	tr.OnCollision(1)

	assert.Equal(t, 3, tr.TotalCollisions())
	byHop := tr.CollisionsByHop()
	assert.Equal(t, 2, byHop[3])
	assert.Equal(t, 1, byHop[1])
}

func TestTracker_HalfDuplexCount(t *testing.T) {
	tr := NewTracker(1)
	tr.OnHalfDuplex(NewAddress(1))
	tr.OnHalfDuplex(NewAddress(2))
	assert.Equal(t, 2, tr.HalfDuplexCount())
}

func TestTracker_NodesSortedByAddress(t *testing.T) {
	tr := NewTracker(3)
	tr.OnGatewayReqReceived(NewAddress(3), Position{})
	tr.OnGatewayReqReceived(NewAddress(1), Position{})
	tr.OnGatewayReqReceived(NewAddress(2), Position{})

	nodes := tr.Nodes()
	assert.Len(t, nodes, 3)
	assert.Equal(t, NewAddress(1), nodes[0].Address)
	assert.Equal(t, NewAddress(2), nodes[1].Address)
	assert.Equal(t, NewAddress(3), nodes[2].Address)
}

func TestTracker_OnReplyDeliveredIncrementsCount(t *testing.T) {
	tr := NewTracker(1)
	tr.OnReplyDelivered(NewAddress(5))
	tr.OnReplyDelivered(NewAddress(5))

	nodes := tr.Nodes()
	assert.Len(t, nodes, 1)
	assert.Equal(t, 2, nodes[0].NumReplyDelivered)
}

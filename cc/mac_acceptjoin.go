package cc

import "math"

// enterAcceptJoin opens a 6-second window during which Join requests are
// answered (spec.md §4.F "Accepting joins"). Every connected node —
// gateway included — re-enters this phase once per duty cycle.
func (m *MAC) enterAcceptJoin() {
	m.state = StateAcceptJoin
	m.cycleStart = m.sched.Now()
	m.pendingChildren = make(map[Address]*pendingChildRecord)
	m.outstandingJoinAcks = 0

	if err := m.radio.SetFrequency(FrequencyForChannel(int(m.privateChannel))); err != nil {
		m.logf("warn", "node %d: could not tune for accept-join: %v", m.addr, err)
	}
	m.energyBegin(m.energy.RxMA)
	m.logf("debug", "node %d entering ACCEPT_JOIN at t=%.1f", m.addr, m.sched.Now())

	m.sched.ScheduleAfter(AcceptJoinDuration, m.exitAcceptJoin)
}

// exitAcceptJoin closes the Accept-Join window: unconfirmed pending joins
// expire, and the node moves into Seek-Join.
func (m *MAC) exitAcceptJoin() {
	for addr := range m.pendingChildren {
		m.recentlyExpiredPending[addr] = true
	}
	m.pendingChildren = make(map[Address]*pendingChildRecord)
	m.outstandingJoinAcks = 0
	m.enterSeekJoin()
}

// handleJoin answers a Join request (spec.md §4.F): reserve a child slot
// if capacity allows, record the pending confirmation, and immediately
// reply with a Join-Ack. A repeated Join from an address already pending
// (a retry at higher transmit power) is answered again without reserving
// a second slot.
func (m *MAC) handleJoin(f Frame, rxPowerDBm float64) {
	if f.Header.Dst != m.addr {
		return
	}
	src := f.Header.Src
	if _, already := m.pendingChildren[src]; !already {
		if m.outstandingJoinAcks+len(m.children) >= MaxNumChildren {
			return
		}
		m.pendingChildren[src] = &pendingChildRecord{Address: src, Timestamp: m.sched.Now()}
		m.outstandingJoinAcks++
	}

	hops := m.parent.Hops + 1
	if m.isGateway {
		hops = 1
	}

	mag := int(math.Round(-rxPowerDBm))
	if mag < 0 {
		mag = 0
	}
	if mag > 255 {
		mag = 255
	}

	reply := Frame{
		Header: MACHeader{Type: TypeJoinAck, Src: m.addr, Dst: src},
		JoinAck: &JoinAckHeader{
			Hops:          hops,
			NumChildren:   uint8(len(m.children)),
			RSSIMagnitude: uint8(mag),
		},
	}
	m.energyBegin(m.txCurrentMA())
	m.radio.Send(reply, FrequencyForChannel(int(m.privateChannel)), m.txPowerDBm)
	m.energyBegin(m.energy.RxMA)
}

// handleJoinCfm promotes a pending child to confirmed (spec.md §4.F).
// A confirmation for an address not in the pending set is ignored here;
// the fallback reconciliation against a round's first reply is handled
// in handleNodeReply.
func (m *MAC) handleJoinCfm(f Frame) {
	if f.Header.Dst != m.addr {
		return
	}
	src := f.Header.Src
	if _, ok := m.pendingChildren[src]; !ok {
		return
	}
	delete(m.pendingChildren, src)
	m.outstandingJoinAcks--
	if m.outstandingJoinAcks < 0 {
		m.outstandingJoinAcks = 0
	}
	if _, exists := m.children[src]; !exists {
		m.children[src] = &ChildRecord{}
	}
}

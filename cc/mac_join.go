package cc

import "sort"

// enterObserve opens a passive listening window on the public channel,
// during which the node collects candidate parents from overheard
// Seek-Join broadcasts (spec.md §4.F). A node stays here, re-arming the
// window, until it has heard at least one candidate.
func (m *MAC) enterObserve() {
	m.state = StateObserve
	m.candidates = make(map[Address]uint8)
	m.candidateRSSI = make(map[Address]float64)

	if err := m.radio.SetFrequency(FrequencyForChannel(PublicChannel)); err != nil {
		m.logf("warn", "node %d: could not tune for observe: %v", m.addr, err)
	}
	m.energyBegin(m.energy.RxMA)
	m.logf("debug", "node %d entering OBSERVE at t=%.1f", m.addr, m.sched.Now())

	m.observeDeadline = m.sched.ScheduleAfter(SeekJoinDuration, m.exitObserve)
	m.hasObserveDeadline = true
}

// handleSeekJoinObserve records one overheard Seek-Join as a candidate
// parent, provided it still has capacity for another child and its
// receive power clears the proximity gate (spec.md §4.F): rx_power must
// reach RSSIThreshold unless this node is already at MaxTxPowerDBm, in
// which case it has nothing left to gain by holding out.
func (m *MAC) handleSeekJoinObserve(f Frame, rxPowerDBm float64) {
	if f.SeekJoin.NumChildren >= MaxNumChildren {
		return
	}
	if rxPowerDBm < RSSIThreshold && m.txPowerDBm < MaxTxPowerDBm {
		return
	}
	src := f.Header.Src
	if _, known := m.candidates[src]; !known && len(m.candidates) >= MaxNumCandidateParent {
		return
	}
	m.candidates[src] = f.SeekJoin.PrivateChannel
	m.candidateRSSI[src] = rxPowerDBm
	m.knowsNextAcceptJoin = true
	m.nextAcceptJoinAbs = Time(f.SeekJoin.NextAcceptJoinS)
}

// exitObserve closes the Observe window. With at least one candidate, the
// node schedules its entry into JOIN at the network's next announced
// Accept-Join start; with none, it keeps observing.
func (m *MAC) exitObserve() {
	m.hasObserveDeadline = false
	if len(m.candidates) == 0 {
		m.enterObserve()
		return
	}
	start := m.nextAcceptJoinAbs
	if start <= m.sched.Now() {
		m.enterJoin()
		return
	}
	m.sched.ScheduleAt(start, m.enterJoin)
}

// enterJoin builds the ordered candidate list (strongest signal first) and
// begins probing them one at a time (spec.md §4.F).
func (m *MAC) enterJoin() {
	m.state = StateJoin
	m.candidateOrder = make([]Address, 0, len(m.candidates))
	for addr := range m.candidates {
		m.candidateOrder = append(m.candidateOrder, addr)
	}
	sort.Slice(m.candidateOrder, func(i, j int) bool {
		return m.candidateRSSI[m.candidateOrder[i]] > m.candidateRSSI[m.candidateOrder[j]]
	})
	m.candidateIdx = 0
	m.haveBest = false
	m.bestParent = nil
	m.lastAckCandidate = nil
	m.energyBegin(m.energy.RxMA)
	m.tryNextCandidate()
}

// tryNextCandidate sends a Join to the next untried candidate, escalates
// transmit power and restarts the scan once every candidate has been tried
// without success, or commits to the best acceptable candidate found so
// far (spec.md §4.F adaptive transmit power). If every candidate is
// exhausted at MaxTxPowerDBm with none clearing the quality gate, the
// last candidate tried is accepted as a last resort rather than looping
// forever.
func (m *MAC) tryNextCandidate() {
	if m.candidateIdx >= len(m.candidateOrder) {
		if m.haveBest {
			m.finalizeJoin()
			return
		}
		if m.txPowerDBm >= MaxTxPowerDBm && m.lastAckCandidate != nil {
			best := *m.lastAckCandidate
			m.bestParent = &best
			m.haveBest = true
			m.finalizeJoin()
			return
		}
		if m.adaptivePower && m.txPowerDBm < MaxTxPowerDBm {
			m.txPowerDBm += TxPowerIncrementDBm
			m.candidateIdx = 0
			m.tryNextCandidate()
			return
		}
		// No viable parent at any available power; return to observing.
		if m.adaptivePower {
			m.txPowerDBm = MinTxPowerDBm
		}
		m.enterObserve()
		return
	}

	candidate := m.candidateOrder[m.candidateIdx]
	channel := m.candidates[candidate]
	if err := m.radio.SetFrequency(FrequencyForChannel(int(channel))); err != nil {
		m.candidateIdx++
		m.tryNextCandidate()
		return
	}

	join := Frame{Header: MACHeader{Type: TypeJoin, Src: m.addr, Dst: candidate}}
	m.energyBegin(m.txCurrentMA())
	m.radio.Send(join, FrequencyForChannel(int(channel)), m.txPowerDBm)
	m.energyBegin(m.energy.RxMA)

	m.joinAckHandle = m.sched.ScheduleAfter(JoinAckTimeout, func() {
		m.candidateIdx++
		m.tryNextCandidate()
	})
}

// handleJoinAck evaluates one candidate's response. Link quality is
// min(ack.rssi, local_rx_power) — the weaker of the candidate's own
// uplink measurement and this node's downlink reception of the Join-Ack
// (spec.md §4.F). The best-so-far parent is updated when link quality
// clears RSSIThreshold and hops stays under MaxNumHops, ordered by
// fewest hops, then fewest num_children, then highest link quality. The
// candidate's record is retained regardless of outcome, for the
// last-resort fallback in tryNextCandidate.
func (m *MAC) handleJoinAck(f Frame, rxPowerDBm float64) {
	if f.Header.Dst != m.addr {
		return
	}
	if m.candidateIdx >= len(m.candidateOrder) || f.Header.Src != m.candidateOrder[m.candidateIdx] {
		return
	}
	m.sched.Cancel(m.joinAckHandle)

	linkQuality := f.JoinAck.RSSI()
	if int(rxPowerDBm) < linkQuality {
		linkQuality = int(rxPowerDBm)
	}

	cand := ParentRecord{
		ParentAddr:          f.Header.Src,
		Hops:                f.JoinAck.Hops,
		NumChildrenOfParent: f.JoinAck.NumChildren,
		LinkQuality:         linkQuality,
		UplinkChannel:       m.candidates[f.Header.Src],
	}
	last := cand
	m.lastAckCandidate = &last

	if float64(linkQuality) > RSSIThreshold && cand.Hops < MaxNumHops {
		if !m.haveBest || betterParent(cand, *m.bestParent) {
			best := cand
			m.bestParent = &best
			m.haveBest = true
		}
	}

	m.candidateIdx++
	m.tryNextCandidate()
}

// betterParent implements the ordering rule: fewer hops, then fewer
// num_children, then higher link quality.
func betterParent(a, b ParentRecord) bool {
	if a.Hops != b.Hops {
		return a.Hops < b.Hops
	}
	if a.NumChildrenOfParent != b.NumChildrenOfParent {
		return a.NumChildrenOfParent < b.NumChildrenOfParent
	}
	return a.LinkQuality > b.LinkQuality
}

// finalizeJoin confirms the chosen parent with a Join-Cfm and transitions
// to CONNECTED (spec.md §4.F).
func (m *MAC) finalizeJoin() {
	m.parent = *m.bestParent

	cfm := Frame{Header: MACHeader{Type: TypeJoinCfm, Src: m.addr, Dst: m.parent.ParentAddr}}
	m.energyBegin(m.txCurrentMA())
	m.radio.Send(cfm, FrequencyForChannel(int(m.parent.UplinkChannel)), m.txPowerDBm)

	now := m.sched.Now()
	m.state = StateConnected
	if m.tracker != nil {
		m.tracker.OnConnection(m.addr, m.parent.ParentAddr, m.radio.Position, m.txPowerDBm, now)
	}

	m.cycleStart = m.nextAcceptJoinAbs
	seekJoinStart := m.cycleStart + AcceptJoinDuration
	if seekJoinStart <= now {
		m.enterSeekJoin()
		return
	}
	m.sched.ScheduleAt(seekJoinStart, m.enterSeekJoin)
}

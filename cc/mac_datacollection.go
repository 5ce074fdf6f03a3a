package cc

// enterDataCollection begins the Data-Collection phase (spec.md §4.F).
// Every non-gateway node enqueues its own local reading before doing
// anything else; the gateway has none of its own to contribute. An
// overall watchdog bounds the whole phase at DCP_TIMEOUT regardless of
// how the per-round Gateway-Req loop below it behaves.
func (m *MAC) enterDataCollection() {
	m.dcpStart = m.sched.Now()
	m.pending = m.pending[:0]
	if !m.isGateway {
		m.pending = append(m.pending, Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: m.addr},
			NodeReply:        &NodeReplyHeader{Option: NodeReplyLeafLocal, DataLen: uint8(m.replyLen)},
			NodeReplyPayload: make([]byte, m.replyLen),
		})
	}
	m.emptyRounds = 0
	m.dcpTimeoutHandle = m.sched.ScheduleAfter(DCPTimeout, m.onDCPTimeout)
	m.hasDCPTimeout = true

	if m.isGateway {
		m.enterTalkToChildren()
		return
	}
	m.enterListenToParent()
}

// enterListenToParent tunes to the parent's private channel and waits for
// its Gateway-Req.
func (m *MAC) enterListenToParent() {
	m.state = StateListenToParent
	if err := m.radio.SetFrequency(FrequencyForChannel(int(m.parent.UplinkChannel))); err != nil {
		m.logf("warn", "node %d: could not tune for listen-to-parent: %v", m.addr, err)
	}
	m.energyBegin(m.energy.RxMA)
}

// handleGatewayReq answers the parent's poll: adopt its announced
// next-Accept-Join time, back off a random interval, then forward exactly
// one outgoing frame (spec.md §4.F).
func (m *MAC) handleGatewayReq(f Frame) {
	if f.Header.Src != m.parent.ParentAddr {
		return
	}
	if m.tracker != nil {
		m.tracker.OnGatewayReqReceived(m.addr, m.radio.Position)
	}
	m.nextAcceptJoinAbs = Time(f.GatewayReq.NextReqTimeS)
	m.knowsNextAcceptJoin = true

	backoff := Time(m.rng.UniformFloat(float64(MinBackoff), float64(f.GatewayReq.MaxBackoff)))
	m.energyBegin(m.energy.BackoffMA)
	m.sched.ScheduleAfter(backoff, m.forwardToParent)
}

// forwardToParent sends exactly one frame upward, built from whatever is
// pending, then starts this node's own Talk-To-Children round.
func (m *MAC) forwardToParent() {
	if fr, ok := m.buildOutgoingFrame(m.parent.ParentAddr); ok {
		m.energyBegin(m.txCurrentMA())
		m.radio.Send(fr, FrequencyForChannel(int(m.parent.UplinkChannel)), m.txPowerDBm)
	}
	m.enterTalkToChildren()
}

// enterTalkToChildren begins this node's own child-polling role, shared
// symmetrically by the gateway and every relay (spec.md §4.F).
func (m *MAC) enterTalkToChildren() {
	m.state = StateTalkToChildren
	m.broadcastGatewayReq()
}

// broadcastGatewayReq polls this node's children and arms a receive
// window sized to the round-trip plus the advertised back-off.
func (m *MAC) broadcastGatewayReq() {
	maxBackoff := backoffWindow(m.backoffMode, len(m.children))
	req := Frame{
		Header: MACHeader{Type: TypeGatewayReq, Src: m.addr, Dst: Broadcast},
		GatewayReq: &GatewayReqHeader{
			Option:       0,
			Channel:      m.privateChannel,
			NextReqTimeS: uint32(m.nextAcceptJoinAbs),
			MaxBackoff:   uint8(maxBackoff),
		},
	}
	m.roundGotReply = false
	freq := FrequencyForChannel(int(m.privateChannel))
	m.energyBegin(m.txCurrentMA())
	m.radio.Send(req, freq, m.txPowerDBm)

	window := OnAirTime(len(req.Serialize()), DefaultTxParams) + Time(maxBackoff) + 0.5
	m.energyBegin(m.energy.RxMA)
	m.sched.ScheduleAfter(window, m.closeChildWindow)
}

// handleNodeReply ingests one child's reply: a known child's slot is
// marked as heard this cycle; a reply from an address with a recently
// expired pending join is reconciled as that child's first reply
// (spec.md §4.F fallback rule), otherwise it is dropped.
func (m *MAC) handleNodeReply(f Frame) {
	if f.Header.Dst != m.addr {
		return
	}
	src := f.Header.Src
	cr, known := m.children[src]
	if !known {
		if !m.recentlyExpiredPending[src] || len(m.children) >= MaxNumChildren {
			return
		}
		cr = &ChildRecord{}
		m.children[src] = cr
		delete(m.recentlyExpiredPending, src)
	}
	cr.ReplyReceivedThisRound = true
	m.roundGotReply = true

	if m.isGateway {
		m.gatewayIngest(f)
		return
	}
	m.pending = append(m.pending, f)
}

// gatewayIngest credits every original reporting node carried by f,
// unpacking aggregation if present.
func (m *MAC) gatewayIngest(f Frame) {
	if f.NodeReply != nil && f.NodeReply.Option&NodeReplyAggregated != 0 {
		if minis, err := DecodeMiniReplies(f.NodeReplyPayload); err == nil {
			for _, mr := range minis {
				if m.tracker != nil {
					m.tracker.OnReplyDelivered(mr.Src)
				}
			}
			return
		}
	}
	if m.tracker != nil {
		m.tracker.OnReplyDelivered(f.Header.Src)
	}
}

// closeChildWindow ends one polling round: empty-round tracking decides
// whether this node keeps polling its children or gives the floor back
// (spec.md §4.F empty-rounds termination).
func (m *MAC) closeChildWindow() {
	if m.roundGotReply {
		m.emptyRounds = 0
	} else {
		m.emptyRounds++
	}
	if m.emptyRounds >= MaxEmptyRounds {
		m.endTalkToChildrenLoop()
		return
	}
	m.energyBegin(m.energy.ShortHibernateMA)
	m.sched.ScheduleAfter(ShortHibernation, m.broadcastGatewayReq)
}

// endTalkToChildrenLoop stops this node's polling of its children: the
// gateway finishes the whole Data-Collection phase; every other node goes
// back to listening for its own parent's next poll.
func (m *MAC) endTalkToChildrenLoop() {
	m.emptyRounds = 0
	if m.isGateway {
		m.finishDCP()
		return
	}
	m.enterListenToParent()
}

// onDCPTimeout is the phase-wide watchdog. A gateway always finishes
// cleanly; any other node finishes cleanly only if it still knows the
// next Accept-Join time, otherwise it has lost synchronization with its
// parent and self-heals back to Observe (spec.md §4.F, scenario S6).
func (m *MAC) onDCPTimeout() {
	m.hasDCPTimeout = false
	if m.isGateway || m.knowsNextAcceptJoin {
		m.finishDCP()
		return
	}
	m.selfHeal()
}

// finishDCP performs the once-per-phase child bookkeeping (spec.md §4.F:
// a child not heard from this phase loses a duty cycle; three in a row
// drops it) and moves to Hibernate.
func (m *MAC) finishDCP() {
	if m.hasDCPTimeout {
		m.sched.Cancel(m.dcpTimeoutHandle)
		m.hasDCPTimeout = false
	}
	for addr, cr := range m.children {
		if cr.ReplyReceivedThisRound {
			cr.MissingDutyCycles = 0
		} else {
			cr.MissingDutyCycles++
			if cr.MissingDutyCycles >= 3 {
				delete(m.children, addr)
			}
		}
		cr.ReplyReceivedThisRound = false
	}
	m.finishDutyCycleAccounting()
	m.enterHibernate()
}

// enterHibernate waits out the remainder of the duty cycle until the
// next Accept-Join, known by now for every node still in the tree.
func (m *MAC) enterHibernate() {
	m.state = StateHibernate
	m.energyBegin(m.energy.DeepHibernateMA)
	next := m.nextAcceptJoinAbs
	if next <= m.sched.Now() {
		m.enterAcceptJoin()
		return
	}
	m.sched.ScheduleAt(next, m.enterAcceptJoin)
}

// selfHeal drops the node back to a disconnected, unsynchronized state:
// it has gone an entire Data-Collection phase without learning when the
// network's next Accept-Join begins (spec.md §4.F self-healing).
func (m *MAC) selfHeal() {
	m.logf("warn", "node %d: lost synchronization, self-healing at t=%.1f", m.addr, m.sched.Now())
	m.finishDutyCycleAccounting()
	m.state = StateDisconnected
	m.parent = ParentRecord{Hops: 255}
	m.children = make(map[Address]*ChildRecord)
	m.pendingChildren = make(map[Address]*pendingChildRecord)
	m.recentlyExpiredPending = make(map[Address]bool)
	m.knowsNextAcceptJoin = false
	if m.adaptivePower {
		m.txPowerDBm = MinTxPowerDBm
	}
	m.enterObserve()
}

// buildOutgoingFrame assembles exactly one frame to forward upward from
// whatever is pending, aggregating greedily under the payload cap
// (spec.md §4.B, testable property 7).
func (m *MAC) buildOutgoingFrame(dst Address) (Frame, bool) {
	minis := m.flattenPending()
	if len(minis) == 0 {
		return Frame{}, false
	}
	if len(minis) == 1 {
		mr := minis[0]
		opt := uint8(0)
		if mr.Src == m.addr {
			opt = NodeReplyLeafLocal
		}
		return Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: mr.Src, Dst: dst},
			NodeReply:        &NodeReplyHeader{Option: opt, DataLen: uint8(len(mr.Data))},
			NodeReplyPayload: mr.Data,
		}, true
	}

	var payload []byte
	included := 0
	for _, mr := range minis {
		chunk := EmbeddedMiniReplyHeader{Src: mr.Src, DataLen: uint8(len(mr.Data))}.Serialize()
		chunk = append(chunk, mr.Data...)
		if len(payload)+len(chunk) > MaxAggregatedBytes {
			break
		}
		payload = append(payload, chunk...)
		included++
	}
	if included == 0 {
		mr := minis[0]
		m.requeueMinis(minis[1:])
		return Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: mr.Src, Dst: dst},
			NodeReply:        &NodeReplyHeader{Option: 0, DataLen: uint8(len(mr.Data))},
			NodeReplyPayload: mr.Data,
		}, true
	}

	opt := NodeReplyAggregated | NodeReplyLeafLocal
	if leftover := minis[included:]; len(leftover) > 0 {
		opt |= NodeReplyMorePending
		m.requeueMinis(leftover)
	}
	return Frame{
		Header:           MACHeader{Type: TypeNodeReply, Src: m.addr, Dst: dst},
		NodeReply:        &NodeReplyHeader{Option: opt, DataLen: uint8(len(payload))},
		NodeReplyPayload: payload,
	}, true
}

// flattenPending decodes every pending frame into its constituent
// mini-replies (unpacking nested aggregation so true origins survive
// multiple hops) and empties the pending queue.
func (m *MAC) flattenPending() []MiniReply {
	var out []MiniReply
	for _, fr := range m.pending {
		if fr.NodeReply != nil && fr.NodeReply.Option&NodeReplyAggregated != 0 {
			if minis, err := DecodeMiniReplies(fr.NodeReplyPayload); err == nil {
				out = append(out, minis...)
				continue
			}
		}
		out = append(out, MiniReply{Src: fr.Header.Src, Data: fr.NodeReplyPayload})
	}
	m.pending = m.pending[:0]
	return out
}

// requeueMinis re-wraps mini-replies that did not fit this round as plain
// single-source frames for the next aggregation attempt.
func (m *MAC) requeueMinis(ms []MiniReply) {
	for _, mr := range ms {
		m.pending = append(m.pending, Frame{
			Header:           MACHeader{Type: TypeNodeReply, Src: mr.Src},
			NodeReply:        &NodeReplyHeader{Option: 0, DataLen: uint8(len(mr.Data))},
			NodeReplyPayload: mr.Data,
		})
	}
}

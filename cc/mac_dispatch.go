package cc

// onRxOk is the Radio's success callback. Dispatch is a plain switch over
// the frame's declared type and the MAC's current state — a tagged-union
// dispatch per spec.md §9, no runtime polymorphism.
func (m *MAC) onRxOk(f Frame, rxPowerDBm float64) {
	switch f.Header.Type {
	case TypeJoin:
		if m.state == StateAcceptJoin {
			m.handleJoin(f, rxPowerDBm)
		}
	case TypeJoinAck:
		if m.state == StateJoin {
			m.handleJoinAck(f, rxPowerDBm)
		}
	case TypeJoinCfm:
		if m.state == StateAcceptJoin {
			m.handleJoinCfm(f)
		}
	case TypeSeekJoin:
		switch m.state {
		case StateObserve:
			m.handleSeekJoinObserve(f, rxPowerDBm)
		case StateSeekJoinWindow:
			m.handleSeekJoinWindow(f)
		}
	case TypeGatewayReq:
		if m.state == StateListenToParent {
			m.handleGatewayReq(f)
		}
	case TypeNodeReply:
		if m.state == StateTalkToChildren {
			m.handleNodeReply(f)
		}
	}
}

// onRxFailed is the Radio's collision callback (spec.md §4.C): receive
// failed by collision at the radio level. Attribute it to the tracker at
// this node's current distance-from-gateway, in hops.
func (m *MAC) onRxFailed(f Frame) {
	hops := int(m.parent.Hops)
	if m.isGateway {
		hops = 0
	}
	if m.tracker != nil {
		m.tracker.OnCollision(hops)
	}
}

// onHalfDuplex is the Radio's half-duplex-loss callback.
func (m *MAC) onHalfDuplex(f Frame) {
	if m.tracker != nil {
		m.tracker.OnHalfDuplex(m.addr)
	}
}

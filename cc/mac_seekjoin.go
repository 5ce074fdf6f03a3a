package cc

// enterSeekJoin opens the 120-second Seek-Join window (spec.md §4.F): the
// node listens for peers' Seek-Join broadcasts (feeding the Channel
// Selector) and emits exactly one of its own, advertising the private
// channel it has chosen for the coming Accept-Join/Data-Collection cycle.
func (m *MAC) enterSeekJoin() {
	m.state = StateSeekJoinWindow
	m.knowsNextAcceptJoin = m.isGateway
	if m.isGateway {
		m.nextAcceptJoinAbs = m.cycleStart + DutyCycleDuration
	}

	if err := m.radio.SetFrequency(FrequencyForChannel(PublicChannel)); err != nil {
		m.logf("warn", "node %d: could not tune for seek-join: %v", m.addr, err)
	}
	m.energyBegin(m.energy.RxMA)
	m.logf("debug", "node %d entering SEEK_JOIN_WINDOW at t=%.1f", m.addr, m.sched.Now())

	var lead Time
	if m.isGateway {
		lead = SeekJoinGatewayLead
	} else {
		lead = Time(m.rng.UniformFloat(float64(MinBackoff), float64(backoffWindow(m.backoffMode, len(m.children)))))
	}
	m.sched.ScheduleAfter(lead, m.broadcastSeekJoin)

	m.sched.ScheduleAfter(SeekJoinDuration, m.exitSeekJoin)
}

// broadcastSeekJoin picks this cycle's private channel and announces it.
func (m *MAC) broadcastSeekJoin() {
	m.privateChannel = m.channelSel.Select()

	nextAccept := m.nextAcceptJoinAbs
	if !m.knowsNextAcceptJoin {
		nextAccept = m.cycleStart + DutyCycleDuration
	}

	f := Frame{
		Header: MACHeader{Type: TypeSeekJoin, Src: m.addr, Dst: Broadcast},
		SeekJoin: &SeekJoinHeader{
			PrivateChannel:  m.privateChannel,
			ParentChannel:   m.parent.UplinkChannel,
			NumChildren:     uint8(len(m.children)),
			MaxBackoff:      uint8(backoffWindow(m.backoffMode, len(m.children))),
			NextAcceptJoinS: uint32(nextAccept),
		},
	}
	m.energyBegin(m.txCurrentMA())
	m.radio.Send(f, FrequencyForChannel(PublicChannel), m.txPowerDBm)
	m.energyBegin(m.energy.RxMA)
}

// handleSeekJoinWindow feeds one overheard Seek-Join into the Channel
// Selector and, since the announced next-Accept-Join time is
// network-wide, adopts it if not already known (spec.md §4.E, §4.F).
func (m *MAC) handleSeekJoinWindow(f Frame) {
	m.channelSel.Observe(f.SeekJoin.PrivateChannel, f.SeekJoin.ParentChannel)
	if !m.knowsNextAcceptJoin {
		m.knowsNextAcceptJoin = true
		m.nextAcceptJoinAbs = Time(f.SeekJoin.NextAcceptJoinS)
	}
}

// exitSeekJoin closes the window and begins Data-Collection: the gateway
// starts talking to its children immediately; every other node first
// listens for its own parent's Gateway-Req.
func (m *MAC) exitSeekJoin() {
	if !m.knowsNextAcceptJoin {
		m.nextAcceptJoinAbs = m.cycleStart + DutyCycleDuration
		m.knowsNextAcceptJoin = true
	}
	m.enterDataCollection()
}

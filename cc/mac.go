package cc

// State is one of the Cottoncandy MAC's phases (spec.md §4.F).
type State int

const (
	StateDisconnected State = iota
	StateObserve
	StateJoin
	StateConnected
	StateSeekJoinWindow
	StateListenToParent
	StateTalkToChildren
	StateHibernate
	StateAcceptJoin
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateObserve:
		return "OBSERVE"
	case StateJoin:
		return "JOIN"
	case StateConnected:
		return "CONNECTED"
	case StateSeekJoinWindow:
		return "SEEK_JOIN_WINDOW"
	case StateListenToParent:
		return "LISTEN_TO_PARENT"
	case StateTalkToChildren:
		return "TALK_TO_CHILDREN"
	case StateHibernate:
		return "HIBERNATE"
	case StateAcceptJoin:
		return "ACCEPT_JOIN"
	default:
		return "UNKNOWN"
	}
}

// BackoffMode selects the back-off window table used for both Seek-Join
// announcements and Gateway-Req (spec.md §4.F).
type BackoffMode int

const (
	BackoffAdaptive BackoffMode = iota
	BackoffStatic3
	BackoffStatic12
)

// Timing constants, spec.md §4.F.
const (
	AcceptJoinDuration  Time = 6
	SeekJoinDuration    Time = 120
	DutyCycleDuration   Time = 3600
	DCPTimeout          Time = 900
	ShortHibernation    Time = 10
	JoinAckTimeout      Time = 1
	MaxBackoffJoin      Time = 1
	MinBackoff          Time = 0.1
	SeekJoinGatewayLead Time = 3 // gateway emits its Seek-Join 3s into the phase
)

// Protocol constants, spec.md §4.F.
const (
	MaxNumChildren        = 3
	MaxNumCandidateParent = 3
	MaxNumHops            = 10
	MaxEmptyRounds        = 5
	RSSIThreshold         = -115.0
	MinTxPowerDBm         = 8.0
	MaxTxPowerDBm         = 17.0
	TxPowerIncrementDBm   = 1.0
	MaxAggregatedBytes    = 64
)

// ParentRecord is held by every non-gateway node (spec.md §3). Hops=255
// is the disconnected sentinel.
type ParentRecord struct {
	ParentAddr        Address
	Hops              uint8
	NumChildrenOfParent uint8
	LinkQuality       int
	UplinkChannel     uint8
}

// ChildRecord is held by a parent, one per accepted (Join-Cfm-confirmed)
// child (spec.md §3).
type ChildRecord struct {
	ReplyReceivedThisRound bool
	MissingDutyCycles      int
}

// pendingChildRecord tracks a sent Join-Ack awaiting its Join-Cfm; expires
// when the Accept-Join phase ends.
type pendingChildRecord struct {
	Address   Address
	Timestamp Time
}

// EnergyProfile gives the current draw, in mA, for each MAC activity.
// Transmit current is a function of transmit power.
type EnergyProfile struct {
	RxMA             float64
	BackoffMA        float64
	TxMA             map[int]float64
	ShortHibernateMA float64
	DeepHibernateMA  float64
}

// DefaultEnergyProfile gives representative LoRa-radio current draws.
func DefaultEnergyProfile() EnergyProfile {
	tx := make(map[int]float64, int(MaxTxPowerDBm-MinTxPowerDBm)+1)
	for p := int(MinTxPowerDBm); p <= int(MaxTxPowerDBm); p++ {
		// Roughly linear increase in transmit current with dBm, typical
		// of SX127x-class transceivers.
		tx[p] = 20.0 + float64(p-int(MinTxPowerDBm))*4.0
	}
	return EnergyProfile{
		RxMA:             11.0,
		BackoffMA:        1.5,
		TxMA:             tx,
		ShortHibernateMA: 0.5,
		DeepHibernateMA:  0.002,
	}
}

// Logger is the minimal structured-logging surface the MAC and Driver use.
// A nil Logger silences all logging; it is never required for correct
// operation (spec.md §7: no exception-style control, ambient logging is
// purely observational).
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
}

// MAC implements the Cottoncandy per-node protocol state machine
// (spec.md §4.F). Every cross-node reference (parent, children, medium
// peers) is an Address, not a pointer — the Driver's node arena is the
// only place holding *MAC values (spec.md §9).
type MAC struct {
	addr      Address
	isGateway bool

	radio      *Radio
	sched      *Scheduler
	tracker    *Tracker
	rng        *Rand
	channelSel *ChannelSelector
	energy     EnergyProfile
	log        Logger

	state State

	adaptivePower bool
	txPowerDBm    float64
	backoffMode   BackoffMode

	parent         ParentRecord
	privateChannel uint8

	children        map[Address]*ChildRecord
	pendingChildren map[Address]*pendingChildRecord
	outstandingJoinAcks int

	candidates     map[Address]uint8 // address -> advertised private channel
	candidateRSSI  map[Address]float64
	candidateOrder []Address
	candidateIdx   int
	bestParent     *ParentRecord
	haveBest       bool
	lastAckCandidate *ParentRecord
	observeDeadline Handle
	hasObserveDeadline bool

	pending  []Frame // fully-framed outgoing Node-Replies awaiting forwarding
	replyLen int

	knowsNextAcceptJoin bool
	nextAcceptJoinAbs   Time
	cycleStart          Time // absolute time this duty cycle's Accept-Join began

	emptyRounds  int
	roundGotReply bool
	dcpStart     Time

	recentlyExpiredPending map[Address]bool

	dcpTimeoutHandle Handle
	hasDCPTimeout    bool

	// energy accounting: accumulated current x time (mA·s) this duty cycle, plus
	// the in-progress segment's start time and current draw.
	energyMJ       float64
	segStart       Time
	segMA          float64
	segTracking    bool

	joinAckHandle Handle
}

// MACConfig bundles the construction-time parameters for a MAC instance.
type MACConfig struct {
	Addr          Address
	IsGateway     bool
	Radio         *Radio
	Scheduler     *Scheduler
	Tracker       *Tracker
	Rand          *Rand
	ChannelSelector *ChannelSelector
	Energy        EnergyProfile
	Logger        Logger
	ReplyLen      int
	AdaptivePower bool
	BackoffMode   BackoffMode
	InitialTxPowerDBm float64
}

// NewMAC builds a MAC instance and wires it to its Radio's callbacks.
func NewMAC(cfg MACConfig) *MAC {
	m := &MAC{
		addr:            cfg.Addr,
		isGateway:       cfg.IsGateway,
		radio:           cfg.Radio,
		sched:           cfg.Scheduler,
		tracker:         cfg.Tracker,
		rng:             cfg.Rand,
		channelSel:      cfg.ChannelSelector,
		energy:          cfg.Energy,
		log:             cfg.Logger,
		adaptivePower:   cfg.AdaptivePower,
		txPowerDBm:      cfg.InitialTxPowerDBm,
		backoffMode:     cfg.BackoffMode,
		replyLen:        cfg.ReplyLen,
		children:        make(map[Address]*ChildRecord),
		pendingChildren: make(map[Address]*pendingChildRecord),
		candidates:      make(map[Address]uint8),
		candidateRSSI:   make(map[Address]float64),
		recentlyExpiredPending: make(map[Address]bool),
		parent:          ParentRecord{Hops: 255},
	}
	if m.isGateway {
		m.parent.Hops = 0
		m.state = StateConnected
	} else {
		m.state = StateDisconnected
	}
	cfg.Radio.OnRxOk = m.onRxOk
	cfg.Radio.OnRxFailed = m.onRxFailed
	cfg.Radio.OnHalfDuplex = m.onHalfDuplex
	return m
}

func (m *MAC) logf(level string, format string, args ...any) {
	if m.log == nil {
		return
	}
	switch level {
	case "debug":
		m.log.Debugf(format, args...)
	case "warn":
		m.log.Warnf(format, args...)
	default:
		m.log.Infof(format, args...)
	}
}

// Start begins the node's lifecycle (spec.md §3 Lifecycle): the gateway
// enters Accept-Join immediately; every other node begins Observe after
// an application-start jitter already applied by the Driver before Start
// is called.
func (m *MAC) Start() {
	if m.isGateway {
		m.enterAcceptJoin()
		return
	}
	m.enterObserve()
}

// energyBegin starts accounting a new activity segment at currentMA,
// closing out whatever segment (if any) was already open.
func (m *MAC) energyBegin(currentMA float64) {
	m.energyEnd()
	m.segStart = m.sched.Now()
	m.segMA = currentMA
	m.segTracking = true
}

// energyEnd closes the currently open segment, if any, adding its
// contribution to the accumulated total.
func (m *MAC) energyEnd() {
	if !m.segTracking {
		return
	}
	elapsed := float64(m.sched.Now() - m.segStart)
	if elapsed > 0 {
		m.energyMJ += m.segMA * elapsed
	}
	m.segTracking = false
}

// finishDutyCycleAccounting closes the open energy segment, reports the
// duty cycle's accumulated total through EnergyUsed, then clears that
// total and the empty-round counter.
func (m *MAC) finishDutyCycleAccounting() {
	m.energyEnd()
	if m.tracker != nil {
		m.tracker.OnEnergyUsed(m.addr, m.energyMJ)
	}
	m.energyMJ = 0
	m.emptyRounds = 0
}

// txCurrentMA returns the energy-table current draw for the MAC's present
// transmit power, rounded to the nearest configured dBm step.
func (m *MAC) txCurrentMA() float64 {
	p := int(m.txPowerDBm + 0.5)
	if cur, ok := m.energy.TxMA[p]; ok {
		return cur
	}
	return m.energy.TxMA[int(MinTxPowerDBm)]
}

// backoffWindow returns the max back-off, in seconds, for the given
// number of children under the MAC's configured back-off mode
// (spec.md §4.F table).
func backoffWindow(mode BackoffMode, numChildren int) Time {
	switch mode {
	case BackoffStatic3:
		switch numChildren {
		case 0:
			return 1
		default:
			return 3
		}
	case BackoffStatic12:
		switch numChildren {
		case 0:
			return 1
		case 1:
			return 3
		default:
			return 12
		}
	default: // BackoffAdaptive
		switch numChildren {
		case 0:
			return 1
		case 1:
			return 3
		case 2:
			return 5
		default:
			return 9
		}
	}
}

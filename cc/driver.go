package cc

// nodeHandle is the Driver's arena entry for one simulated node: MAC and
// Radio are owned here, never reached through another node's state
// (spec.md §9 arena-indexed references).
type nodeHandle struct {
	mac   *MAC
	radio *Radio
	pos   Position
}

// Driver wires every component together and runs the simulation
// (spec.md §4.I). It is the only place holding *MAC/*Radio pointers;
// everything else refers to nodes by Address.
type Driver struct {
	cfg         Config
	scheduler   *Scheduler
	medium      *Medium
	tracker     *Tracker
	rng         *Rand
	addrGen     *AddressGenerator
	gatewayAddr Address
	nodes       map[Address]*nodeHandle
	log         Logger
}

// NewDriver builds a Driver from cfg: one gateway at the origin plus
// cfg.NumNodes devices placed by the configured PlacementModel.
func NewDriver(cfg Config, log Logger) *Driver {
	rng := NewRand(cfg.Seed)
	sched := NewScheduler()
	prop := NewLogDistanceModel(rng)
	medium := NewMedium(sched, prop)
	// Join completion counts Tracker entries, the gateway's included: the
	// gateway never calls Tracker.OnConnection, but its entry is created by
	// OnEnergyUsed at the end of its first Data-Collection phase.
	tracker := NewTracker(cfg.NumNodes + 1)
	addrGen := NewAddressGenerator()

	d := &Driver{
		cfg:       cfg,
		scheduler: sched,
		medium:    medium,
		tracker:   tracker,
		rng:       rng,
		addrGen:   addrGen,
		nodes:     make(map[Address]*nodeHandle),
		log:       log,
	}

	channelMode, backoffMode, adaptivePower := cfg.modeProfile()

	gwAddr := addrGen.NextGateway()
	d.gatewayAddr = gwAddr
	d.addNode(gwAddr, Position{}, true, channelMode, backoffMode, adaptivePower)

	placement := cfg.Placement()
	for _, pos := range placement.Place(cfg.NumNodes, rng) {
		addr := addrGen.NextDevice()
		d.addNode(addr, pos, false, channelMode, backoffMode, adaptivePower)
	}

	return d
}

func (d *Driver) addNode(addr Address, pos Position, isGateway bool, channelMode ChannelMode, backoffMode BackoffMode, adaptivePower bool) {
	radio := NewRadio(addr, pos, d.medium)
	channelSel := NewChannelSelector(channelMode, d.cfg.NumChannels, d.rng)

	mac := NewMAC(MACConfig{
		Addr:              addr,
		IsGateway:         isGateway,
		Radio:             radio,
		Scheduler:         d.scheduler,
		Tracker:           d.tracker,
		Rand:              d.rng,
		ChannelSelector:   channelSel,
		Energy:            DefaultEnergyProfile(),
		Logger:            d.log,
		ReplyLen:          d.cfg.ReplyLen,
		AdaptivePower:     adaptivePower,
		BackoffMode:       backoffMode,
		InitialTxPowerDBm: MinTxPowerDBm,
	})

	d.nodes[addr] = &nodeHandle{mac: mac, radio: radio, pos: pos}
}

// Run jitters every non-gateway node's application start within
// [0, StartJitter] seconds, starts the gateway at t=0, and runs the
// scheduler to simulationTime hours.
func (d *Driver) Run() {
	for addr, ne := range d.nodes {
		mac := ne.mac
		if addr == d.gatewayAddr {
			d.scheduler.ScheduleAt(0, mac.Start)
			continue
		}
		jitter := Time(d.rng.UniformFloat(0, d.cfg.StartJitter))
		d.scheduler.ScheduleAfter(jitter, mac.Start)
	}
	d.scheduler.RunUntil(Time(d.cfg.SimulationTime * 3600))
}

// Tracker returns the Driver's Tracker, for reporting.
func (d *Driver) Tracker() *Tracker { return d.tracker }

// GatewayAddress returns the gateway's address.
func (d *Driver) GatewayAddress() Address { return d.gatewayAddr }

// Scheduler exposes the Driver's scheduler, chiefly for tests that want
// finer-grained control than Run's single RunUntil call.
func (d *Driver) Scheduler() *Scheduler { return d.scheduler }

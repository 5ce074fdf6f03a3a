package cc

import "sort"

// NodeRecord is the Tracker's per-node bookkeeping (spec.md §4.H).
type NodeRecord struct {
	Address           Address
	Position          Position
	Parent            Address
	HasParent         bool
	NumReqReceived    int
	NumReplyDelivered int
	NumSelfHealing    int
	TxPowerDBm        float64
	TimeFirstJoin     Time
	EnergyMilliJoule  float64
}

// CollisionHistogram counts collisions keyed by remaining hops to the
// gateway at the point of collision.
type CollisionHistogram map[int]int

// Tracker owns topology and counter state for every node. Components call
// its hooks; the Tracker itself never reaches into a node's MAC state
// (spec.md §5 Shared resources: trackers receive copies through hook
// invocations).
type Tracker struct {
	nodes           map[Address]*NodeRecord
	collisions      CollisionHistogram
	halfDuplex      int
	totalNodeCount  int
	joinCompletion  Time
	joinCompleteSet bool
}

// NewTracker builds an empty Tracker expecting totalNodeCount entries
// (including the gateway) before join completion is considered reached.
func NewTracker(totalNodeCount int) *Tracker {
	return &Tracker{
		nodes:          make(map[Address]*NodeRecord),
		collisions:     make(CollisionHistogram),
		totalNodeCount: totalNodeCount,
	}
}

func (t *Tracker) ensure(addr Address, pos Position) *NodeRecord {
	n, ok := t.nodes[addr]
	if !ok {
		n = &NodeRecord{Address: addr, Position: pos}
		t.nodes[addr] = n
	}
	return n
}

// OnConnection records a successful Join-Cfm completion. Fresh vs
// self-heal is distinguished by whether the address was already present;
// a pre-existing entry increments NumSelfHealing instead of being treated
// as a first join.
func (t *Tracker) OnConnection(addr Address, parent Address, pos Position, txPowerDBm float64, now Time) {
	_, existed := t.nodes[addr]
	n := t.ensure(addr, pos)
	n.Parent = parent
	n.HasParent = true
	n.TxPowerDBm = txPowerDBm
	if !existed {
		n.TimeFirstJoin = now
	} else {
		n.NumSelfHealing++
	}
	t.maybeMarkJoinComplete(now)
}

// OnGatewayReqReceived records that addr received a Gateway-Req.
func (t *Tracker) OnGatewayReqReceived(addr Address, pos Position) {
	n := t.ensure(addr, pos)
	n.NumReqReceived++
}

// OnReplyDelivered records one delivered reply originating at src,
// observed at the gateway.
func (t *Tracker) OnReplyDelivered(src Address) {
	n := t.ensure(src, Position{})
	n.NumReplyDelivered++
}

// OnCollision records a collision at the given remaining-hops count.
func (t *Tracker) OnCollision(hopsRemaining int) {
	t.collisions[hopsRemaining]++
}

// OnHalfDuplex records a half-duplex loss.
func (t *Tracker) OnHalfDuplex(addr Address) {
	t.halfDuplex++
}

// OnEnergyUsed records total accumulated energy for a node at the end of
// a Data-Collection phase.
func (t *Tracker) OnEnergyUsed(addr Address, totalMilliJoule float64) {
	n := t.ensure(addr, Position{})
	n.EnergyMilliJoule = totalMilliJoule
}

func (t *Tracker) maybeMarkJoinComplete(now Time) {
	if t.joinCompleteSet {
		return
	}
	if len(t.nodes) >= t.totalNodeCount {
		t.joinCompletion = now
		t.joinCompleteSet = true
	}
}

// JoinCompletionTime returns the time at which the entry count first
// equaled the configured node count, and whether that has happened yet.
func (t *Tracker) JoinCompletionTime() (Time, bool) {
	return t.joinCompletion, t.joinCompleteSet
}

// HalfDuplexCount returns the total number of half-duplex losses recorded.
func (t *Tracker) HalfDuplexCount() int {
	return t.halfDuplex
}

// TotalCollisions returns the sum of all per-hop collision counts.
func (t *Tracker) TotalCollisions() int {
	total := 0
	for _, v := range t.collisions {
		total += v
	}
	return total
}

// CollisionsByHop returns a copy of the collision histogram.
func (t *Tracker) CollisionsByHop() CollisionHistogram {
	out := make(CollisionHistogram, len(t.collisions))
	for k, v := range t.collisions {
		out[k] = v
	}
	return out
}

// Nodes returns every tracked node record, sorted by address, for stable
// report output.
func (t *Tracker) Nodes() []*NodeRecord {
	out := make([]*NodeRecord, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

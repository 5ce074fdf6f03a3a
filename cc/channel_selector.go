package cc

// PublicChannel is the single channel used for Seek-Join broadcasts and
// the Join/Join-Ack/Join-Cfm exchange.
const PublicChannel = 64

// ChannelMode selects the Channel Selector's decision algorithm
// (spec.md §4.E).
type ChannelMode int

const (
	// SingleChannel always returns the public channel.
	SingleChannel ChannelMode = iota
	// RandomChannel returns a uniform random private channel.
	RandomChannel
	// ChannelAnnouncement returns the minimum-count channel, ties broken
	// uniformly at random. Default mode.
	ChannelAnnouncement
)

// ChannelSelector tracks, per private channel, how many Seek-Join
// announcements were overheard since the last decision.
type ChannelSelector struct {
	mode        ChannelMode
	numChannels int
	counts      []int
	rng         *Rand
}

// NewChannelSelector builds a selector with numChannels private channels
// (0..numChannels-1), all counters at zero.
func NewChannelSelector(mode ChannelMode, numChannels int, rng *Rand) *ChannelSelector {
	return &ChannelSelector{
		mode:        mode,
		numChannels: numChannels,
		counts:      make([]int, numChannels),
		rng:         rng,
	}
}

// Observe records one overheard Seek-Join's advertised private and parent
// channels, incrementing both counters when they fall within range.
func (c *ChannelSelector) Observe(privateChannel, parentChannel uint8) {
	if int(privateChannel) < c.numChannels {
		c.counts[privateChannel]++
	}
	if int(parentChannel) < c.numChannels {
		c.counts[parentChannel]++
	}
}

// Select returns the channel chosen by the configured algorithm and resets
// all counters for the next Seek-Join window.
func (c *ChannelSelector) Select() uint8 {
	defer c.reset()

	switch c.mode {
	case SingleChannel:
		return PublicChannel
	case RandomChannel:
		return uint8(c.rng.Intn(c.numChannels))
	case ChannelAnnouncement:
		return c.minCountChannel()
	default:
		return PublicChannel
	}
}

func (c *ChannelSelector) minCountChannel() uint8 {
	if c.numChannels == 0 {
		return 0
	}
	min := c.counts[0]
	for _, v := range c.counts[1:] {
		if v < min {
			min = v
		}
	}
	var candidates []uint8
	for ch, v := range c.counts {
		if v == min {
			candidates = append(candidates, uint8(ch))
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[c.rng.Intn(len(candidates))]
}

func (c *ChannelSelector) reset() {
	for i := range c.counts {
		c.counts[i] = 0
	}
}

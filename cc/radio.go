package cc

import "math"

// RadioMode is the Radio's half-duplex transceiver state.
type RadioMode int

const (
	ModeStandby RadioMode = iota
	ModeTX
	ModeRXLocked
)

// TxParams bundles the modulation parameters needed to compute on-air
// time. All Cottoncandy radios use the same spreading factor, bandwidth,
// and coding rate; only transmit power varies by node (spec.md §4.F
// adaptive tx-power).
type TxParams struct {
	SpreadingFactor int
	BandwidthHz     float64
	CodingRateDenom int // e.g. 5 for coding rate 4/5
	PreambleSymbols int
}

// DefaultTxParams matches spec.md §4.C: SF7, 125 kHz, 4/5 coding rate,
// 8-symbol preamble.
var DefaultTxParams = TxParams{
	SpreadingFactor: 7,
	BandwidthHz:     125000,
	CodingRateDenom: 5,
	PreambleSymbols: 8,
}

// OnAirTime computes LoRa on-air time for a payload of payloadBytes,
// explicit header (H=0), no low-data-rate optimization (DE=0) — valid at
// SF7/125kHz.
func OnAirTime(payloadBytes int, p TxParams) Time {
	tSym := math.Pow(2, float64(p.SpreadingFactor)) / p.BandwidthHz
	tPreamble := (float64(p.PreambleSymbols) + 4.25) * tSym

	cr := float64(p.CodingRateDenom - 4)
	numerator := 8*float64(payloadBytes) - 4*float64(p.SpreadingFactor) + 28 + 16
	denominator := 4 * float64(p.SpreadingFactor)
	payloadSymbNb := 8.0
	if numerator > 0 {
		payloadSymbNb += math.Ceil(numerator/denominator) * (cr + 4)
	}
	tPayload := payloadSymbNb * tSym
	return Time(tPreamble + tPayload)
}

// FrequencyForChannel converts a channel number to its MHz frequency
// (spec.md §3).
func FrequencyForChannel(channel int) float64 {
	return 902.0 + 0.2*float64(channel)
}

// inFlightRX tracks one candidate reception in progress at a receiver.
type inFlightRX struct {
	frame      Frame
	srcRadio   *Radio
	start, end Time
	rxPowerDBm float64
	collided   bool
}

// Radio is a per-node half-duplex transceiver. It has no notion of MAC
// semantics; it only knows how to tune, transmit, and report what arrived.
type Radio struct {
	Addr           Address
	Position       Position
	medium         *Medium
	currentFreqMHz float64
	mode           RadioMode
	txPower        float64
	txParams       TxParams
	incoming       *inFlightRX

	OnRxOk       func(f Frame, rxPowerDBm float64)
	OnRxFailed   func(f Frame)
	OnHalfDuplex func(f Frame)
}

// NewRadio constructs a radio at pos, registered with medium.
func NewRadio(addr Address, pos Position, medium *Medium) *Radio {
	r := &Radio{
		Addr:     addr,
		Position: pos,
		medium:   medium,
		txParams: DefaultTxParams,
	}
	medium.register(r)
	return r
}

// SetFrequency tunes the radio. Legal only in STANDBY (spec.md §4.C).
func (r *Radio) SetFrequency(freqMHz float64) error {
	if r.mode != ModeStandby {
		return newErr(KindRadioBusy, "set_frequency while not in STANDBY")
	}
	r.currentFreqMHz = freqMHz
	return nil
}

// Send transmits frame on freqMHz at txPowerDBm. If a reception was in
// progress it is aborted; if that reception's frame was destined for this
// node and was a Node-Reply, OnHalfDuplex fires before the transmit
// proceeds (spec.md §4.C).
func (r *Radio) Send(frame Frame, freqMHz float64, txPowerDBm float64) {
	if r.incoming != nil {
		inc := r.incoming
		r.incoming = nil
		if !inc.collided && r.destinedHere(inc.frame) && inc.frame.Header.Type == TypeNodeReply {
			if r.OnHalfDuplex != nil {
				r.OnHalfDuplex(inc.frame)
			}
		}
	}

	r.mode = ModeTX
	r.currentFreqMHz = freqMHz
	r.txPower = txPowerDBm

	duration := OnAirTime(len(frame.Serialize()), r.txParams)
	start := r.medium.scheduler.Now()
	end := start + duration

	// The return to STANDBY is scheduled before any receiver's
	// end-of-reception event, so a peer that answers the instant this
	// frame ends (a Join-Ack) finds this radio able to receive.
	r.medium.scheduler.ScheduleAfter(duration, func() {
		r.mode = ModeStandby
	})

	r.medium.beginTransmission(r, frame, freqMHz, txPowerDBm, start, end)
}

// destinedHere reports whether f targets this node directly or broadcast.
func (r *Radio) destinedHere(f Frame) bool {
	return f.Header.Dst == r.Addr || f.Header.Dst == Broadcast
}

// beginReception is called by the Medium when a transmission's signal
// would reach this radio above the noise floor. It detects collisions
// against any reception already in progress.
func (r *Radio) beginReception(src *Radio, frame Frame, rxPowerDBm float64, start, end Time) {
	if r.mode == ModeTX {
		// A transmitting radio cannot also receive; its own transmit wins,
		// but a preamble destined here still fires on_half_duplex.
		if r.destinedHere(frame) && r.OnHalfDuplex != nil {
			r.OnHalfDuplex(frame)
		}
		return
	}
	inc := &inFlightRX{frame: frame, srcRadio: src, start: start, end: end, rxPowerDBm: rxPowerDBm}

	if r.incoming != nil && !r.incoming.collided {
		r.incoming.collided = true
		inc.collided = true
	} else if r.incoming != nil {
		inc.collided = true
	}

	r.mode = ModeRXLocked
	r.incoming = inc

	r.medium.scheduler.ScheduleAt(end, func() {
		r.finishReception(inc)
	})
}

func (r *Radio) finishReception(inc *inFlightRX) {
	if r.incoming == inc {
		r.incoming = nil
		if r.mode == ModeRXLocked {
			r.mode = ModeStandby
		}
	}
	if inc.collided {
		if r.destinedHere(inc.frame) && r.OnRxFailed != nil {
			r.OnRxFailed(inc.frame)
		}
		return
	}
	if r.OnRxOk != nil {
		r.OnRxOk(inc.frame, inc.rxPowerDBm)
	}
}

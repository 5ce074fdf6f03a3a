package cc

// Medium is the logically shared radio channel. It has no locking because
// there is exactly one dispatcher (the Scheduler); it queries the
// PropagationModel once per transmitter/receiver pair and lets each
// receiving Radio decide half-duplex/collision outcomes for itself
// (spec.md §5 Shared resources).
type Medium struct {
	scheduler *Scheduler
	prop      PropagationModel
	radios    []*Radio
}

// NewMedium builds a shared medium driven by scheduler and prop.
func NewMedium(scheduler *Scheduler, prop PropagationModel) *Medium {
	return &Medium{scheduler: scheduler, prop: prop}
}

func (m *Medium) register(r *Radio) {
	m.radios = append(m.radios, r)
}

// beginTransmission notifies every other radio tuned to freqMHz that a
// transmission is starting, if its signal reaches them above the
// propagation model's noise floor.
func (m *Medium) beginTransmission(tx *Radio, frame Frame, freqMHz, txPowerDBm float64, start, end Time) {
	for _, rx := range m.radios {
		if rx == tx {
			continue
		}
		if rx.currentFreqMHz != freqMHz {
			continue
		}
		rxPowerDBm, ok := m.prop.ReceivedPower(tx.Position, rx.Position, freqMHz, txPowerDBm)
		if !ok {
			continue
		}
		rx.beginReception(tx, frame, rxPowerDBm, start, end)
	}
}

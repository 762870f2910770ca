package snapshot

import "github.com/avdanilov/dogwalk-server/pkg/logger"

// PeriodicSaver is the tick observer that triggers a snapshot save once
// enough simulated time has elapsed. It implements app.Listener.
type PeriodicSaver struct {
	path        string
	intervalMs  int64
	accumulated int64
	stateFn     func() State
}

// NewPeriodicSaver builds a saver that writes to path every intervalMs of
// simulated tick time. stateFn is called lazily, only when a save is about
// to happen, so it always captures the freshest state.
func NewPeriodicSaver(path string, intervalMs int64, stateFn func() State) *PeriodicSaver {
	return &PeriodicSaver{path: path, intervalMs: intervalMs, stateFn: stateFn}
}

// OnTick accumulates deltaMs and saves once the configured interval has
// been crossed, resetting the accumulator.
func (p *PeriodicSaver) OnTick(deltaMs int64) {
	p.accumulated += deltaMs
	if p.accumulated < p.intervalMs {
		return
	}
	p.accumulated = 0
	p.SaveNow()
}

// SaveNow saves immediately; OnTick calls it once the interval is crossed.
func (p *PeriodicSaver) SaveNow() {
	if err := Save(p.path, p.stateFn()); err != nil {
		logger.Log.WithError(err).Error("snapshot: periodic save failed")
	}
}

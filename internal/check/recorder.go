package check

import (
	"vesna/internal/suggest"
)

// Recorder is the observation accumulator for one worker. Никакой
// синхронизации: каждый шард владеет своим экземпляром, драйвер
// конкатенирует списки после завершения фазы.
type Recorder struct {
	obs []suggest.Observation
}

// Record appends one observation.
func (r *Recorder) Record(o suggest.Observation) {
	r.obs = append(r.obs, o)
}

// Observations returns the recorded list in record order.
func (r *Recorder) Observations() []suggest.Observation {
	return r.obs
}

// Len reports the number of recorded observations.
func (r *Recorder) Len() int { return len(r.obs) }

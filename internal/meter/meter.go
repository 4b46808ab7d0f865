// Package meter turns level readings in dB into smoothed linear amplitudes
// suitable for on-screen meters.
package meter

import "math"

// Decay is the per-reading factor applied to the previously published value.
const Decay = 0.95

// Levels is a stereo pair of linear amplitudes in the range 0.0 to 1.0.
type Levels struct {
	Left  float32 `json:"left"`
	Right float32 `json:"right"`
}

// Amplitude converts a dB reading to linear amplitude. Non-finite readings
// such as -inf for digital silence yield 0.
func Amplitude(db float64) float64 {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return 0
	}
	return math.Pow(10, db/20)
}

// Envelope keeps the last published pair for one source. Increases are
// published immediately, decreases fall off by Decay per reading.
type Envelope struct {
	last Levels
}

// Update consumes one reading of per-channel dB values and returns the new
// published pair. ok is false when fewer than two channels are present, in
// which case the envelope is unchanged.
func (e *Envelope) Update(rms []float64) (Levels, bool) {
	if len(rms) < 2 {
		return e.last, false
	}
	e.last = Levels{
		Left:  next(e.last.Left, rms[0]),
		Right: next(e.last.Right, rms[1]),
	}
	return e.last, true
}

// Last returns the most recently published pair.
func (e *Envelope) Last() Levels { return e.last }

func next(prev float32, db float64) float32 {
	amp := float32(Amplitude(db))
	return max(amp, prev*Decay)
}

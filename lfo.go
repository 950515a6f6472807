package sf2

import (
	"math"
)

// voiceLFO is a triangle-wave low-frequency oscillator. It is silent until
// its delay elapses, then oscillates in [-1, 1] starting upward from zero.
type voiceLFO struct {
	time  float64
	freq  float64 // Hz
	delay float64 // seconds
}

// newVoiceLFO resolves the layer+split descriptor sum.
// 8.176 Hz is the MIDI key 0 frequency that anchors absolute-cent values.
func newVoiceLFO(p lfoParams) voiceLFO {
	return voiceLFO{
		freq:  8.176 * centsToHertz(float64(p.frequency)),
		delay: timecentsToSeconds(float64(p.delay)),
	}
}

func (l *voiceLFO) get(dt float64) float64 {
	l.time += dt
	if l.time < l.delay {
		return 0
	}
	return math.Abs(math.Mod(4*l.freq*(l.time-l.delay)+3, 4)-2) - 1
}

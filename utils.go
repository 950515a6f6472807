package sf2

import (
	"math"
)

type numeric interface {
	uint8 | int | int32 | int64 | float32 | float64
}

func clampMin[T numeric](v, min T) T {
	if v < min {
		return min
	}
	return v
}

func clampMax[T numeric](v, max T) T {
	if v > max {
		return max
	}
	return v
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func lerp(a, b, f float32) float32 {
	return a + f*(b-a)
}

// centsToHertz converts a relative pitch in cents to a frequency ratio.
// Absolute-cent generators multiply the result by a reference frequency
// (8.176 Hz, MIDI key 0).
func centsToHertz(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

func hertzToCents(hz float64) float64 {
	return 1200 * math.Log2(hz)
}

// timecentsToSeconds converts an absolute timecents duration to seconds.
// Values at or below -12000 are the conventional "instantaneous" sentinel
// and map to 1 ms.
func timecentsToSeconds(tc float64) float64 {
	if tc <= -12000 {
		return 0.001
	}
	return math.Pow(2, tc/1200)
}

// decibelsToGain converts decibels to a linear gain factor.
// -100 dB and below is treated as silence.
func decibelsToGain(db float64) float64 {
	if db > -100 {
		return math.Pow(10, db/20)
	}
	return 0
}

func gainToDecibels(gain float64) float64 {
	if gain <= 0.00001 {
		return -100
	}
	return 20 * math.Log10(gain)
}

// constantPowerPan maps pan in [-1, 1] to left/right gain factors whose
// squared sum is constant (0.5), so perceived loudness does not change
// across the stereo field.
func constantPowerPan(pan float64) (factorL, factorR float64) {
	const sqrt22 = 0.7071067811865476
	theta := pan * math.Pi / 4
	sin, cos := math.Sincos(theta)
	return sqrt22 * (cos - sin), sqrt22 * (cos + sin)
}

// clampPanning folds pan values in [-2, -1] and [1, 2] back into [-1, 1]
// with sign reflection; values beyond [-2, 2] clip.
func clampPanning(pan float64) float64 {
	pan = clamp(pan, -2, 2)
	if pan > 1 {
		return 2 - pan
	}
	if pan < -1 {
		return -(2 + pan)
	}
	return pan
}

package sf2

import (
	"math"
	"testing"
)

func TestBiquadPassesDC(t *testing.T) {
	var f biquadLowpass
	f.setQ(1)
	f.setFrequency(1000.0 / 44100)
	var out float64
	for i := 0; i < 5000; i++ {
		out = f.process(1)
	}
	if math.Abs(out-1) > 1e-3 {
		t.Fatalf("DC response: %v, want ~1", out)
	}
}

func TestBiquadAttenuatesAboveCutoff(t *testing.T) {
	const sampleRate = 44100.0
	measure := func(freq float64) float64 {
		var f biquadLowpass
		f.setQ(1)
		f.setFrequency(500.0 / sampleRate)
		peak := 0.0
		for i := 0; i < 44100; i++ {
			in := math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
			out := f.process(in)
			// Skip the warm-up transient.
			if i > 4410 && math.Abs(out) > peak {
				peak = math.Abs(out)
			}
		}
		return peak
	}

	low := measure(100)
	high := measure(8000)
	if low < 0.9 {
		t.Errorf("passband peak: %v, want close to 1", low)
	}
	if high > 0.05 {
		t.Errorf("stopband peak: %v, want strong attenuation", high)
	}
}

func TestBiquadResonancePeaking(t *testing.T) {
	const sampleRate = 44100.0
	const cutoff = 1000.0
	measure := func(q float64) float64 {
		var f biquadLowpass
		f.setQ(q)
		f.setFrequency(cutoff / sampleRate)
		peak := 0.0
		for i := 0; i < 44100; i++ {
			in := math.Sin(2 * math.Pi * cutoff * float64(i) / sampleRate)
			out := f.process(in)
			if i > 4410 && math.Abs(out) > peak {
				peak = math.Abs(out)
			}
		}
		return peak
	}

	flat := measure(1)
	resonant := measure(4)
	if resonant <= flat {
		t.Errorf("resonant peak %v should exceed flat peak %v at cutoff", resonant, flat)
	}
}

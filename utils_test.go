package sf2

import (
	"math"
	"testing"
)

func TestCentsHertzRoundTrip(t *testing.T) {
	for c := -12000; c <= 12000; c += 25 {
		got := hertzToCents(centsToHertz(float64(c)))
		if math.Abs(got-float64(c)) > 1e-3 {
			t.Fatalf("round trip of %d cents: got %v", c, got)
		}
	}
}

func TestDecibelsGainRoundTrip(t *testing.T) {
	for db := -99.5; db <= 20; db += 0.5 {
		got := gainToDecibels(decibelsToGain(db))
		if math.Abs(got-db) > 1e-3 {
			t.Fatalf("round trip of %v dB: got %v", db, got)
		}
	}
}

func TestDecibelsToGainFloor(t *testing.T) {
	if got := decibelsToGain(-100); got != 0 {
		t.Fatalf("-100 dB: got %v, want 0", got)
	}
	if got := decibelsToGain(-150); got != 0 {
		t.Fatalf("-150 dB: got %v, want 0", got)
	}
	if got := decibelsToGain(-99.999); got == 0 {
		t.Fatal("-99.999 dB should not be silence")
	}
}

func TestTimecentsToSeconds(t *testing.T) {
	tests := []struct {
		tc   float64
		want float64
	}{
		{-12000, 0.001},
		{-32768, 0.001},
		{0, 1},
		{1200, 2},
		{-1200, 0.5},
		{-7973, 0.01},
	}
	for _, test := range tests {
		got := timecentsToSeconds(test.tc)
		if math.Abs(got-test.want) > test.want*1e-3 {
			t.Errorf("timecentsToSeconds(%v): got %v, want %v", test.tc, got, test.want)
		}
	}
}

func TestConstantPowerPanEnergy(t *testing.T) {
	for p := -1.0; p <= 1.0; p += 0.01 {
		l, r := constantPowerPan(p)
		energy := l*l + r*r
		if math.Abs(energy-0.5) > 1e-6 {
			t.Fatalf("pan %v: energy %v, want 0.5", p, energy)
		}
	}
}

func TestConstantPowerPanDirection(t *testing.T) {
	l, r := constantPowerPan(-1)
	if !(l > r) || math.Abs(r) > 1e-6 {
		t.Errorf("hard left: L=%v R=%v", l, r)
	}
	l, r = constantPowerPan(1)
	if !(r > l) || math.Abs(l) > 1e-6 {
		t.Errorf("hard right: L=%v R=%v", l, r)
	}
	l, r = constantPowerPan(0)
	if math.Abs(l-r) > 1e-9 {
		t.Errorf("center: L=%v R=%v", l, r)
	}
}

func TestClampPanning(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{-0.75, -0.75},
		{1.25, 0.75},
		{-1.25, -0.75},
		{2, 0},
		{-2, 0},
		{3, 0},
		{-5, 0},
	}
	for _, test := range tests {
		if got := clampPanning(test.in); math.Abs(got-test.want) > 1e-9 {
			t.Errorf("clampPanning(%v): got %v, want %v", test.in, got, test.want)
		}
	}
}

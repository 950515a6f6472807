package sf2

// envPhase enumerates the envelope state machine phases, in order.
type envPhase int

const (
	envDelay envPhase = iota
	envAttack
	envHold
	envDecay
	envSustain
	envRelease
	envEnd
)

// envDomain abstracts the value domain an envelope operates in.
// The volume envelope works in decibels (so its linear amplitude follows
// the convex curve the format prescribes); the modulation envelope is a
// plain 0..1 linear ramp. Implementations are zero-size structs selected
// by type parameter, keeping the per-sample get call devirtualized.
type envDomain interface {
	floor() float64
	peak() float64
	// sustainLevel converts the raw generator amount (centibels of
	// attenuation, or 0.1% units) into the domain's sustain value.
	sustainLevel(raw int32) float64
	attackValue(frac float64) float64
	decayValue(sustain, frac float64) float64
	releaseValue(from, frac float64) float64
}

type decibelsDomain struct{}

func (decibelsDomain) floor() float64 { return -96 }
func (decibelsDomain) peak() float64  { return 0 }

func (decibelsDomain) sustainLevel(raw int32) float64 { return float64(raw) * 0.1 }

// The instantaneous linear ramp is converted to decibels, which yields the
// convex rise in amplitude the format asks of the attack segment.
func (decibelsDomain) attackValue(frac float64) float64 { return gainToDecibels(frac) }

func (decibelsDomain) decayValue(sustain, frac float64) float64 { return -sustain * frac }

func (decibelsDomain) releaseValue(from, frac float64) float64 {
	return from + frac*(-96-from)
}

type linearDomain struct{}

func (linearDomain) floor() float64 { return 0 }
func (linearDomain) peak() float64  { return 1 }

func (linearDomain) sustainLevel(raw int32) float64 { return 1 - float64(raw)*0.001 }

func (linearDomain) attackValue(frac float64) float64 { return frac }

func (linearDomain) decayValue(sustain, frac float64) float64 {
	return 1 + frac*(sustain-1)
}

func (linearDomain) releaseValue(from, frac float64) float64 {
	return from + frac*(0-from)
}

// envelope is the six-phase Delay-Attack-Hold-Decay-Sustain-Release state
// machine shared by the volume and modulation envelopes.
type envelope[D envDomain] struct {
	dom D

	delay   float64 // seconds
	attack  float64
	hold    float64
	decay   float64
	sustain float64 // domain units
	release float64

	slopeFactor float64
	phase       envPhase
	time        float64
	value       float64
}

// newEnvelope resolves the layer+split descriptor sum for the given key.
// hold and decay are scaled by 2^(keynumTo*(60-key)/1200): an octave above
// key 60 halves them when the tracking amount is 100.
func newEnvelope[D envDomain](p envelopeParams, key uint8) envelope[D] {
	var e envelope[D]
	e.value = e.dom.floor()
	e.delay = timecentsToSeconds(float64(p.delay))
	e.attack = timecentsToSeconds(float64(p.attack))
	e.hold = timecentsToSeconds(float64(p.hold)) *
		timecentsToSeconds(float64(p.keynumToHold)*float64(60-int32(key)))
	e.decay = timecentsToSeconds(float64(p.decay)) *
		timecentsToSeconds(float64(p.keynumToDecay)*float64(60-int32(key)))
	e.release = timecentsToSeconds(float64(p.release))
	e.sustain = e.dom.sustainLevel(p.sustain)
	e.slopeFactor = 1 / e.delay
	return e
}

// get advances the envelope by dt seconds and returns its current value.
// Phase overshoot carries into the next phase.
func (e *envelope[D]) get(dt float64) float64 {
	switch e.phase {
	case envDelay:
		e.time += dt
		if e.time >= e.delay {
			e.time -= e.delay
			e.phase = envAttack
			e.slopeFactor = 1 / e.attack
		}
		return e.dom.floor()

	case envAttack:
		val := e.dom.attackValue(e.time * e.slopeFactor)
		e.value = val
		e.time += dt
		if e.time >= e.attack {
			e.time -= e.attack
			e.phase = envHold
			e.slopeFactor = 1 / e.hold
		}
		return val

	case envHold:
		e.value = e.dom.peak()
		e.time += dt
		if e.time >= e.hold {
			e.time -= e.hold
			e.phase = envDecay
			e.slopeFactor = 1 / e.decay
		}
		return e.value

	case envDecay:
		val := e.dom.decayValue(e.sustain, e.time*e.slopeFactor)
		e.value = val
		e.time += dt
		if e.time >= e.decay {
			e.time -= e.decay
			e.phase = envSustain
		}
		return e.value

	case envSustain:
		e.value = e.dom.decayValue(e.sustain, 1)
		return e.value

	case envRelease:
		val := e.dom.releaseValue(e.value, e.time*e.slopeFactor)
		e.time += dt
		if e.time >= e.release {
			e.time -= e.release
			e.phase = envEnd
		}
		return val

	default:
		return e.dom.floor()
	}
}

// triggerRelease jumps to the release phase from wherever the envelope is,
// ramping from the current value over the release duration.
func (e *envelope[D]) triggerRelease() {
	e.slopeFactor = 1 / e.release
	e.phase = envRelease
	e.time = 0
}

package sf2

// LoopMode selects how the wavetable oscillator treats the sample loop.
type LoopMode int

const (
	// LoopNone plays the sample through once.
	LoopNone LoopMode = iota
	// LoopContinuous loops between the loop points for the whole note.
	LoopContinuous
	// LoopSustain loops while the key is held, then plays the remainder.
	LoopSustain
)

// lfoParams is a low-frequency oscillator descriptor in file units:
// delay in absolute timecents, frequency in absolute cents above 8.176 Hz.
// Preset-layer descriptors add onto instrument-split descriptors.
type lfoParams struct {
	delay     int32
	frequency int32
}

func (p *lfoParams) add(rhs lfoParams) {
	p.delay += rhs.delay
	p.frequency += rhs.frequency
}

// instrument-level LFO default: no delay sentinel, 8.176 Hz.
func defaultLFOParams() lfoParams {
	return lfoParams{delay: -12000, frequency: 0}
}

// envelopeParams is a six-stage envelope descriptor in file units:
// times in absolute timecents, sustain in centibels (volume envelope) or
// 0.1% units (modulation envelope), key tracking in timecents per key.
// Preset-layer descriptors add onto instrument-split descriptors.
type envelopeParams struct {
	delay   int32
	attack  int32
	hold    int32
	decay   int32
	sustain int32
	release int32

	keynumToHold  int32
	keynumToDecay int32
}

func (p *envelopeParams) add(rhs envelopeParams) {
	p.delay += rhs.delay
	p.attack += rhs.attack
	p.hold += rhs.hold
	p.decay += rhs.decay
	p.sustain += rhs.sustain
	p.release += rhs.release
	p.keynumToHold += rhs.keynumToHold
	p.keynumToDecay += rhs.keynumToDecay
}

// Instrument-level envelope default: every stage instantaneous, full sustain.
func defaultEnvelopeParams() envelopeParams {
	return envelopeParams{
		delay:   -12000,
		attack:  -12000,
		hold:    -12000,
		decay:   -12000,
		release: -12000,
	}
}

// zoneParams is the generator set shared by instrument splits and preset
// layers. For a Split the values are absolute; for a Layer they are
// additive deltas applied over each split of the referenced instrument at
// voice-construction time.
type zoneParams struct {
	filterFreq int32   // absolute cents
	filterQ    float64 // decibels
	chorusSend int32   // 0.1% units; captured, no effect bus exists
	reverbSend int32   // 0.1% units; captured, no effect bus exists

	scaleTuning float64 // 0..1; 1 = tempered semitone key tracking

	keyLow, keyHigh uint8
	velLow, velHigh uint8

	tune int32 // coarse*100 + fine, cents

	pan         float64 // -0.5..0.5
	attenuation float64 // decibels

	modLFO           lfoParams
	modLFOToPitch    int32 // cents
	modLFOToFilterFc int32 // cents
	modLFOToVolume   int32 // centibels
	vibLFO           lfoParams
	vibLFOToPitch    int32 // cents

	modEnv           envelopeParams
	modEnvToPitch    int32 // cents
	modEnvToFilterFc int32 // cents
	volEnv           envelopeParams
}

// Split is one instrument zone: a sample plus the fully-resolved synthesis
// parameters for a key/velocity rectangle.
type Split struct {
	zoneParams

	Sample *Sample

	startOffset     int32
	endOffset       int32
	loopStartOffset int32
	loopEndOffset   int32

	rootKey  int32 // -1 = use the sample header's original key
	keynum   int32 // fixed key override, -1 = unused
	velocity int32 // fixed velocity override, -1 = unused

	exclusiveClass uint16

	loopMode LoopMode
}

// newSplit returns a split holding the instrument-level generator defaults.
func newSplit() *Split {
	return &Split{
		zoneParams: zoneParams{
			filterFreq:  13500,
			scaleTuning: 1.0,
			keyHigh:     127,
			velHigh:     127,
			modLFO:      defaultLFOParams(),
			vibLFO:      defaultLFOParams(),
			modEnv:      defaultEnvelopeParams(),
			volEnv:      defaultEnvelopeParams(),
		},
		rootKey:  -1,
		keynum:   -1,
		velocity: -1,
	}
}

func (z *Split) inRange(key, velocity uint8) bool {
	return key >= z.keyLow && key <= z.keyHigh &&
		velocity >= z.velLow && velocity <= z.velHigh
}

// Layer is one preset zone: an instrument reference plus additive parameter
// deltas for a key/velocity rectangle. Every value generator defaults to the
// additive identity, including the envelope times (0, not the instrument
// -12000 sentinel).
type Layer struct {
	zoneParams

	Instrument *Instrument
}

// newLayer returns a layer holding the preset-level (all-zero) defaults.
func newLayer() *Layer {
	return &Layer{
		zoneParams: zoneParams{
			keyHigh: 127,
			velHigh: 127,
		},
	}
}

func (z *Layer) inRange(key, velocity uint8) bool {
	return key >= z.keyLow && key <= z.keyHigh &&
		velocity >= z.velLow && velocity <= z.velHigh
}

// Instrument is a named, ordered collection of splits.
type Instrument struct {
	Name   string
	Splits []*Split
}

// Preset is a MIDI-addressable patch: an ordered set of layers.
type Preset struct {
	Name string
	// Program is the MIDI program number within the bank.
	Program uint16

	Layers []*Layer
}

// Bank is a MIDI bank: presets sorted by program number.
type Bank struct {
	Num     uint16
	Presets []*Preset
}

// preset returns the preset with the given program number, or nil.
func (b *Bank) preset(program uint16) *Preset {
	for _, p := range b.Presets {
		if p.Program == program {
			return p
		}
	}
	return nil
}

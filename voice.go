package sf2

import (
	"github.com/AnonN10/sf2/sf2file"
)

// voice is one sounding note: a wavetable oscillator over one sample, two
// envelopes, two LFOs and a low-pass filter, rendering additively into the
// caller's buffers. Voices live in a channel's pool from note-on until
// isDone.
type voice struct {
	zone   *Split
	sample *Sample

	key uint8

	// hold is true from note-on until note-off (or sustain-pedal release);
	// while set, the envelopes stay out of their release phase.
	hold bool

	samplePos    float64
	sampleEndPos float64

	loopStart float64
	loopEnd   float64

	panFactorL float64
	panFactorR float64

	freq float64 // base playback frequency, Hz
	gain float64 // linear

	filterFreq       float64 // Hz
	filterQ          float64 // dB
	modEnvToFilterFc float64
	modEnvToPitch    float64

	volEnv  envelope[decibelsDomain]
	modEnv  envelope[linearDomain]
	lowpass biquadLowpass

	modLFO           voiceLFO
	modLFOToPitch    float64
	modLFOToFilterFc float64
	modLFOToVolume   float64
	vibLFO           voiceLFO
	vibLFOToPitch    float64
}

// release marks the note as no longer held. The envelopes transition to
// their release phase on the next rendered frame.
func (v *voice) release() {
	v.hold = false
}

// fastRelease extinguishes the voice for exclusive-class cutoff: both
// envelopes jump to their release phase immediately, with the volume
// envelope release shortened to 1 ms.
func (v *voice) fastRelease() {
	v.hold = false
	v.volEnv.get(0) // capture the current level to release from
	v.volEnv.release = 0.001
	v.volEnv.triggerRelease()
	v.modEnv.get(0)
	v.modEnv.triggerRelease()
}

func (v *voice) isDone() bool {
	return (v.samplePos >= v.sampleEndPos && !v.hold) || v.volEnv.phase == envEnd
}

// render adds up to len(outL) frames of this voice into the output buffers.
// This loop dominates playback execution time; everything it needs was
// resolved at voice construction, and nothing in it allocates, blocks or
// fails. An out-of-range position simply ends the voice.
func (v *voice) render(outL, outR []float32, sampleRate float64) {
	if v.sample.Data == nil {
		// The preset was never loaded for this sample; treat the voice
		// as spent rather than touch the stream from the render path.
		v.volEnv.phase = envEnd
		return
	}

	data := v.sample.Data
	length := float64(len(data))
	end := v.sampleEndPos
	if end > length {
		end = length
	}

	deltaTime := 1 / sampleRate
	stepBase := v.freq / sampleRate
	step := stepBase

	for i := 0; i < len(outL) && v.samplePos < end; i++ {
		pos := int(v.samplePos)
		isLooping := (v.hold && v.zone.loopMode != LoopNone) || v.zone.loopMode == LoopContinuous

		posNext := pos + 1
		if (float64(pos) >= v.loopEnd && isLooping) || posNext >= len(data) {
			if isLooping {
				posNext = int(v.loopStart)
			} else {
				posNext = pos
			}
		}

		lerpFactor := float32(v.samplePos - float64(pos))
		val := float64(lerp(data[pos], data[posNext], lerpFactor))

		v.samplePos += step
		if v.samplePos >= v.loopEnd && isLooping {
			v.samplePos -= v.loopEnd - v.loopStart
		}

		volEnvGain := decibelsToGain(v.volEnv.get(deltaTime))
		modEnvGain := v.modEnv.get(deltaTime)
		// A released voice below audibility will never come back; snap it
		// to the end instead of fading through denormal territory.
		if volEnvGain < 0.002 && v.volEnv.phase == envRelease {
			v.volEnv.phase = envEnd
		}
		if !v.hold {
			if v.volEnv.phase < envRelease {
				v.volEnv.triggerRelease()
			}
			if v.modEnv.phase < envRelease {
				v.modEnv.triggerRelease()
			}
		}

		val *= v.gain * volEnvGain

		var vibLFOVal, modLFOVal float64
		if v.vibLFOToPitch != 0 {
			vibLFOVal = v.vibLFO.get(deltaTime)
		}
		if v.modLFOToPitch != 0 || v.modLFOToFilterFc != 0 || v.modLFOToVolume != 0 {
			modLFOVal = v.modLFO.get(deltaTime)
		}

		filterFreq := v.filterFreq
		if v.modEnvToFilterFc != 0 {
			filterFreq *= centsToHertz(modEnvGain * v.modEnvToFilterFc)
		}
		if v.modLFOToFilterFc != 0 {
			filterFreq *= centsToHertz(modLFOVal * v.modLFOToFilterFc)
		}
		if v.lowpass.active {
			// 20 kHz is the format's stated limit, but a cutoff that
			// close to Nyquist makes the biquad unstable; clamp to a
			// fraction of the sample rate instead.
			if filterFreq > sampleRate*0.4977 {
				filterFreq = sampleRate * 0.4977
			}
			if filterFreq != v.filterFreq {
				v.lowpass.setFrequency(filterFreq * deltaTime)
			}
			val = v.lowpass.process(val)
		}

		if v.modEnvToPitch != 0 || v.vibLFOToPitch != 0 || v.modLFOToPitch != 0 {
			adjusted := 1.0
			if v.modEnvToPitch != 0 {
				adjusted *= centsToHertz(modEnvGain * v.modEnvToPitch)
			}
			if v.vibLFOToPitch != 0 {
				adjusted *= centsToHertz(v.vibLFOToPitch * vibLFOVal)
			}
			if v.modLFOToPitch != 0 {
				adjusted *= centsToHertz(v.modLFOToPitch * modLFOVal)
			}
			step = stepBase * adjusted
		}
		if v.modLFOToVolume != 0 {
			val *= decibelsToGain(modLFOVal * v.modLFOToVolume)
		}

		outL[i] += float32(val * v.panFactorL)
		outR[i] += float32(val * v.panFactorR)
	}
}

// generateVoices resolves every (layer, split) pair of the preset that
// matches the key/velocity pair into voices appended to the pool. A stereo
// split emits one voice per sample in its link chain; the chain walk stops
// when it revisits its origin or hits an unlinked sample, which also covers
// the circular chains future format revisions allow.
func (sf *SoundFont) generateVoices(preset *Preset, key, velocity uint8, sampleRate float64, pool *voicePool) {
	for _, layer := range preset.Layers {
		if !layer.inRange(key, velocity) {
			continue
		}
		for _, split := range layer.Instrument.Splits {
			if !split.inRange(key, velocity) {
				continue
			}
			if split.Sample.IsROM() {
				continue
			}

			tmpKey := key
			tmpVel := velocity
			if split.velocity >= 0 {
				tmpVel = uint8(split.velocity)
			}
			if split.keynum >= 0 {
				tmpKey = uint8(split.keynum)
			}

			first := split.Sample
			sample := first
			for {
				sf.buildVoice(layer, split, sample, key, tmpKey, tmpVel, sampleRate, pool)

				if sample.Type == sf2file.MonoSample {
					break
				}
				// A stereo link is followed until the circle closes.
				if sample.Linked == first || sample.Linked == nil {
					break
				}
				sample = sample.Linked
			}
		}
	}
}

func (sf *SoundFont) buildVoice(layer *Layer, split *Split, sample *Sample, envKey, key, velocity uint8, sampleRate float64, pool *voicePool) {
	v := voice{
		zone:   split,
		sample: sample,
		key:    key,
		hold:   true,
	}

	v.samplePos = float64(clampMin(split.startOffset, 0))
	// The end offset never extends past the decoded data; a position past
	// the buffer would otherwise keep a spent voice alive forever.
	v.sampleEndPos = float64(clamp(int64(sample.Len())+int64(split.endOffset), 0, int64(sample.Len())))

	v.loopStart = float64(int64(sample.LoopStart) + int64(split.loopStartOffset))
	v.loopEnd = float64(int64(sample.LoopEnd) + int64(split.loopEndOffset))

	// Preset-layer envelope generators add onto the instrument split's.
	volEnvParams := split.volEnv
	volEnvParams.add(layer.volEnv)
	modEnvParams := split.modEnv
	modEnvParams.add(layer.modEnv)
	v.volEnv = newEnvelope[decibelsDomain](volEnvParams, envKey)
	v.modEnv = newEnvelope[linearDomain](modEnvParams, envKey)

	v.filterQ = layer.filterQ + split.filterQ
	// 8.176 Hz is MIDI key 0; it converts absolute pitch cents to Hz.
	v.filterFreq = 8.176 * centsToHertz(float64(layer.filterFreq+split.filterFreq))
	v.modEnvToFilterFc = float64(layer.modEnvToFilterFc + split.modEnvToFilterFc)
	v.lowpass.active = !(v.filterFreq > 20000 && v.filterQ < 0 && v.modEnvToFilterFc == 0)
	if v.lowpass.active {
		v.lowpass.setQ(decibelsToGain(v.filterQ))
		fc := v.filterFreq
		if fc > sampleRate*0.4977 {
			fc = sampleRate * 0.4977
		}
		v.lowpass.setFrequency(fc / sampleRate)
	}
	v.modEnvToPitch = float64(layer.modEnvToPitch + split.modEnvToPitch)

	modLFOParams := split.modLFO
	modLFOParams.add(layer.modLFO)
	v.modLFO = newVoiceLFO(modLFOParams)
	v.modLFOToFilterFc = float64(layer.modLFOToFilterFc + split.modLFOToFilterFc)
	v.modLFOToPitch = float64(layer.modLFOToPitch + split.modLFOToPitch)
	// The stored routing is centibels; dividing by ten yields decibels for
	// the gain conversion in the render loop.
	v.modLFOToVolume = float64(layer.modLFOToVolume+split.modLFOToVolume) / 10
	vibLFOParams := split.vibLFO
	vibLFOParams.add(layer.vibLFO)
	v.vibLFO = newVoiceLFO(vibLFOParams)
	v.vibLFOToPitch = float64(layer.vibLFOToPitch + split.vibLFOToPitch)

	v.gain = decibelsToGain(-(layer.attenuation + split.attenuation) * sf.attenuationScale)
	// Linear velocity curve.
	v.gain *= float64(velocity) / 127

	// Stereo placement starts from the sample's own side, then the zone
	// pan generators shift it.
	var pan float64
	switch sample.Type {
	case sf2file.LeftSample:
		pan = -0.5
	case sf2file.RightSample:
		pan = 0.5
	default:
		// Mono and linked samples sit in the middle.
	}
	v.panFactorL, v.panFactorR = constantPowerPan(clampPanning(pan + layer.pan + split.pan))

	rootKey := float64(sample.OriginalKey)
	if split.rootKey >= 0 {
		rootKey = float64(split.rootKey)
	}
	rootCents := rootKey * 100
	noteCents := float64(key)*100 + float64(split.tune+layer.tune)
	srcFreqFactor := float64(sample.SampleRate) / centsToHertz(rootCents)
	v.freq = srcFreqFactor * centsToHertz(rootCents+(noteCents-rootCents)*(split.scaleTuning+layer.scaleTuning))
	if sample.Correction != 0 {
		v.freq *= centsToHertz(float64(sample.Correction))
	}

	pool.push(v)
}

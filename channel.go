package sf2

import (
	"fmt"
)

const (
	voicePoolCapacity = 64
	voicePoolGrowStep = 64
)

// Channel is one polyphonic MIDI channel: a preset selection, a voice pool
// and note state. Channels share an immutable SoundFont; each channel is
// exclusively owned by whoever drives it. Render performs no allocation,
// blocking or I/O; the only I/O path is SetPreset, which decodes sample
// data, so call it off the audio thread before the first Render.
type Channel struct {
	sf *SoundFont

	bank   *Bank
	preset *Preset

	pool      *voicePool
	keyStates [128]bool
	sustain   bool
}

// NewChannel creates a channel over the given bank.
func NewChannel(sf *SoundFont) *Channel {
	return &Channel{
		sf:   sf,
		pool: newVoicePool(voicePoolCapacity, voicePoolGrowStep),
	}
}

// Preset returns the currently selected preset, or nil.
func (c *Channel) Preset() *Preset { return c.preset }

// SetPreset selects the preset by MIDI program and bank number and decodes
// the PCM data of every sample the preset references. A missing preset
// falls back to bank 0; the percussion bank 128 instead falls back to its
// own first preset.
func (c *Channel) SetPreset(program, bankNum uint16) error {
	if len(c.sf.banks) == 0 {
		return fmt.Errorf("sf2: set preset %d:%d: bank list is empty", bankNum, program)
	}

	c.selectPreset(program, bankNum)
	if c.preset == nil {
		return fmt.Errorf("sf2: set preset %d:%d: no such preset", bankNum, program)
	}

	for _, layer := range c.preset.Layers {
		for _, split := range layer.Instrument.Splits {
			if split.Sample.IsROM() {
				continue
			}
			if err := split.Sample.load(c.sf.file, c.sf.stream); err != nil {
				return err
			}
			if split.Sample.Linked != nil && !split.Sample.Linked.IsROM() {
				if err := split.Sample.Linked.load(c.sf.file, c.sf.stream); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Channel) selectPreset(program, bankNum uint16) {
	if target := c.sf.Bank(bankNum); target != nil {
		if p := target.preset(program); p != nil {
			c.bank = target
			c.preset = p
			return
		}
		// The percussion bank does not fall through to melodic bank 0;
		// it substitutes its own first preset instead.
		if target.Num == 128 && len(target.Presets) > 0 {
			c.bank = target
			c.preset = target.Presets[0]
			return
		}
	}
	zero := c.sf.Bank(0)
	if zero == nil {
		return
	}
	if p := zero.preset(program); p != nil {
		c.bank = zero
		c.preset = p
	}
}

// NoteOn starts the voices for the key/velocity pair and applies
// exclusive-class cutoff: every older voice sharing a non-zero exclusive
// class with a newly started voice is fast-released (1 ms). Only voices
// that existed before this call are cut; the new voices never cut each
// other.
func (c *Channel) NoteOn(key, velocity uint8, sampleRate float64) {
	if c.preset == nil {
		return
	}

	c.keyStates[key&0x7F] = true

	oldCount := c.pool.len()
	c.sf.generateVoices(c.preset, key, velocity, sampleRate, c.pool)

	for i := oldCount; i < c.pool.len(); i++ {
		class := c.pool.at(i).zone.exclusiveClass
		if class == 0 {
			continue
		}
		for j := 0; j < oldCount; j++ {
			if c.pool.at(j).zone.exclusiveClass == class {
				c.pool.at(j).fastRelease()
			}
		}
	}
}

// NoteOff releases every voice playing the key, unless the sustain pedal
// holds them.
func (c *Channel) NoteOff(key uint8) {
	c.keyStates[key&0x7F] = false
	if c.sustain {
		return
	}
	for i := 0; i < c.pool.len(); i++ {
		if v := c.pool.at(i); v.key == key {
			v.release()
		}
	}
}

// SetSustain sets the sustain pedal. Releasing the pedal releases every
// voice whose key is no longer held down.
func (c *Channel) SetSustain(enable bool) {
	c.sustain = enable
	if enable {
		return
	}
	for i := 0; i < c.pool.len(); i++ {
		v := c.pool.at(i)
		if !c.keyStates[v.key&0x7F] {
			v.release()
		}
	}
}

// Render adds len(outL) frames of every active voice into the output
// buffers and reaps finished voices in place. Output is not saturated;
// keeping the sum inside [-1, 1] is the caller's concern.
func (c *Channel) Render(outL, outR []float32, sampleRate float64) {
	for i := 0; i < c.pool.len(); {
		v := c.pool.at(i)
		v.render(outL, outR, sampleRate)
		if v.isDone() {
			c.pool.removeSwap(i)
		} else {
			i++
		}
	}
}

// ActiveVoices returns the number of currently sounding voices.
func (c *Channel) ActiveVoices() int { return c.pool.len() }

// Panic drops every voice immediately.
func (c *Channel) Panic() {
	c.pool.clear()
}

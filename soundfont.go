package sf2

import (
	"github.com/AnonN10/sf2/sf2file"
)

// LoadConfig configures bank-model construction.
// These settings can't be changed after the bank is built.
type LoadConfig struct {
	// DisableAttenuationCompat turns off the 0.4 scaling that is applied
	// to summed zone attenuation before the decibel conversion. The
	// scaling is not in the format specification, but it matches the
	// hardware synthesizers most banks were authored against, so it is
	// on by default.
	DisableAttenuationCompat bool
}

// SoundFont is the render-ready bank model: banks of presets layering
// instruments whose splits reference shared samples. It is immutable after
// New returns and safe to share across any number of channels; sample PCM
// data is decoded lazily under a per-sample latch.
type SoundFont struct {
	file   *sf2file.File
	stream sf2file.Stream

	banks       []*Bank
	instruments []*Instrument
	samples     []*Sample

	attenuationScale float64

	coercedLinks int
}

// New translates a parsed SoundFont file into the bank model.
// The stream must stay valid for the bank's lifetime: sample data is read
// from it on demand by Channel.SetPreset.
func New(f *sf2file.File, s sf2file.Stream, config LoadConfig) (*SoundFont, error) {
	return compileBank(f, s, config)
}

// Banks returns the banks sorted by bank number.
func (sf *SoundFont) Banks() []*Bank { return sf.banks }

// Bank returns the bank with the given number, or nil.
func (sf *SoundFont) Bank(num uint16) *Bank {
	for _, b := range sf.banks {
		if b.Num == num {
			return b
		}
	}
	return nil
}

// Preset returns the preset addressed by bank and program number, or nil.
func (sf *SoundFont) Preset(bankNum, program uint16) *Preset {
	b := sf.Bank(bankNum)
	if b == nil {
		return nil
	}
	return b.preset(program)
}

// Instruments returns the instruments in file order.
func (sf *SoundFont) Instruments() []*Instrument { return sf.instruments }

// Samples returns the samples in file order.
func (sf *SoundFont) Samples() []*Sample { return sf.samples }

// Info returns the bank's INFO metadata.
func (sf *SoundFont) Info() sf2file.Info { return sf.file.Info }

// Version returns the file format version (ifil).
func (sf *SoundFont) Version() sf2file.VersionTag { return sf.file.Version }

// CoercedSampleLinks reports how many samples carried an invalid link type
// or partner index and were coerced to mono during translation.
func (sf *SoundFont) CoercedSampleLinks() int { return sf.coercedLinks }

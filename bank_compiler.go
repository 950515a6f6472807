package sf2

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AnonN10/sf2/sf2file"
)

// bankCompiler translates the nine HYDRA arrays into the flat bank model.
// Every array carries a trailing terminal record whose indices delimit the
// previous record's zone/generator range; the passes below iterate
// "record i .. record i+1" pairs and never touch the terminal itself.
type bankCompiler struct {
	result *SoundFont
	hydra  *sf2file.Hydra
}

func compileBank(f *sf2file.File, s sf2file.Stream, config LoadConfig) (*SoundFont, error) {
	c := &bankCompiler{
		result: &SoundFont{
			file:             f,
			stream:           s,
			attenuationScale: 0.4,
		},
		hydra: &f.Hydra,
	}
	if config.DisableAttenuationCompat {
		c.result.attenuationScale = 1.0
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return c.result, nil
}

func (c *bankCompiler) compile() error {
	h := c.hydra
	if len(h.Shdr) == 0 || len(h.Inst) == 0 || len(h.Phdr) == 0 {
		return errors.New("sf2: hydra arrays are missing their terminal records")
	}

	if err := c.compileSamples(); err != nil {
		return err
	}
	if err := c.compileInstruments(); err != nil {
		return err
	}
	if err := c.compilePresets(); err != nil {
		return err
	}
	c.sortBanks()
	return nil
}

func (c *bankCompiler) compileSamples() error {
	h := c.hydra
	numSamples := len(h.Shdr) - 1
	samples := make([]*Sample, numSamples)

	for i := 0; i < numSamples; i++ {
		rec := &h.Shdr[i]

		length := int64(rec.End) - int64(rec.Start)
		if length < 0 {
			return fmt.Errorf("sf2: sample %q: end %d before start %d", rec.Name, rec.End, rec.Start)
		}
		// The file stores loop points as absolute smpl indices; rebase
		// them onto the sample's own buffer. Constraint violations
		// (the format wants loops inside the sample and 32+ points
		// long) are clamped rather than rejected: such samples still
		// play, just without a usable loop.
		loopStart := clamp(int64(rec.StartLoop)-int64(rec.Start), 0, length)
		loopEnd := clamp(int64(rec.EndLoop)-int64(rec.Start), loopStart, length)

		sampleType := rec.Type
		if !sf2file.ValidLinkType(sampleType) {
			sampleType = sf2file.MonoSample
			c.result.coercedLinks++
		}

		samples[i] = &Sample{
			Name:         rec.Name,
			LoopStart:    uint32(loopStart),
			LoopEnd:      uint32(loopEnd),
			SampleRate:   rec.SampleRate,
			OriginalKey:  rec.OriginalKey,
			Correction:   rec.Correction,
			Type:         sampleType,
			streamOffset: rec.Start,
			length:       uint32(length),
		}
	}

	// Partner links resolve in a second pass so forward references work.
	for i := 0; i < numSamples; i++ {
		s := samples[i]
		if s.Type == sf2file.MonoSample || s.Type == sf2file.RomMonoSample {
			continue
		}
		link := int(h.Shdr[i].SampleLink)
		if link >= numSamples {
			s.Type = sf2file.MonoSample
			c.result.coercedLinks++
			continue
		}
		s.Linked = samples[link]
	}

	c.result.samples = samples
	return nil
}

func (c *bankCompiler) compileInstruments() error {
	h := c.hydra
	numInstruments := len(h.Inst) - 1
	instruments := make([]*Instrument, numInstruments)

	for i := 0; i < numInstruments; i++ {
		inst := &Instrument{Name: h.Inst[i].Name}

		zoneLo := int(h.Inst[i].BagNdx)
		zoneHi := int(h.Inst[i+1].BagNdx)
		if zoneHi < zoneLo || zoneHi >= len(h.Ibag) {
			return fmt.Errorf("sf2: instrument %q: ibag range [%d, %d) out of bounds", inst.Name, zoneLo, zoneHi)
		}

		var globalZone *Split
		for j := zoneLo; j < zoneHi; j++ {
			split := newSplit()
			// A global zone's generators become the defaults of every
			// following split in this instrument.
			if globalZone != nil {
				*split = *globalZone
			}

			genLo := int(h.Ibag[j].GenNdx)
			genHi := int(h.Ibag[j+1].GenNdx)
			if genHi < genLo || genHi > len(h.Igen) {
				return fmt.Errorf("sf2: instrument %q: igen range [%d, %d) out of bounds", inst.Name, genLo, genHi)
			}
			for k := genLo; k < genHi; k++ {
				c.applySplitGenerator(split, &h.Igen[k])
			}

			if split.Sample == nil {
				// No terminal sampleID. The first of several zones is
				// the instrument's global zone; anything else is
				// discarded.
				if j == zoneLo && zoneHi-zoneLo > 1 {
					globalZone = split
				}
				continue
			}
			inst.Splits = append(inst.Splits, split)
		}

		instruments[i] = inst
	}

	c.result.instruments = instruments
	return nil
}

func (c *bankCompiler) applySplitGenerator(split *Split, g *sf2file.Generator) {
	amount := g.Amount
	switch genOp(g.Oper) {
	case genSampleID:
		if idx := int(amount.Uint16()); idx < len(c.result.samples) {
			split.Sample = c.result.samples[idx]
		}
	case genStartAddrsOffset:
		split.startOffset += int32(amount.Int16())
	case genStartAddrsCoarseOffset:
		split.startOffset += int32(amount.Int16()) * 32768
	case genEndAddrsOffset:
		split.endOffset += int32(amount.Int16())
	case genEndAddrsCoarseOffset:
		split.endOffset += int32(amount.Int16()) * 32768
	case genStartloopAddrsOffset:
		split.loopStartOffset += int32(amount.Int16())
	case genStartloopAddrsCoarseOffset:
		split.loopStartOffset += int32(amount.Int16()) * 32768
	case genEndloopAddrsOffset:
		split.loopEndOffset += int32(amount.Int16())
	case genEndloopAddrsCoarseOffset:
		split.loopEndOffset += int32(amount.Int16()) * 32768
	case genKeynum:
		split.keynum = int32(amount.Int16())
	case genVelocity:
		split.velocity = int32(amount.Int16())
	case genSampleModes:
		switch amount.Uint16() & 3 {
		case 1:
			split.loopMode = LoopContinuous
		case 3:
			split.loopMode = LoopSustain
		default:
			// 0 is no loop; 2 is unused and reads as no loop.
			split.loopMode = LoopNone
		}
	case genExclusiveClass:
		split.exclusiveClass = amount.Uint16()
	case genOverridingRootKey:
		split.rootKey = int32(amount.Int16())
	default:
		c.applyZoneGenerator(&split.zoneParams, g)
	}
}

// applyZoneGenerator folds the generators whose semantics are shared by
// instrument splits and preset layers. Within one zone a repeated operator
// simply overwrites the earlier occurrence.
func (c *bankCompiler) applyZoneGenerator(z *zoneParams, g *sf2file.Generator) {
	amount := g.Amount
	switch genOp(g.Oper) {
	case genModLfoToPitch:
		z.modLFOToPitch = int32(amount.Int16())
	case genVibLfoToPitch:
		z.vibLFOToPitch = int32(amount.Int16())
	case genModEnvToPitch:
		z.modEnvToPitch = int32(amount.Int16())
	case genInitialFilterFc:
		z.filterFreq = int32(amount.Int16())
	case genInitialFilterQ:
		z.filterQ = float64(amount.Int16()) / 10
	case genModLfoToFilterFc:
		z.modLFOToFilterFc = int32(amount.Int16())
	case genModEnvToFilterFc:
		z.modEnvToFilterFc = int32(amount.Int16())
	case genModLfoToVolume:
		z.modLFOToVolume = int32(amount.Int16())
	case genChorusEffectsSend:
		z.chorusSend = int32(amount.Int16())
	case genReverbEffectsSend:
		z.reverbSend = int32(amount.Int16())
	case genPan:
		z.pan = float64(amount.Int16()) / 1000
	case genDelayModLFO:
		z.modLFO.delay = int32(amount.Int16())
	case genFreqModLFO:
		z.modLFO.frequency = int32(amount.Int16())
	case genDelayVibLFO:
		z.vibLFO.delay = int32(amount.Int16())
	case genFreqVibLFO:
		z.vibLFO.frequency = int32(amount.Int16())
	case genDelayModEnv:
		z.modEnv.delay = int32(amount.Int16())
	case genAttackModEnv:
		z.modEnv.attack = int32(amount.Int16())
	case genHoldModEnv:
		z.modEnv.hold = int32(amount.Int16())
	case genDecayModEnv:
		z.modEnv.decay = int32(amount.Int16())
	case genSustainModEnv:
		z.modEnv.sustain = int32(amount.Int16())
	case genReleaseModEnv:
		z.modEnv.release = int32(amount.Int16())
	case genKeynumToModEnvHold:
		z.modEnv.keynumToHold = int32(amount.Int16())
	case genKeynumToModEnvDecay:
		z.modEnv.keynumToDecay = int32(amount.Int16())
	case genDelayVolEnv:
		z.volEnv.delay = int32(amount.Int16())
	case genAttackVolEnv:
		z.volEnv.attack = int32(amount.Int16())
	case genHoldVolEnv:
		z.volEnv.hold = int32(amount.Int16())
	case genDecayVolEnv:
		z.volEnv.decay = int32(amount.Int16())
	case genSustainVolEnv:
		z.volEnv.sustain = int32(amount.Int16())
	case genReleaseVolEnv:
		z.volEnv.release = int32(amount.Int16())
	case genKeynumToVolEnvHold:
		z.volEnv.keynumToHold = int32(amount.Int16())
	case genKeynumToVolEnvDecay:
		z.volEnv.keynumToDecay = int32(amount.Int16())
	case genKeyRange:
		z.keyLow, z.keyHigh = amount.Range()
	case genVelRange:
		z.velLow, z.velHigh = amount.Range()
	case genInitialAttenuation:
		z.attenuation = float64(amount.Int16()) / 10
	case genCoarseTune:
		z.tune += int32(amount.Int16()) * 100
	case genFineTune:
		z.tune += int32(amount.Int16())
	case genScaleTuning:
		z.scaleTuning = float64(amount.Int16()) / 100
	}
}

func (c *bankCompiler) compilePresets() error {
	h := c.hydra
	numPresets := len(h.Phdr) - 1

	for i := 0; i < numPresets; i++ {
		rec := &h.Phdr[i]
		preset := &Preset{
			Name:    rec.Name,
			Program: rec.Preset,
		}

		zoneLo := int(rec.BagNdx)
		zoneHi := int(h.Phdr[i+1].BagNdx)
		if zoneHi < zoneLo || zoneHi >= len(h.Pbag) {
			return fmt.Errorf("sf2: preset %q: pbag range [%d, %d) out of bounds", preset.Name, zoneLo, zoneHi)
		}

		// The first preset zone is the global zone iff the preset has
		// more than one zone and that first zone's final generator is
		// not an instrument generator. Its generators become the
		// baseline of every layer of this preset.
		var globalGens []sf2file.Generator
		if zoneHi-zoneLo > 1 {
			genLo := int(h.Pbag[zoneLo].GenNdx)
			genHi := int(h.Pbag[zoneLo+1].GenNdx)
			if genHi > len(h.Pgen) {
				return fmt.Errorf("sf2: preset %q: pgen range [%d, %d) out of bounds", preset.Name, genLo, genHi)
			}
			if genHi > genLo && genOp(h.Pgen[genHi-1].Oper) != genInstrument {
				globalGens = h.Pgen[genLo:genHi]
			}
		}

		for j := zoneLo; j < zoneHi; j++ {
			genLo := int(h.Pbag[j].GenNdx)
			genHi := int(h.Pbag[j+1].GenNdx)
			if genHi < genLo || genHi > len(h.Pgen) {
				return fmt.Errorf("sf2: preset %q: pgen range [%d, %d) out of bounds", preset.Name, genLo, genHi)
			}
			if genHi == genLo {
				// Empty zone (the global zone, or junk); discard.
				continue
			}
			if genOp(h.Pgen[genHi-1].Oper) != genInstrument {
				// Not terminated by an instrument generator; either
				// the global zone (already captured) or malformed.
				continue
			}

			// Merge: start from the global zone's generators, let
			// local generators supersede identical operators, and
			// append the unique ones. This is replacement, not
			// addition; the addition happens later, when the whole
			// layer is applied over each split of its instrument.
			gens := make([]sf2file.Generator, 0, len(globalGens)+(genHi-genLo))
			gens = append(gens, globalGens...)
			for k := genLo; k < genHi; k++ {
				local := h.Pgen[k]
				replaced := false
				for gi := range gens {
					if gens[gi].Oper == local.Oper {
						gens[gi] = local
						replaced = true
						break
					}
				}
				if !replaced {
					gens = append(gens, local)
				}
			}

			layer := newLayer()
			for gi := range gens {
				c.applyLayerGenerator(layer, &gens[gi])
			}
			if layer.Instrument == nil {
				continue
			}
			preset.Layers = append(preset.Layers, layer)
		}

		b := c.bankFor(rec.Bank)
		b.Presets = append(b.Presets, preset)
	}

	return nil
}

func (c *bankCompiler) applyLayerGenerator(layer *Layer, g *sf2file.Generator) {
	switch genOp(g.Oper) {
	case genInstrument:
		if idx := int(g.Amount.Uint16()); idx < len(c.result.instruments) {
			layer.Instrument = c.result.instruments[idx]
		}
	default:
		c.applyZoneGenerator(&layer.zoneParams, g)
	}
}

// bankFor returns the bank with the given number, creating it on first use.
func (c *bankCompiler) bankFor(num uint16) *Bank {
	for _, b := range c.result.banks {
		if b.Num == num {
			return b
		}
	}
	b := &Bank{Num: num}
	c.result.banks = append(c.result.banks, b)
	return b
}

func (c *bankCompiler) sortBanks() {
	banks := c.result.banks
	sort.Slice(banks, func(i, j int) bool {
		return banks[i].Num < banks[j].Num
	})
	for _, b := range banks {
		presets := b.Presets
		sort.SliceStable(presets, func(i, j int) bool {
			return presets[i].Program < presets[j].Program
		})
	}
}

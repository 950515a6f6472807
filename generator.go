package sf2

// genOp is a SoundFont generator operator enumeration value.
// The numbering matches the on-disk pgen/igen records.
type genOp uint16

const (
	genStartAddrsOffset genOp = 0
	genEndAddrsOffset   genOp = 1

	genStartloopAddrsOffset genOp = 2
	genEndloopAddrsOffset   genOp = 3

	// Coarse offsets add in 32768-point increments on top of the
	// short-form offsets above.
	genStartAddrsCoarseOffset genOp = 4

	genModLfoToPitch genOp = 5
	genVibLfoToPitch genOp = 6
	genModEnvToPitch genOp = 7

	genInitialFilterFc genOp = 8 // absolute cents
	genInitialFilterQ  genOp = 9 // centibels

	genModLfoToFilterFc genOp = 10
	genModEnvToFilterFc genOp = 11

	genEndAddrsCoarseOffset genOp = 12

	genModLfoToVolume genOp = 13 // centibels

	genChorusEffectsSend genOp = 15 // 0.1% units
	genReverbEffectsSend genOp = 16 // 0.1% units

	genPan genOp = 17 // 0.1% units, -500..+500

	genDelayModLFO genOp = 21 // absolute timecents
	genFreqModLFO  genOp = 22 // absolute cents, 0 = 8.176 Hz
	genDelayVibLFO genOp = 23
	genFreqVibLFO  genOp = 24

	genDelayModEnv         genOp = 25
	genAttackModEnv        genOp = 26
	genHoldModEnv          genOp = 27
	genDecayModEnv         genOp = 28
	genSustainModEnv       genOp = 29 // 0.1% units
	genReleaseModEnv       genOp = 30
	genKeynumToModEnvHold  genOp = 31
	genKeynumToModEnvDecay genOp = 32

	genDelayVolEnv         genOp = 33
	genAttackVolEnv        genOp = 34
	genHoldVolEnv          genOp = 35
	genDecayVolEnv         genOp = 36
	genSustainVolEnv       genOp = 37 // centibels of attenuation
	genReleaseVolEnv       genOp = 38
	genKeynumToVolEnvHold  genOp = 39
	genKeynumToVolEnvDecay genOp = 40

	// genInstrument is the terminal generator of a local preset zone;
	// its amount indexes the inst array.
	genInstrument genOp = 41

	genKeyRange genOp = 43 // {lo, hi} byte pair; first in a zone when present
	genVelRange genOp = 44 // {lo, hi} byte pair; preceded only by keyRange

	genStartloopAddrsCoarseOffset genOp = 45

	genKeynum   genOp = 46 // fixed key override, instrument level only
	genVelocity genOp = 47 // fixed velocity override, instrument level only

	genInitialAttenuation genOp = 48 // centibels

	genEndloopAddrsCoarseOffset genOp = 50

	genCoarseTune genOp = 51 // semitones, additive with fineTune
	genFineTune   genOp = 52 // cents

	// genSampleID is the terminal generator of a local instrument zone;
	// its amount indexes the shdr array.
	genSampleID genOp = 53

	genSampleModes genOp = 54 // two LS bits select the loop mode

	genScaleTuning genOp = 56 // 0..100, 100 = tempered semitone scale

	genExclusiveClass genOp = 57

	genOverridingRootKey genOp = 58 // -1 = use the sample header's key
)

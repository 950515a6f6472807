package sf2file

// File is a parsed SoundFont 2 file.
// This is the raw file layer: INFO metadata, sample-data stream offsets and
// the nine HYDRA arrays, decoded but not interpreted. The sf2 package
// translates it into a render-ready bank model.
type File struct {
	// Version is the ifil tag. Only major version 2 passes parsing.
	Version VersionTag

	Info Info

	// SampleOffset is the stream offset of the first 16-bit sample frame
	// (the smpl sub-chunk data). Sample24Offset is the offset of the
	// optional low-byte extension (sm24), or 0 when the chunk is absent.
	SampleOffset   int64
	Sample24Offset int64

	Hydra Hydra
}

// VersionTag is the two-word version format used by ifil and iver.
type VersionTag struct {
	Major uint16
	Minor uint16
}

// Info holds the INFO-list metadata strings.
type Info struct {
	SoundEngine string // isng
	Name        string // INAM
	ROM         string // irom
	ROMVersion  VersionTag
	Date        string // ICRD
	Engineers   string // IENG
	Product     string // IPRD
	Copyright   string // ICOP
	Comments    string // ICMT
	Tools       string // ISFT
}

// Hydra is the nine parallel pdta arrays encoding the
// preset -> instrument -> sample hierarchy by index.
// Each slice includes the terminal record the file format requires;
// its indices delimit the last real record's generator/zone range.
type Hydra struct {
	Phdr []PresetHeader
	Pbag []BagRef
	Pmod []Modulator
	Pgen []Generator
	Inst []InstHeader
	Ibag []BagRef
	Imod []Modulator
	Igen []Generator
	Shdr []SampleHeader
}

// PresetHeader is one phdr record (38 bytes on disk).
type PresetHeader struct {
	Name       string
	Preset     uint16 // MIDI program number
	Bank       uint16 // MIDI bank number
	BagNdx     uint16 // first pbag zone of this preset
	Library    uint32 // reserved
	Genre      uint32 // reserved
	Morphology uint32 // reserved
}

// BagRef is one pbag/ibag record: indices of the first generator and
// modulator of a zone (4 bytes on disk).
type BagRef struct {
	GenNdx uint16
	ModNdx uint16
}

// Modulator is one pmod/imod record (10 bytes on disk). Modulators are
// decoded for structural completeness; routing is not implemented.
type Modulator struct {
	SrcOper    uint16
	DestOper   uint16
	Amount     int16
	AmtSrcOper uint16
	TransOper  uint16
}

// Generator is one pgen/igen record (4 bytes on disk).
type Generator struct {
	Oper   uint16
	Amount GenAmount
}

// GenAmount is the 16-bit generator amount union: a signed value, an
// unsigned value, or a byte pair, depending on the operator.
type GenAmount uint16

func (a GenAmount) Int16() int16   { return int16(a) }
func (a GenAmount) Uint16() uint16 { return uint16(a) }

// Range returns the amount as a {low, high} byte pair (keyRange/velRange).
func (a GenAmount) Range() (lo, hi uint8) {
	return uint8(a & 0xFF), uint8(a >> 8)
}

// InstHeader is one inst record (22 bytes on disk).
type InstHeader struct {
	Name   string
	BagNdx uint16 // first ibag zone of this instrument
}

// Sample link types, as stored in SampleHeader.Type.
const (
	MonoSample      = 1
	RightSample     = 2
	LeftSample      = 4
	LinkedSample    = 8
	RomMonoSample   = 0x8001
	RomRightSample  = 0x8002
	RomLeftSample   = 0x8004
	RomLinkedSample = 0x8008
)

// SampleHeader is one shdr record (46 bytes on disk).
// Start/End/StartLoop/EndLoop are absolute indices into the smpl data.
type SampleHeader struct {
	Name       string
	Start      uint32
	End        uint32
	StartLoop  uint32
	EndLoop    uint32
	SampleRate uint32
	// OriginalKey is the MIDI key number of the recorded pitch.
	OriginalKey uint8
	// Correction is a playback pitch correction in cents.
	Correction int8
	// SampleLink is the shdr index of the stereo partner when Type is
	// not mono. Future format revisions allow circular chains.
	SampleLink uint16
	Type       uint16
}

// IsROM reports whether the sample lives in sound ROM rather than the
// smpl chunk.
func (h *SampleHeader) IsROM() bool { return h.Type&0xFFF0 != 0 }

// ValidLinkType reports whether Type is one of the defined link types.
// Anything else is coerced to mono by the bank compiler.
func ValidLinkType(t uint16) bool {
	switch t {
	case MonoSample, RightSample, LeftSample, LinkedSample,
		RomMonoSample, RomRightSample, RomLeftSample, RomLinkedSample:
		return true
	}
	return false
}

package sf2file

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Failure categories carried by ParseError.
var (
	// ErrStructure: the file is not a well-formed sfbk RIFF
	// (missing required sub-chunk, misaligned record sizes, bad magic).
	ErrStructure = errors.New("structurally unsound")

	// ErrUnsupportedVersion: ifil major version is not 2.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrStreamRead: the byte stream came up short while reading.
	ErrStreamRead = errors.New("stream read failed")
)

// Parse scans the RIFF structure of the stream, validates it as a
// SoundFont 2 bank and decodes INFO metadata plus the nine HYDRA arrays.
// Sample PCM data is left on the stream for on-demand loading.
func Parse(s Stream) (*File, error) {
	chunks, err := ScanRIFF(s)
	if err != nil {
		return nil, &ParseError{Message: err.Error(), Offset: s.Pos(), Err: ErrStreamRead}
	}
	p := &parser{s: s, chunks: chunks}
	return p.parse()
}

// Record sizes of the nine pdta sub-chunks; every chunk size must be an
// exact multiple of its record size.
var pdtaRecordSizes = map[string]uint32{
	"phdr": 38,
	"pbag": 4,
	"pmod": 10,
	"pgen": 4,
	"inst": 22,
	"ibag": 4,
	"imod": 10,
	"igen": 4,
	"shdr": 46,
}

type parser struct {
	s      Stream
	chunks []Chunk

	file File

	infoIndex int
	sdtaIndex int
	pdtaIndex int

	// These fields below are needed for better error reporting.
	stage      string
	stageIndex int
}

func (p *parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
}

func (p *parser) errorf(cause error, format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	if p.stage != "" {
		tag := p.stage
		if p.stageIndex >= 0 {
			tag = fmt.Sprintf("%s[%d]", tag, p.stageIndex)
		}
		text = tag + ": " + text
	}
	return &ParseError{
		Message: text,
		Offset:  p.s.Pos(),
		Err:     cause,
	}
}

func (p *parser) parse() (f *File, err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if panicErr, ok := rv.(*ParseError); ok {
				f = nil
				err = panicErr
			} else {
				panic(rv)
			}
		}
	}()

	p.validateStructure()
	p.parseInfo()
	p.parseSampleData()
	p.parseHydra()

	return &p.file, nil
}

func (p *parser) validateStructure() {
	p.startStage("structure")

	if len(p.chunks) == 0 {
		panic(p.errorf(ErrStructure, "empty stream"))
	}
	top := &p.chunks[0]
	if top.ID != MakeFourCC("RIFF") || top.Type != MakeFourCC("sfbk") {
		panic(p.errorf(ErrStructure, "not a RIFF sfbk stream"))
	}

	p.infoIndex = chunkIndexByIDType(p.chunks, MakeFourCC("LIST"), MakeFourCC("INFO"), 0)
	if p.infoIndex == -1 {
		panic(p.errorf(ErrStructure, "missing INFO list"))
	}
	p.sdtaIndex = chunkIndexByIDType(p.chunks, MakeFourCC("LIST"), MakeFourCC("sdta"), 0)
	if p.sdtaIndex == -1 {
		panic(p.errorf(ErrStructure, "missing sdta list"))
	}
	p.pdtaIndex = chunkIndexByIDType(p.chunks, MakeFourCC("LIST"), MakeFourCC("pdta"), 0)
	if p.pdtaIndex == -1 {
		panic(p.errorf(ErrStructure, "missing pdta list"))
	}

	if chunkByID(p.chunks, MakeFourCC("ifil"), p.infoIndex) == nil {
		panic(p.errorf(ErrStructure, "missing ifil version tag"))
	}
	if chunkByID(p.chunks, MakeFourCC("smpl"), p.sdtaIndex) == nil {
		panic(p.errorf(ErrStructure, "missing smpl sample data"))
	}
	for _, name := range []string{"phdr", "pbag", "pmod", "pgen", "inst", "ibag", "imod", "igen", "shdr"} {
		c := chunkByID(p.chunks, MakeFourCC(name), p.pdtaIndex)
		if c == nil {
			panic(p.errorf(ErrStructure, "missing pdta sub-chunk %q", name))
		}
		if c.Size%pdtaRecordSizes[name] != 0 {
			panic(p.errorf(ErrStructure, "%s size %d is not a multiple of %d", name, c.Size, pdtaRecordSizes[name]))
		}
	}
}

func (p *parser) parseInfo() {
	p.startStage("INFO")

	p.file.Version = p.readVersionTag(p.mustChunk("ifil", p.infoIndex))
	if p.file.Version.Major != 2 {
		panic(p.errorf(ErrUnsupportedVersion, "ifil major version %d (want 2)", p.file.Version.Major))
	}

	info := &p.file.Info
	info.SoundEngine = p.readInfoString("isng", 256)
	info.Name = p.readInfoString("INAM", 256)
	info.ROM = p.readInfoString("irom", 256)
	if c := chunkByID(p.chunks, MakeFourCC("iver"), p.infoIndex); c != nil {
		info.ROMVersion = p.readVersionTag(c)
	}
	info.Date = p.readInfoString("ICRD", 256)
	info.Engineers = p.readInfoString("IENG", 256)
	info.Product = p.readInfoString("IPRD", 256)
	info.Copyright = p.readInfoString("ICOP", 256)
	info.Comments = p.readInfoString("ICMT", 65536)
	info.Tools = p.readInfoString("ISFT", 256)
}

func (p *parser) parseSampleData() {
	p.startStage("sdta")

	p.file.SampleOffset = p.mustChunk("smpl", p.sdtaIndex).DataOffset
	if c := chunkByID(p.chunks, MakeFourCC("sm24"), p.sdtaIndex); c != nil {
		p.file.Sample24Offset = c.DataOffset
	}
}

func (p *parser) parseHydra() {
	h := &p.file.Hydra

	p.startStage("phdr")
	p.eachRecord("phdr", func(b []byte) {
		h.Phdr = append(h.Phdr, PresetHeader{
			Name:       convertName(b[:20]),
			Preset:     binary.LittleEndian.Uint16(b[20:]),
			Bank:       binary.LittleEndian.Uint16(b[22:]),
			BagNdx:     binary.LittleEndian.Uint16(b[24:]),
			Library:    binary.LittleEndian.Uint32(b[26:]),
			Genre:      binary.LittleEndian.Uint32(b[30:]),
			Morphology: binary.LittleEndian.Uint32(b[34:]),
		})
	})

	p.startStage("pbag")
	p.eachRecord("pbag", func(b []byte) {
		h.Pbag = append(h.Pbag, BagRef{
			GenNdx: binary.LittleEndian.Uint16(b[0:]),
			ModNdx: binary.LittleEndian.Uint16(b[2:]),
		})
	})

	p.startStage("pmod")
	p.eachRecord("pmod", func(b []byte) {
		h.Pmod = append(h.Pmod, readModulator(b))
	})

	p.startStage("pgen")
	p.eachRecord("pgen", func(b []byte) {
		h.Pgen = append(h.Pgen, readGenerator(b))
	})

	p.startStage("inst")
	p.eachRecord("inst", func(b []byte) {
		h.Inst = append(h.Inst, InstHeader{
			Name:   convertName(b[:20]),
			BagNdx: binary.LittleEndian.Uint16(b[20:]),
		})
	})

	p.startStage("ibag")
	p.eachRecord("ibag", func(b []byte) {
		h.Ibag = append(h.Ibag, BagRef{
			GenNdx: binary.LittleEndian.Uint16(b[0:]),
			ModNdx: binary.LittleEndian.Uint16(b[2:]),
		})
	})

	p.startStage("imod")
	p.eachRecord("imod", func(b []byte) {
		h.Imod = append(h.Imod, readModulator(b))
	})

	p.startStage("igen")
	p.eachRecord("igen", func(b []byte) {
		h.Igen = append(h.Igen, readGenerator(b))
	})

	p.startStage("shdr")
	p.eachRecord("shdr", func(b []byte) {
		h.Shdr = append(h.Shdr, SampleHeader{
			Name:        convertName(b[:20]),
			Start:       binary.LittleEndian.Uint32(b[20:]),
			End:         binary.LittleEndian.Uint32(b[24:]),
			StartLoop:   binary.LittleEndian.Uint32(b[28:]),
			EndLoop:     binary.LittleEndian.Uint32(b[32:]),
			SampleRate:  binary.LittleEndian.Uint32(b[36:]),
			OriginalKey: b[40],
			Correction:  int8(b[41]),
			SampleLink:  binary.LittleEndian.Uint16(b[42:]),
			Type:        binary.LittleEndian.Uint16(b[44:]),
		})
	})
}

func readModulator(b []byte) Modulator {
	return Modulator{
		SrcOper:    binary.LittleEndian.Uint16(b[0:]),
		DestOper:   binary.LittleEndian.Uint16(b[2:]),
		Amount:     int16(binary.LittleEndian.Uint16(b[4:])),
		AmtSrcOper: binary.LittleEndian.Uint16(b[6:]),
		TransOper:  binary.LittleEndian.Uint16(b[8:]),
	}
}

func readGenerator(b []byte) Generator {
	return Generator{
		Oper:   binary.LittleEndian.Uint16(b[0:]),
		Amount: GenAmount(binary.LittleEndian.Uint16(b[2:])),
	}
}

// eachRecord reads every fixed-size record of the named pdta sub-chunk and
// hands its bytes to fn.
func (p *parser) eachRecord(name string, fn func(b []byte)) {
	c := p.mustChunk(name, p.pdtaIndex)
	recordSize := pdtaRecordSizes[name]
	p.setPos(c.DataOffset)
	buf := make([]byte, recordSize)
	for i := uint32(0); i < c.Size/recordSize; i++ {
		p.stageIndex = int(i)
		p.read(buf, name+" record")
		fn(buf)
	}
	p.stageIndex = -1
}

func (p *parser) mustChunk(name string, start int) *Chunk {
	c := chunkByID(p.chunks, MakeFourCC(name), start)
	if c == nil {
		panic(p.errorf(ErrStructure, "missing %q chunk", name))
	}
	return c
}

func (p *parser) readVersionTag(c *Chunk) VersionTag {
	var b [4]byte
	p.setPos(c.DataOffset)
	p.read(b[:], "version tag")
	return VersionTag{
		Major: binary.LittleEndian.Uint16(b[0:]),
		Minor: binary.LittleEndian.Uint16(b[2:]),
	}
}

// readInfoString reads a zero-terminated INFO string chunk.
// Absent chunks yield "".
func (p *parser) readInfoString(name string, maxLen int) string {
	c := chunkByID(p.chunks, MakeFourCC(name), p.infoIndex)
	if c == nil {
		return ""
	}
	n := int(c.Size)
	if n > maxLen {
		n = maxLen
	}
	buf := make([]byte, n)
	p.setPos(c.DataOffset)
	p.read(buf, name+" string")
	return convertCstring(buf)
}

func (p *parser) setPos(pos int64) {
	if err := p.s.SetPos(pos); err != nil {
		panic(p.errorf(ErrStreamRead, "seek to %d: %v", pos, err))
	}
}

func (p *parser) read(dst []byte, what string) {
	n, err := p.s.Read(dst)
	for n < len(dst) && err == nil {
		var m int
		m, err = p.s.Read(dst[n:])
		if m == 0 {
			break
		}
		n += m
	}
	if n < len(dst) {
		panic(p.errorf(ErrStreamRead, "unexpected EOF while reading %s", what))
	}
}

package sf2

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/AnonN10/sf2/sf2file"
)

// The helpers below serialize a minimal sfbk image in memory, so the
// end-to-end tests exercise the real parse -> compile -> render path
// without fixture files.

type hydraGen struct {
	op     genOp
	amount uint16
}

func gen(op genOp, amount int) hydraGen {
	return hydraGen{op: op, amount: uint16(int16(amount))}
}

func genRange(op genOp, lo, hi uint8) hydraGen {
	return hydraGen{op: op, amount: uint16(lo) | uint16(hi)<<8}
}

type testSample struct {
	name       string
	data       []int16
	loopStart  uint32 // relative to the sample start
	loopEnd    uint32
	rate       uint32
	origKey    uint8
	correction int8
	typ        uint16
	link       uint16
}

type testInstrument struct {
	name  string
	zones [][]hydraGen
}

type testPreset struct {
	name    string
	program uint16
	bank    uint16
	zones   [][]hydraGen
}

func chunkBytes(id string, data []byte) []byte {
	out := make([]byte, 0, 8+len(data)+1)
	out = append(out, id...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
	out = append(out, size[:]...)
	out = append(out, data...)
	if len(data)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

func listBytes(id, typ string, children ...[]byte) []byte {
	var payload []byte
	payload = append(payload, typ...)
	for _, c := range children {
		payload = append(payload, c...)
	}
	out := make([]byte, 0, 8+len(payload))
	out = append(out, id...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	out = append(out, size[:]...)
	out = append(out, payload...)
	return out
}

func fixedName(s string) []byte {
	b := make([]byte, 20)
	copy(b, s)
	return b
}

func putWord(dst *[]byte, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	*dst = append(*dst, b[:]...)
}

func putDword(dst *[]byte, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	*dst = append(*dst, b[:]...)
}

func buildSF2(samples []testSample, instruments []testInstrument, presets []testPreset) []byte {
	// smpl payload + shdr records.
	var smpl []byte
	var shdr []byte
	offset := uint32(0)
	for _, s := range samples {
		for _, v := range s.data {
			putWord(&smpl, uint16(v))
		}
		shdr = append(shdr, fixedName(s.name)...)
		putDword(&shdr, offset)
		putDword(&shdr, offset+uint32(len(s.data)))
		putDword(&shdr, offset+s.loopStart)
		putDword(&shdr, offset+s.loopEnd)
		putDword(&shdr, s.rate)
		shdr = append(shdr, s.origKey, byte(s.correction))
		putWord(&shdr, s.link)
		putWord(&shdr, s.typ)
		offset += uint32(len(s.data))
	}
	shdr = append(shdr, fixedName("EOS")...)
	shdr = append(shdr, make([]byte, 26)...)

	// inst + ibag + igen.
	var inst, ibag, igen []byte
	zoneCount := uint16(0)
	genCount := uint16(0)
	for _, in := range instruments {
		inst = append(inst, fixedName(in.name)...)
		putWord(&inst, zoneCount)
		for _, zone := range in.zones {
			putWord(&ibag, genCount)
			putWord(&ibag, 0)
			zoneCount++
			for _, g := range zone {
				putWord(&igen, uint16(g.op))
				putWord(&igen, g.amount)
				genCount++
			}
		}
	}
	inst = append(inst, fixedName("EOI")...)
	putWord(&inst, zoneCount)
	putWord(&ibag, genCount)
	putWord(&ibag, 0)
	putWord(&igen, 0)
	putWord(&igen, 0)

	// phdr + pbag + pgen.
	var phdr, pbag, pgen []byte
	zoneCount = 0
	genCount = 0
	for _, p := range presets {
		phdr = append(phdr, fixedName(p.name)...)
		putWord(&phdr, p.program)
		putWord(&phdr, p.bank)
		putWord(&phdr, zoneCount)
		putDword(&phdr, 0)
		putDword(&phdr, 0)
		putDword(&phdr, 0)
		for _, zone := range p.zones {
			putWord(&pbag, genCount)
			putWord(&pbag, 0)
			zoneCount++
			for _, g := range zone {
				putWord(&pgen, uint16(g.op))
				putWord(&pgen, g.amount)
				genCount++
			}
		}
	}
	phdr = append(phdr, fixedName("EOP")...)
	putWord(&phdr, 0)
	putWord(&phdr, 0)
	putWord(&phdr, zoneCount)
	putDword(&phdr, 0)
	putDword(&phdr, 0)
	putDword(&phdr, 0)
	putWord(&pbag, genCount)
	putWord(&pbag, 0)
	putWord(&pgen, 0)
	putWord(&pgen, 0)

	// pmod/imod carry only their terminal records.
	pmod := make([]byte, 10)
	imod := make([]byte, 10)

	var ifil []byte
	putWord(&ifil, 2)
	putWord(&ifil, 1)

	return listBytes("RIFF", "sfbk",
		listBytes("LIST", "INFO",
			chunkBytes("ifil", ifil),
			chunkBytes("INAM", append([]byte("Test Bank"), 0)),
		),
		listBytes("LIST", "sdta",
			chunkBytes("smpl", smpl),
		),
		listBytes("LIST", "pdta",
			chunkBytes("phdr", phdr),
			chunkBytes("pbag", pbag),
			chunkBytes("pmod", pmod),
			chunkBytes("pgen", pgen),
			chunkBytes("inst", inst),
			chunkBytes("ibag", ibag),
			chunkBytes("imod", imod),
			chunkBytes("igen", igen),
			chunkBytes("shdr", shdr),
		),
	)
}

func loadTestBank(t *testing.T, samples []testSample, instruments []testInstrument, presets []testPreset) *SoundFont {
	t.Helper()
	data := buildSF2(samples, instruments, presets)
	stream := sf2file.NewBytesStream(data)
	file, err := sf2file.Parse(stream)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sf, err := New(file, stream, LoadConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sf
}

// sineSample is one second of a 440 Hz sine at 44100 Hz, near full scale,
// with a seamless full-length loop (440 whole cycles per second).
func sineSample() testSample {
	const n = 44100
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(32760 * math.Sin(2*math.Pi*440*float64(i)/n))
	}
	return testSample{
		name:      "sine440",
		data:      data,
		loopStart: 0,
		loopEnd:   n,
		rate:      n,
		origKey:   69,
		typ:       sf2file.MonoSample,
	}
}

// sineBank builds the one-preset/one-instrument/one-split bank the
// end-to-end scenarios run against. extraSplitGens appends generators to
// the split after the defaults and before the terminal sampleID.
func sineBank(t *testing.T, extraSplitGens ...hydraGen) *SoundFont {
	t.Helper()
	zone := append([]hydraGen{gen(genSampleModes, 1)}, extraSplitGens...)
	zone = append(zone, gen(genSampleID, 0))
	return loadTestBank(t,
		[]testSample{sineSample()},
		[]testInstrument{{name: "Sine", zones: [][]hydraGen{zone}}},
		[]testPreset{{name: "Sine Lead", program: 0, bank: 0, zones: [][]hydraGen{{gen(genInstrument, 0)}}}},
	)
}

func newTestChannel(t *testing.T, sf *SoundFont) *Channel {
	t.Helper()
	c := NewChannel(sf)
	if err := c.SetPreset(0, 0); err != nil {
		t.Fatalf("SetPreset: %v", err)
	}
	return c
}

// zeroCrossings counts sign changes, a cheap frequency estimate.
func zeroCrossings(buf []float32) int {
	count := 0
	prev := buf[0]
	for _, v := range buf[1:] {
		if (prev < 0 && v >= 0) || (prev >= 0 && v < 0) {
			count++
		}
		if v != 0 {
			prev = v
		}
	}
	return count
}

func peakAbs(buf []float32) float64 {
	peak := 0.0
	for _, v := range buf {
		a := math.Abs(float64(v))
		if a > peak {
			peak = a
		}
	}
	return peak
}

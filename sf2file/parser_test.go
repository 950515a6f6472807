package sf2file

import (
	"encoding/binary"
	"errors"
	"testing"
)

func chunkBytes(id string, data []byte) []byte {
	out := append([]byte{}, id...)
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
	payload := append([]byte{}, typ...)
	for _, c := range children {
		payload = append(payload, c...)
	}
	out := append([]byte{}, id...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	out = append(out, size[:]...)
	return append(out, payload...)
}

func word(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

// terminalRecord builds an n-byte zero record with a leading name field.
func terminalRecord(name string, size int) []byte {
	b := make([]byte, size)
	copy(b, name)
	return b
}

type fileSpec struct {
	ifilMajor uint16
	phdrSize  int
	skipChunk string // pdta sub-chunk to omit
}

func buildMinimal(spec fileSpec) []byte {
	if spec.ifilMajor == 0 {
		spec.ifilMajor = 2
	}
	if spec.phdrSize == 0 {
		spec.phdrSize = 38
	}

	pdtaChildren := [][]byte{}
	add := func(name string, data []byte) {
		if name == spec.skipChunk {
			return
		}
		pdtaChildren = append(pdtaChildren, chunkBytes(name, data))
	}
	add("phdr", terminalRecord("EOP", spec.phdrSize))
	add("pbag", make([]byte, 4))
	add("pmod", make([]byte, 10))
	add("pgen", make([]byte, 4))
	add("inst", terminalRecord("EOI", 22))
	add("ibag", make([]byte, 4))
	add("imod", make([]byte, 10))
	add("igen", make([]byte, 4))
	add("shdr", terminalRecord("EOS", 46))

	smpl := make([]byte, 8)
	binary.LittleEndian.PutUint16(smpl[0:], 0x1234)

	return listBytes("RIFF", "sfbk",
		listBytes("LIST", "INFO",
			chunkBytes("ifil", append(word(spec.ifilMajor), word(4)...)),
			chunkBytes("INAM", append([]byte("Tiny"), 0)),
		),
		listBytes("LIST", "sdta", chunkBytes("smpl", smpl)),
		listBytes("LIST", "pdta", pdtaChildren...),
	)
}

func TestParseMinimalFile(t *testing.T) {
	f, err := Parse(NewBytesStream(buildMinimal(fileSpec{})))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Version.Major != 2 || f.Version.Minor != 4 {
		t.Errorf("version: %+v", f.Version)
	}
	if f.Info.Name != "Tiny" {
		t.Errorf("INAM: %q", f.Info.Name)
	}
	if len(f.Hydra.Phdr) != 1 || len(f.Hydra.Shdr) != 1 || len(f.Hydra.Inst) != 1 {
		t.Errorf("hydra sizes: phdr=%d inst=%d shdr=%d", len(f.Hydra.Phdr), len(f.Hydra.Inst), len(f.Hydra.Shdr))
	}
	if f.Hydra.Phdr[0].Name != "EOP" {
		t.Errorf("terminal preset name: %q", f.Hydra.Phdr[0].Name)
	}
	if f.SampleOffset == 0 {
		t.Error("sample offset not captured")
	}
	if f.Sample24Offset != 0 {
		t.Error("sm24 offset set without an sm24 chunk")
	}
}

func TestParseSampleOffsetPointsAtData(t *testing.T) {
	data := buildMinimal(fileSpec{})
	s := NewBytesStream(data)
	f, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetPos(f.SampleOffset); err != nil {
		t.Fatal(err)
	}
	var b [2]byte
	if _, err := s.Read(b[:]); err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint16(b[:]); got != 0x1234 {
		t.Fatalf("first sample word: %#x, want 0x1234", got)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildMinimal(fileSpec{})
	copy(data[8:], "WAVE")
	_, err := Parse(NewBytesStream(data))
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("error: %v, want ErrStructure", err)
	}
}

func TestParseRejectsMissingSubChunk(t *testing.T) {
	_, err := Parse(NewBytesStream(buildMinimal(fileSpec{skipChunk: "igen"})))
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("error: %v, want ErrStructure", err)
	}
}

func TestParseRejectsMisalignedChunk(t *testing.T) {
	_, err := Parse(NewBytesStream(buildMinimal(fileSpec{phdrSize: 39})))
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("error: %v, want ErrStructure", err)
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse(NewBytesStream(buildMinimal(fileSpec{ifilMajor: 3})))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("error: %v, want ErrUnsupportedVersion", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error is not a *ParseError: %T", err)
	}
}

func TestScanRIFFFlattensLists(t *testing.T) {
	chunks, err := ScanRIFF(NewBytesStream(buildMinimal(fileSpec{})))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 || chunks[0].ID != MakeFourCC("RIFF") {
		t.Fatalf("first chunk: %+v", chunks)
	}
	// Containers are followed by their children in file order.
	var ids []string
	for _, c := range chunks {
		ids = append(ids, c.ID.String())
	}
	wantOrder := []string{"RIFF", "LIST", "ifil", "INAM", "LIST", "smpl", "LIST", "phdr"}
	for i, want := range wantOrder {
		if ids[i] != want {
			t.Fatalf("chunk order: %v, want prefix %v", ids, wantOrder)
		}
	}
}

func TestGenAmount(t *testing.T) {
	a := GenAmount(0xFF9C) // -100 as int16
	if a.Int16() != -100 {
		t.Errorf("Int16: %d", a.Int16())
	}
	r := GenAmount(0x7F00 | 0x24) // lo=0x24, hi=0x7F
	lo, hi := r.Range()
	if lo != 0x24 || hi != 0x7F {
		t.Errorf("Range: %d, %d", lo, hi)
	}
}

func TestConvertNameForcesTermination(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = 'A' // no terminator anywhere
	}
	if got := convertName(raw); len(got) != 19 {
		t.Errorf("unterminated 20-byte name: %q (len %d), want 19 chars", got, len(got))
	}
	if got := convertCstring([]byte{'h', 'i', 0, 'x'}); got != "hi" {
		t.Errorf("terminated string: %q", got)
	}
}

func TestValidLinkType(t *testing.T) {
	valid := []uint16{MonoSample, RightSample, LeftSample, LinkedSample, RomMonoSample, RomLinkedSample}
	for _, v := range valid {
		if !ValidLinkType(v) {
			t.Errorf("type %#x should be valid", v)
		}
	}
	invalid := []uint16{0, 9, 0x8000, 0x8009, 0x4001}
	for _, v := range invalid {
		if ValidLinkType(v) {
			t.Errorf("type %#x should be invalid", v)
		}
	}
}

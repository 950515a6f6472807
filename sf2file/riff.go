package sf2file

import (
	"encoding/binary"
	"errors"
	"io"
)

// Stream is a pull-style byte source the parser reads the SoundFont from.
// All multi-byte integers in the file are little-endian.
//
// Sample PCM data is not decoded at parse time; the synthesis layer keeps
// the stream around and reads sample frames on demand, so implementations
// must stay valid for as long as the bank is in use.
type Stream interface {
	Read(p []byte) (int, error)
	Skip(n int64) error
	Pos() int64
	SetPos(p int64) error
}

type bytesStream struct {
	data []byte
	pos  int64
}

// NewBytesStream wraps an in-memory SoundFont image as a Stream.
func NewBytesStream(data []byte) Stream {
	return &bytesStream{data: data}
}

func (s *bytesStream) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *bytesStream) Skip(n int64) error {
	if s.pos+n > int64(len(s.data)) {
		s.pos = int64(len(s.data))
		return io.EOF
	}
	s.pos += n
	return nil
}

func (s *bytesStream) Pos() int64 { return s.pos }

func (s *bytesStream) SetPos(p int64) error {
	if p < 0 || p > int64(len(s.data)) {
		return errors.New("sf2file: stream position out of range")
	}
	s.pos = p
	return nil
}

// FourCC is a four-character RIFF chunk code.
type FourCC [4]byte

func MakeFourCC(s string) FourCC {
	var c FourCC
	for i := 0; i < 4; i++ {
		if i < len(s) {
			c[i] = s[i]
		} else {
			c[i] = ' '
		}
	}
	return c
}

func (c FourCC) String() string { return string(c[:]) }

// Chunk describes one RIFF chunk: its id, declared data size, the list type
// (RIFF/LIST chunks only), and the stream offset of its data.
// Chunk data is never loaded during scanning.
type Chunk struct {
	ID         FourCC
	Type       FourCC
	Size       uint32
	DataOffset int64
}

// PaddedSize is the chunk data size padded to a 16-bit boundary.
func (c *Chunk) PaddedSize() int64 {
	if c.Size%2 != 0 {
		return int64(c.Size) + 1
	}
	return int64(c.Size)
}

// ScanRIFF walks the stream and returns a flat, in-order list of every chunk
// it contains. RIFF and LIST chunks are containers: their children follow
// them immediately in the returned slice, since scanning descends into them
// instead of skipping their payload.
func ScanRIFF(s Stream) ([]Chunk, error) {
	var chunks []Chunk
	var header [8]byte
	for {
		n, err := io.ReadFull(s, header[:])
		if n < len(header) {
			// Trailing garbage shorter than a header ends the scan,
			// as does a clean EOF.
			break
		}
		if err != nil {
			return chunks, err
		}
		var c Chunk
		copy(c.ID[:], header[:4])
		c.Size = binary.LittleEndian.Uint32(header[4:])
		if c.ID == MakeFourCC("RIFF") || c.ID == MakeFourCC("LIST") {
			var typ [4]byte
			if _, err := io.ReadFull(s, typ[:]); err != nil {
				break
			}
			c.Type = typ
			c.DataOffset = s.Pos()
			// Container chunks hold only subchunks; keep reading
			// so the children land in the flat list.
		} else {
			c.DataOffset = s.Pos()
			if err := s.Skip(c.PaddedSize()); err != nil {
				// The declared size runs past the stream end.
				// Keep the truncated chunk; the validation layer
				// decides whether it matters.
				chunks = append(chunks, c)
				break
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// chunkIndexByIDType finds the first chunk with the given id and list type
// at or after start. Returns -1 when absent.
func chunkIndexByIDType(chunks []Chunk, id, typ FourCC, start int) int {
	for i := start; i < len(chunks); i++ {
		if chunks[i].ID == id && chunks[i].Type == typ {
			return i
		}
	}
	return -1
}

// chunkByID finds the first chunk with the given id at or after start.
func chunkByID(chunks []Chunk, id FourCC, start int) *Chunk {
	for i := start; i < len(chunks); i++ {
		if chunks[i].ID == id {
			return &chunks[i]
		}
	}
	return nil
}

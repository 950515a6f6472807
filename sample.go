package sf2

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/AnonN10/sf2/sf2file"
)

// Sample is one recorded PCM waveform from the bank.
//
// Samples are created at bank-compile time with Data unset; the PCM frames
// are decoded from the stream the first time a Channel.SetPreset references
// them. The bank owns every sample for its whole lifetime; splits only
// borrow references.
type Sample struct {
	Name string

	// Loop points, rebased so they index Data directly
	// (the file stores them relative to the start of the smpl chunk).
	LoopStart uint32
	LoopEnd   uint32

	SampleRate  uint32
	OriginalKey uint8
	Correction  int8 // cents

	Type uint16

	// Linked is the stereo partner for left/right/linked samples, nil for
	// mono. The reference is a borrow, never ownership; chains may be
	// circular, so traversals terminate on revisiting their origin.
	Linked *Sample

	// Data holds the decoded frames in [-1, 1]. Written exactly once
	// under the load latch.
	Data []float32

	streamOffset uint32 // in sample points from the start of smpl data
	length       uint32 // in sample points

	loadOnce sync.Once
	loadErr  error
}

// Len returns the sample length in frames.
func (s *Sample) Len() uint32 { return s.length }

// IsROM reports whether the sample data lives in sound ROM.
// ROM samples are skipped at voice construction.
func (s *Sample) IsROM() bool { return s.Type&0xFFF0 != 0 }

// Loaded reports whether the PCM data has been decoded.
func (s *Sample) Loaded() bool { return s.Data != nil }

// load decodes the PCM frames from the stream. Concurrent callers observe
// either a loaded sample or block on the latch until the first load
// finishes; the data slice is written exactly once.
func (s *Sample) load(f *sf2file.File, stream sf2file.Stream) error {
	s.loadOnce.Do(func() {
		s.loadErr = s.decode(f, stream)
	})
	return s.loadErr
}

func (s *Sample) decode(f *sf2file.File, stream sf2file.Stream) error {
	data16 := make([]byte, int64(s.length)*2)
	if err := stream.SetPos(f.SampleOffset + int64(s.streamOffset)*2); err != nil {
		return fmt.Errorf("sample %q: %w", s.Name, err)
	}
	if err := readFull(stream, data16); err != nil {
		return fmt.Errorf("sample %q: %w", s.Name, err)
	}

	data := make([]float32, s.length)
	if f.Sample24Offset != 0 {
		// The optional sm24 chunk extends each frame with a low byte,
		// forming a 24-bit signed value.
		data24 := make([]byte, s.length)
		if err := stream.SetPos(f.Sample24Offset + int64(s.streamOffset)); err != nil {
			return fmt.Errorf("sample %q: %w", s.Name, err)
		}
		if err := readFull(stream, data24); err != nil {
			return fmt.Errorf("sample %q: %w", s.Name, err)
		}
		for i := range data {
			hi := int32(int16(binary.LittleEndian.Uint16(data16[i*2:])))
			v := hi<<8 | int32(data24[i])
			data[i] = float32(v) / 8388607.0
		}
	} else {
		for i := range data {
			v := int16(binary.LittleEndian.Uint16(data16[i*2:]))
			data[i] = float32(v) / 32767.0
		}
	}

	s.Data = data
	return nil
}

func readFull(stream sf2file.Stream, dst []byte) error {
	n := 0
	for n < len(dst) {
		m, err := stream.Read(dst[n:])
		if m == 0 {
			if err != nil {
				return err
			}
			return fmt.Errorf("short read: %d of %d bytes", n, len(dst))
		}
		n += m
	}
	return nil
}

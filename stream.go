package sf2

import (
	"encoding/binary"

	"github.com/viterin/vek/vek32"
)

// Stream makes a Channel readable as 16-bit little endian stereo PCM; this
// is what the ebiten/audio package expects, so a Stream can be passed
// straight to audio.NewPlayer(). A channel stream has no natural end: when
// no voices are sounding it produces silence, never io.EOF.
type Stream struct {
	channel    *Channel
	sampleRate float64

	volumeScaling float32

	bufL []float32
	bufR []float32

	peak float32
}

// NewStream wraps the channel for playback at the given sample rate.
func NewStream(channel *Channel, sampleRate int) *Stream {
	return &Stream{
		channel:       channel,
		sampleRate:    float64(sampleRate),
		volumeScaling: 0.8,
	}
}

// SetVolume adjusts the output volume scaling.
// The default value is 0.8; a value of 0 disables the sound.
// The value is clamped in [0, 1].
func (s *Stream) SetVolume(v float64) {
	s.volumeScaling = float32(clamp(v, 0, 1))
}

// Peak returns the largest pre-quantization sample magnitude observed so
// far. Values above 1 mean the mix clipped; the synthesis core never
// saturates on its own (that is the caller's call to make).
func (s *Stream) Peak() float64 { return float64(s.peak) }

// Read fills b with the next interleaved PCM frames.
// Note-on/off calls on the underlying channel take effect at the next Read;
// there is no mid-buffer event dispatch.
func (s *Stream) Read(b []byte) (int, error) {
	frames := len(b) / 4
	if frames == 0 {
		return 0, nil
	}

	if cap(s.bufL) < frames {
		s.bufL = make([]float32, frames)
		s.bufR = make([]float32, frames)
	}
	s.bufL = vek32.Zeros_Into(s.bufL[:frames], frames)
	s.bufR = vek32.Zeros_Into(s.bufR[:frames], frames)

	s.channel.Render(s.bufL, s.bufR, s.sampleRate)

	if s.volumeScaling != 1 {
		vek32.MulNumber_Inplace(s.bufL, s.volumeScaling)
		vek32.MulNumber_Inplace(s.bufR, s.volumeScaling)
	}
	s.observePeak()

	for i := 0; i < frames; i++ {
		putPCM(b[i*4:], s.bufL[i], s.bufR[i])
	}
	return frames * 4, nil
}

func (s *Stream) observePeak() {
	for _, buf := range [2][]float32{s.bufL, s.bufR} {
		if hi := vek32.Max(buf); hi > s.peak {
			s.peak = hi
		}
		if lo := vek32.Min(buf); -lo > s.peak {
			s.peak = -lo
		}
	}
}

func putPCM(b []byte, left, right float32) {
	binary.LittleEndian.PutUint16(b[0:], uint16(int16(clamp(left, -1, 1)*32767)))
	binary.LittleEndian.PutUint16(b[2:], uint16(int16(clamp(right, -1, 1)*32767)))
}

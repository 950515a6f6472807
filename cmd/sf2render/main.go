// Command sf2render renders a SoundFont bank to a float32 WAV file,
// driven either by a Standard MIDI File or by a built-in test chord.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/AnonN10/sf2"
	"github.com/AnonN10/sf2/sf2file"
)

func main() {
	var (
		sfPath     = flag.String("sf", "", "path to the .sf2 bank (required)")
		midiPath   = flag.String("midi", "", "path to a .mid file; when empty, a C major chord is played")
		outPath    = flag.String("o", "output.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		program    = flag.Int("program", 0, "preset program number for chord mode")
		bankNum    = flag.Int("bank", 0, "bank number for chord mode")
		seconds    = flag.Float64("seconds", 3.2, "render length for chord mode")
		tail       = flag.Float64("tail", 2.0, "extra seconds rendered after the last MIDI event")
		noCompat   = flag.Bool("no-attenuation-compat", false, "disable the 0.4 attenuation compatibility factor")
	)
	flag.Parse()
	if *sfPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*sfPath)
	if err != nil {
		log.Fatal(err)
	}
	stream := sf2file.NewBytesStream(data)
	file, err := sf2file.Parse(stream)
	if err != nil {
		log.Fatalf("parse %s: %v", *sfPath, err)
	}
	bank, err := sf2.New(file, stream, sf2.LoadConfig{
		DisableAttenuationCompat: *noCompat,
	})
	if err != nil {
		log.Fatalf("compile bank: %v", err)
	}

	var outL, outR []float32
	if *midiPath != "" {
		outL, outR, err = renderSMF(bank, *midiPath, *sampleRate, *tail)
	} else {
		outL, outR, err = renderChord(bank, *sampleRate, *seconds, uint16(*program), uint16(*bankNum))
	}
	if err != nil {
		log.Fatal(err)
	}

	wav := encodeWAVFloat32LE(interleave(outL, outR), *sampleRate, 2)
	if err := os.WriteFile(*outPath, wav, 0o666); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d frames at %d Hz)\n", *outPath, len(outL), *sampleRate)
}

func renderSMF(bank *sf2.SoundFont, path string, sampleRate int, tail float64) ([]float32, []float32, error) {
	song, err := smf.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read MIDI file: %w", err)
	}
	seq, err := sf2.NewSequencer(bank, song, float64(sampleRate))
	if err != nil {
		return nil, nil, err
	}

	frames := int((seq.Duration() + tail) * float64(sampleRate))
	outL := make([]float32, frames)
	outR := make([]float32, frames)
	seq.Render(outL, outR)
	return outL, outR, nil
}

// renderChord reproduces the classic smoke test: a held C major chord.
func renderChord(bank *sf2.SoundFont, sampleRate int, seconds float64, program, bankNum uint16) ([]float32, []float32, error) {
	channel := sf2.NewChannel(bank)
	if err := channel.SetPreset(program, bankNum); err != nil {
		return nil, nil, err
	}

	sr := float64(sampleRate)
	channel.NoteOn(60, 127, sr)
	channel.NoteOn(64, 127, sr)
	channel.NoteOn(67, 127, sr)

	frames := int(seconds * float64(sampleRate))
	outL := make([]float32, frames)
	outR := make([]float32, frames)
	channel.Render(outL, outR, sr)
	return outL, outR, nil
}

func interleave(l, r []float32) []float32 {
	out := make([]float32, len(l)*2)
	for i := range l {
		out[i*2] = l[i]
		out[i*2+1] = r[i]
	}
	return out
}

func encodeWAVFloat32LE(samples []float32, sampleRate, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

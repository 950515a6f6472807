package sf2

import (
	"math"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func buildSong(t *testing.T, build func(tr *smf.Track)) *smf.SMF {
	t.Helper()
	song := smf.New()
	song.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	build(&tr)
	tr.Close(0)
	song.Add(tr)
	return song
}

func TestSequencerPlaysNote(t *testing.T) {
	bank := sineBank(t)
	song := buildSong(t, func(tr *smf.Track) {
		tr.Add(0, smf.MetaTempo(120))
		tr.Add(0, midi.ProgramChange(0, 0))
		tr.Add(0, midi.NoteOn(0, 69, 127))
		tr.Add(960, midi.NoteOff(0, 69)) // one quarter note: 0.5 s at 120 BPM
	})

	seq, err := NewSequencer(bank, song, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(seq.Duration()-0.5) > 1e-6 {
		t.Errorf("duration: %v, want 0.5", seq.Duration())
	}

	frames := int(1.0 * testSampleRate)
	outL := make([]float32, frames)
	outR := make([]float32, frames)
	seq.Render(outL, outR)

	active := outL[:frames/4]
	if peakAbs(active) < 0.5 {
		t.Errorf("first quarter second peak: %v, want a sounding note", peakAbs(active))
	}
	crossings := zeroCrossings(active)
	want := 880.0 / 4
	if math.Abs(float64(crossings)-want) > 10 {
		t.Errorf("crossings in first quarter second: %d, want ~%v", crossings, want)
	}

	// Well after the note-off plus the default release the tail is quiet.
	tail := outL[frames-frames/8:]
	if peakAbs(tail) > 0.01 {
		t.Errorf("tail peak: %v, want silence after note off", peakAbs(tail))
	}

	if !seq.Done() {
		t.Error("sequencer not done after rendering past the last event")
	}
}

func TestSequencerTempoChange(t *testing.T) {
	bank := sineBank(t)
	song := buildSong(t, func(tr *smf.Track) {
		tr.Add(0, smf.MetaTempo(120))
		tr.Add(960, smf.MetaTempo(60)) // after 0.5 s, halve the tempo
		tr.Add(960, midi.NoteOn(0, 69, 127))
		tr.Add(0, midi.NoteOff(0, 69))
	})

	seq, err := NewSequencer(bank, song, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	// 960 ticks at 120 BPM (0.5 s) + 960 ticks at 60 BPM (1 s).
	if math.Abs(seq.Duration()-1.5) > 1e-6 {
		t.Errorf("duration: %v, want 1.5", seq.Duration())
	}
}

func TestSequencerSustainPedal(t *testing.T) {
	bank := sineBank(t)
	song := buildSong(t, func(tr *smf.Track) {
		tr.Add(0, smf.MetaTempo(120))
		tr.Add(0, midi.ControlChange(0, 64, 127)) // pedal down
		tr.Add(0, midi.NoteOn(0, 69, 127))
		tr.Add(960, midi.NoteOff(0, 69)) // 0.5 s: key up, pedal holds
		tr.Add(960, midi.ControlChange(0, 64, 0))
	})

	seq, err := NewSequencer(bank, song, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	frames := int(0.75 * testSampleRate)
	outL := make([]float32, frames)
	outR := make([]float32, frames)
	seq.Render(outL, outR)

	// 0.6 s in, the key is up but the pedal still sustains the voice.
	window := outL[int(0.6*testSampleRate):int(0.7*testSampleRate)]
	if peakAbs(window) < 0.5 {
		t.Errorf("sustained window peak: %v, want the note still sounding", peakAbs(window))
	}

	// After the pedal lifts the voice releases and fades.
	rest := int(1.0 * testSampleRate)
	outL2 := make([]float32, rest)
	outR2 := make([]float32, rest)
	seq.Render(outL2, outR2)
	tail := outL2[rest-rest/4:]
	if peakAbs(tail) > 0.01 {
		t.Errorf("post-pedal tail peak: %v, want silence", peakAbs(tail))
	}
}

func TestSequencerPercussionChannelUsesBank128(t *testing.T) {
	bank := loadTestBank(t,
		[]testSample{sineSample()},
		[]testInstrument{{name: "I", zones: [][]hydraGen{{gen(genSampleModes, 1), gen(genSampleID, 0)}}}},
		[]testPreset{
			{name: "Melodic", program: 0, bank: 0, zones: [][]hydraGen{{gen(genInstrument, 0)}}},
			{name: "Drums", program: 0, bank: 128, zones: [][]hydraGen{{gen(genInstrument, 0)}}},
		},
	)
	song := buildSong(t, func(tr *smf.Track) {
		tr.Add(0, midi.NoteOn(9, 40, 127))
		tr.Add(960, midi.NoteOff(9, 40))
	})

	seq, err := NewSequencer(bank, song, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if p := seq.channels[9].Preset(); p == nil || p.Name != "Drums" {
		t.Fatalf("channel 10 preset: %+v, want the bank 128 drum kit", p)
	}
}

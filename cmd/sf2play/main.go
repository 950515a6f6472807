// Command sf2play plays a SoundFont preset live through the Ebitengine
// audio player. The middle keyboard rows work as a two-octave piano
// (A S D F ... for white keys, W E T Y U for black keys), space toggles the
// sustain pedal, and -midi plays a Standard MIDI File instead.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/AnonN10/sf2"
	"github.com/AnonN10/sf2/sf2file"
)

const sampleRate = 44100

// keyboardNotes maps the computer keyboard onto MIDI keys around middle C.
var keyboardNotes = map[ebiten.Key]uint8{
	ebiten.KeyA: 60, // C4
	ebiten.KeyW: 61,
	ebiten.KeyS: 62,
	ebiten.KeyE: 63,
	ebiten.KeyD: 64,
	ebiten.KeyF: 65,
	ebiten.KeyT: 66,
	ebiten.KeyG: 67,
	ebiten.KeyY: 68,
	ebiten.KeyH: 69, // A4
	ebiten.KeyU: 70,
	ebiten.KeyJ: 71,
	ebiten.KeyK: 72, // C5
}

func main() {
	var (
		sfPath   = flag.String("sf", "", "path to the .sf2 bank (required)")
		midiPath = flag.String("midi", "", "optional .mid file to play")
		program  = flag.Int("program", 0, "preset program number")
		bankNum  = flag.Int("bank", 0, "bank number")
		volume   = flag.Float64("volume", 0.8, "output volume scaling")
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
	bank, err := sf2.New(file, stream, sf2.LoadConfig{})
	if err != nil {
		log.Fatalf("compile bank: %v", err)
	}

	channel := sf2.NewChannel(bank)
	if err := channel.SetPreset(uint16(*program), uint16(*bankNum)); err != nil {
		log.Fatal(err)
	}

	var seq *sf2.Sequencer
	if *midiPath != "" {
		song, err := smf.ReadFile(*midiPath)
		if err != nil {
			log.Fatal(err)
		}
		seq, err = sf2.NewSequencer(bank, song, sampleRate)
		if err != nil {
			log.Fatal(err)
		}
	}

	audioContext := audio.NewContext(sampleRate)
	g := &game{
		channel: channel,
		seq:     seq,
		bank:    bank,
	}
	var source io.Reader
	if seq != nil {
		source = &sequencerReader{seq: seq}
	} else {
		s := sf2.NewStream(channel, sampleRate)
		s.SetVolume(*volume)
		source = s
	}
	player, err := audioContext.NewPlayer(source)
	if err != nil {
		log.Fatal(err)
	}
	player.Play()
	g.player = player

	ebiten.SetWindowTitle("sf2play")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

type game struct {
	channel *sf2.Channel
	seq     *sf2.Sequencer
	bank    *sf2.SoundFont
	player  *audio.Player

	sustain bool
}

func (g *game) Update() error {
	if g.seq != nil {
		return nil
	}

	for key, note := range keyboardNotes {
		if inpututil.IsKeyJustPressed(key) {
			g.channel.NoteOn(note, 110, sampleRate)
		}
		if inpututil.IsKeyJustReleased(key) {
			g.channel.NoteOff(note)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.sustain = !g.sustain
		g.channel.SetSustain(g.sustain)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.channel.Panic()
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.seq != nil {
		ebitenutil.DebugPrint(screen, "Playing MIDI file...")
		return
	}
	status := "up"
	if g.sustain {
		status = "down"
	}
	preset := "(none)"
	if p := g.channel.Preset(); p != nil {
		preset = p.Name
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"Preset: %s\nKeys: A..K play, SPACE sustain pedal (%s), ESC panic\nVoices: %d",
		preset, status, g.channel.ActiveVoices()))
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}

// sequencerReader adapts a Sequencer to the 16-bit LE PCM io.Reader the
// ebiten audio player consumes.
type sequencerReader struct {
	seq  *sf2.Sequencer
	bufL []float32
	bufR []float32
}

func (r *sequencerReader) Read(b []byte) (int, error) {
	frames := len(b) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(r.bufL) < frames {
		r.bufL = make([]float32, frames)
		r.bufR = make([]float32, frames)
	}
	r.bufL = r.bufL[:frames]
	r.bufR = r.bufR[:frames]
	for i := 0; i < frames; i++ {
		r.bufL[i] = 0
		r.bufR[i] = 0
	}

	r.seq.Render(r.bufL, r.bufR)

	for i := 0; i < frames; i++ {
		l := int16(clampUnit(r.bufL[i]) * 32767)
		rr := int16(clampUnit(r.bufR[i]) * 32767)
		b[i*4] = byte(l)
		b[i*4+1] = byte(uint16(l) >> 8)
		b[i*4+2] = byte(rr)
		b[i*4+3] = byte(uint16(rr) >> 8)
	}
	return frames * 4, nil
}

func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

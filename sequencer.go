package sf2

import (
	"errors"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// percussionBank is the bank number MIDI channel 10 selects by convention.
const percussionBank = 128

type seqEventKind uint8

const (
	seqNoteOn seqEventKind = iota
	seqNoteOff
	seqProgramChange
	seqSustain
	seqAllNotesOff
)

type seqEvent struct {
	time    float64 // seconds from song start
	kind    seqEventKind
	channel uint8
	key     uint8
	value   uint8 // velocity, program or controller value
}

// Sequencer plays a Standard MIDI File through 16 channels sharing one
// bank. Construction resolves the whole tempo map into absolute event
// times and pre-loads every sample any program change can reach, so
// Render stays free of I/O.
type Sequencer struct {
	sf       *SoundFont
	channels [16]*Channel

	events     []seqEvent
	pos        int
	time       float64
	duration   float64
	sampleRate float64
}

// NewSequencer prepares the song for rendering at the given sample rate.
func NewSequencer(sf *SoundFont, song *smf.SMF, sampleRate float64) (*Sequencer, error) {
	ticks, ok := song.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("sf2: unsupported SMF time format %v", song.TimeFormat)
	}

	q := &Sequencer{sf: sf, sampleRate: sampleRate}
	for i := range q.channels {
		q.channels[i] = NewChannel(sf)
	}

	if err := q.compileEvents(song, ticks); err != nil {
		return nil, err
	}
	if err := q.warmPresets(); err != nil {
		return nil, err
	}
	return q, nil
}

// tickedMessage is a track message lifted to absolute tick time.
type tickedMessage struct {
	tick  uint64
	track int
	msg   smf.Message
}

func (q *Sequencer) compileEvents(song *smf.SMF, ticks smf.MetricTicks) error {
	if len(song.Tracks) == 0 {
		return errors.New("sf2: SMF has no tracks")
	}

	var merged []tickedMessage
	for ti, track := range song.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			merged = append(merged, tickedMessage{tick: abs, track: ti, msg: ev.Message})
		}
	}
	// Simultaneous messages keep file order (track, then position), so a
	// program change written before a note-on lands before it.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].tick < merged[j].tick
	})

	bpm := 120.0
	now := 0.0
	var prevTick uint64
	for _, tm := range merged {
		now += ticks.Duration(bpm, uint32(tm.tick-prevTick)).Seconds()
		prevTick = tm.tick

		var channel, key, velocity, controller, value, program uint8
		msg := tm.msg
		switch {
		case msg.GetMetaTempo(&bpm):
			// Tempo applies to every delta that follows.
		case msg.GetNoteStart(&channel, &key, &velocity):
			q.events = append(q.events, seqEvent{time: now, kind: seqNoteOn, channel: channel, key: key, value: velocity})
		case msg.GetNoteEnd(&channel, &key):
			q.events = append(q.events, seqEvent{time: now, kind: seqNoteOff, channel: channel, key: key})
		case msg.GetProgramChange(&channel, &program):
			q.events = append(q.events, seqEvent{time: now, kind: seqProgramChange, channel: channel, value: program})
		case msg.GetControlChange(&channel, &controller, &value):
			switch controller {
			case 64:
				q.events = append(q.events, seqEvent{time: now, kind: seqSustain, channel: channel, value: value})
			case 120, 123:
				q.events = append(q.events, seqEvent{time: now, kind: seqAllNotesOff, channel: channel})
			}
		}
	}
	q.duration = now
	return nil
}

// warmPresets walks the program changes and decodes every sample they can
// reference, then leaves each channel on its initial program.
func (q *Sequencer) warmPresets() error {
	type selection struct {
		channel uint8
		program uint8
	}
	seen := make(map[selection]bool)
	var initial [16]uint8
	var hasInitial [16]bool

	for _, ev := range q.events {
		if ev.kind != seqProgramChange || ev.channel >= 16 {
			continue
		}
		seen[selection{ev.channel, ev.value}] = true
		if !hasInitial[ev.channel] {
			initial[ev.channel] = ev.value
			hasInitial[ev.channel] = true
		}
	}
	for ch := range q.channels {
		seen[selection{uint8(ch), initial[ch]}] = true
	}

	for sel := range seen {
		// Preset misses are tolerable here (General MIDI files often
		// address programs a small bank does not carry); the channel
		// just stays quiet for those notes.
		_ = q.channels[sel.channel].SetPreset(uint16(sel.program), q.bankNumFor(sel.channel))
	}
	return nil
}

func (q *Sequencer) bankNumFor(channel uint8) uint16 {
	if channel == 9 {
		return percussionBank
	}
	return 0
}

// Duration returns the time of the last MIDI event in seconds.
func (q *Sequencer) Duration() float64 { return q.duration }

// Done reports whether every event has fired and every voice finished.
func (q *Sequencer) Done() bool {
	if q.pos < len(q.events) {
		return false
	}
	for _, ch := range q.channels {
		if ch.ActiveVoices() > 0 {
			return false
		}
	}
	return true
}

// Render advances the song by len(outL) frames, dispatching due events
// between sub-slices so note timing is sample-accurate.
func (q *Sequencer) Render(outL, outR []float32) {
	frames := len(outL)
	done := 0
	for done < frames {
		for q.pos < len(q.events) && q.events[q.pos].time <= q.time {
			q.dispatch(&q.events[q.pos])
			q.pos++
		}

		n := frames - done
		if q.pos < len(q.events) {
			until := int((q.events[q.pos].time - q.time) * q.sampleRate)
			if until < 1 {
				until = 1
			}
			if until < n {
				n = until
			}
		}

		for _, ch := range q.channels {
			ch.Render(outL[done:done+n], outR[done:done+n], q.sampleRate)
		}
		q.time += float64(n) / q.sampleRate
		done += n
	}
}

func (q *Sequencer) dispatch(ev *seqEvent) {
	if ev.channel >= 16 {
		return
	}
	ch := q.channels[ev.channel]
	switch ev.kind {
	case seqNoteOn:
		ch.NoteOn(ev.key, ev.value, q.sampleRate)
	case seqNoteOff:
		ch.NoteOff(ev.key)
	case seqProgramChange:
		// The samples were decoded in warmPresets; this only swaps the
		// selection.
		_ = ch.SetPreset(uint16(ev.value), q.bankNumFor(ev.channel))
	case seqSustain:
		ch.SetSustain(ev.value >= 64)
	case seqAllNotesOff:
		for key := 0; key < 128; key++ {
			ch.NoteOff(uint8(key))
		}
	}
}

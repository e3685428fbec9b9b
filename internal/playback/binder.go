package playback

import (
	"log/slog"
	"math"
	"strings"
)

// MaxAudioDrift is how far, in seconds, the audible position may wander from
// the timeline position before the binder forces a re-seek. Corrections
// smaller than this are left to the output device, which keeps ordinary
// playback free of audible stutter.
const MaxAudioDrift = 0.25

// Output is the device the binder drives. The agent itself has no screen or
// speakers; the real device lives in the browser UI and receives these calls
// over the event stream. Implementations must be cheap and non-blocking, as
// they run inside the session tick with the session lock held.
type Output interface {
	SetPlaying(playing bool)
	SetVisual(ref string)
	SetOverlay(ref string)
	SetCaption(lines []string)
	BindNarration(ref string, offset float64)
	SeekNarration(offset float64)
	StopNarration()
	BindMusic(ref string, offset float64)
	StopMusic()
}

// channelState models where the output device's playback position should be
// for one audio channel, so the binder can tell drift from normal advance.
type channelState struct {
	ref       string
	devOffset float64
	bound     bool
}

// Binder reconciles resolved frames against the output. Visual slots are
// plain last-value dedupe; the narration channel gets phase accounting so a
// continuously playing source is never re-seeked tick by tick, and music
// binds once per ref and loops on the device.
type Binder struct {
	out        Output
	playing    bool
	visual     string
	overlay    string
	captionKey string
	narration  channelState
	music      channelState
}

func NewBinder(out Output) *Binder {
	if out == nil {
		out = NullOutput{}
	}
	return &Binder{out: out}
}

// Apply pushes one resolved frame to the output. playing tells the binder
// whether the playhead is advancing; dt is the wall time the device has been
// playing since the previous frame. Ticks pass their measured delta,
// instantaneous state changes pass zero. Crediting the device with wall time
// rather than playhead deltas is what lets a seek during playback register
// as drift and force a re-seek.
func (b *Binder) Apply(f Frame, playing bool, dt float64) {
	if playing != b.playing {
		b.playing = playing
		b.out.SetPlaying(playing)
	}
	if f.VisualRef != b.visual {
		b.visual = f.VisualRef
		b.out.SetVisual(f.VisualRef)
	}
	if f.OverlayRef != b.overlay {
		b.overlay = f.OverlayRef
		b.out.SetOverlay(f.OverlayRef)
	}
	if key := strings.Join(f.CaptionLines, "\n"); key != b.captionKey {
		b.captionKey = key
		b.out.SetCaption(f.CaptionLines)
	}
	b.applyNarration(f, dt)
	b.applyMusic(f)
}

func (b *Binder) applyNarration(f Frame, dt float64) {
	ch := &b.narration
	if f.AudioRef == "" {
		if ch.bound {
			*ch = channelState{}
			b.out.StopNarration()
		}
		return
	}
	if !ch.bound || f.AudioRef != ch.ref {
		*ch = channelState{ref: f.AudioRef, devOffset: f.AudioOffset, bound: true}
		b.out.BindNarration(f.AudioRef, f.AudioOffset)
		return
	}

	// The device advances at 1x while playing and holds while paused or
	// scrubbing. Re-seek only when the wanted offset leaves the model's
	// tolerance band.
	if b.playing && dt > 0 {
		ch.devOffset += dt
	}
	if math.Abs(f.AudioOffset-ch.devOffset) > MaxAudioDrift {
		ch.devOffset = f.AudioOffset
		b.out.SeekNarration(f.AudioOffset)
	}
}

// applyMusic binds background music once per ref and otherwise leaves it
// alone. The device loops the source itself, so the binder cannot know the
// true position and does not try to correct it.
func (b *Binder) applyMusic(f Frame) {
	ch := &b.music
	if f.MusicRef == "" {
		if ch.bound {
			*ch = channelState{}
			b.out.StopMusic()
		}
		return
	}
	if !ch.bound || f.MusicRef != ch.ref {
		*ch = channelState{ref: f.MusicRef, devOffset: f.MusicOffset, bound: true}
		b.out.BindMusic(f.MusicRef, f.MusicOffset)
	}
}

// Reset drops every binding and silences the output. Used when a different
// document is loaded into the session.
func (b *Binder) Reset() {
	if b.narration.bound {
		b.out.StopNarration()
	}
	if b.music.bound {
		b.out.StopMusic()
	}
	if b.playing {
		b.out.SetPlaying(false)
	}
	*b = Binder{out: b.out}
}

// NullOutput discards everything. It stands in when no UI is connected.
type NullOutput struct{}

func (NullOutput) SetPlaying(bool)                 {}
func (NullOutput) SetVisual(string)                {}
func (NullOutput) SetOverlay(string)               {}
func (NullOutput) SetCaption([]string)             {}
func (NullOutput) BindNarration(string, float64)   {}
func (NullOutput) SeekNarration(float64)           {}
func (NullOutput) StopNarration()                  {}
func (NullOutput) BindMusic(string, float64)       {}
func (NullOutput) StopMusic()                      {}

var _ Output = NullOutput{}

// LogOutput writes every device call to the debug log. Useful headless,
// where it doubles as a trace of what the UI would have received.
type LogOutput struct {
	Logger *slog.Logger
}

func (o LogOutput) SetPlaying(playing bool) {
	o.Logger.Debug("output transport", "playing", playing)
}

func (o LogOutput) SetVisual(ref string) {
	o.Logger.Debug("output visual", "ref", ref)
}

func (o LogOutput) SetOverlay(ref string) {
	o.Logger.Debug("output overlay", "ref", ref)
}

func (o LogOutput) SetCaption(lines []string) {
	o.Logger.Debug("output caption", "lines", len(lines))
}

func (o LogOutput) BindNarration(ref string, offset float64) {
	o.Logger.Debug("output narration bind", "ref", ref, "offset", offset)
}

func (o LogOutput) SeekNarration(offset float64) {
	o.Logger.Debug("output narration seek", "offset", offset)
}

func (o LogOutput) StopNarration() {
	o.Logger.Debug("output narration stop")
}

func (o LogOutput) BindMusic(ref string, offset float64) {
	o.Logger.Debug("output music bind", "ref", ref, "offset", offset)
}

func (o LogOutput) StopMusic() {
	o.Logger.Debug("output music stop")
}

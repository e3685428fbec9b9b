package playback

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// CaptionWrapWidth is how many columns the preview caption surface fits.
const CaptionWrapWidth = 36

// Frame is everything the preview surface needs at one playhead position.
// An empty ref means that slot is blank at this instant; a frame exists for
// every t, including positions past the end of the timeline.
type Frame struct {
	T            float64  `json:"t"`
	VisualRef    string   `json:"visual_ref,omitempty"`
	OverlayRef   string   `json:"overlay_ref,omitempty"`
	CaptionText  string   `json:"caption_text,omitempty"`
	CaptionLines []string `json:"caption_lines,omitempty"`
	AudioRef     string   `json:"audio_ref,omitempty"`
	AudioOffset  float64  `json:"audio_offset,omitempty"`
	MusicRef     string   `json:"music_ref,omitempty"`
	MusicOffset  float64  `json:"music_offset,omitempty"`
}

// AssetGate reports whether a content reference has local bytes ready to
// play. Refs that are still fetching, or that failed to fetch, resolve as
// blank slots rather than errors.
type AssetGate interface {
	Ready(ref string) bool
}

// openGate admits every ref. Used when no cache is wired, as in tests.
type openGate struct{}

func (openGate) Ready(string) bool { return true }

// Resolver computes the frame for any playhead position. Resolution never
// mutates the store and never fails; unresolvable slots stay blank.
type Resolver struct {
	store *timeline.Store
	gate  AssetGate
}

func NewResolver(store *timeline.Store, gate AssetGate) *Resolver {
	if gate == nil {
		gate = openGate{}
	}
	return &Resolver{store: store, gate: gate}
}

// ResolveFrame samples every role track at t.
func (r *Resolver) ResolveFrame(t float64) Frame {
	f := Frame{T: t}

	if c, ok := r.clipAt(timeline.RolePrimary, t); ok && r.gate.Ready(c.ContentRef) {
		f.VisualRef = c.ContentRef
	}
	if c, ok := r.clipAt(timeline.RoleWatermark, t); ok && r.gate.Ready(c.ContentRef) {
		f.OverlayRef = c.ContentRef
	}
	if c, ok := r.clipAt(timeline.RoleCaption, t); ok {
		f.CaptionText = captionText(c)
		f.CaptionLines = wrapCaption(f.CaptionText)
	}
	if c, ok := r.clipAt(timeline.RoleNarration, t); ok && r.gate.Ready(c.ContentRef) {
		f.AudioRef = c.ContentRef
		f.AudioOffset = t - c.Start
	}
	if c, ok := r.clipAt(timeline.RoleMusic, t); ok && r.gate.Ready(c.ContentRef) {
		f.MusicRef = c.ContentRef
		f.MusicOffset = t - c.Start
	}
	return f
}

func (r *Resolver) clipAt(role timeline.Role, t float64) (timeline.Clip, bool) {
	track, ok := r.store.TrackByRole(role)
	if !ok {
		return timeline.Clip{}, false
	}
	for _, c := range r.store.ListClips(track.ID) {
		if c.Contains(t) {
			return c, true
		}
	}
	return timeline.Clip{}, false
}

// captionText prefers the authored label; imported subtitle clips carry
// their text in the content ref.
func captionText(c timeline.Clip) string {
	if c.Label != "" {
		return c.Label
	}
	return c.ContentRef
}

func wrapCaption(text string) []string {
	if text == "" {
		return nil
	}
	wrapped := wordwrap.WrapString(text, CaptionWrapWidth)
	return strings.Split(wrapped, "\n")
}

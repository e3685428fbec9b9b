// Package timeline holds the canonical multi-track clip model for an edit:
// tracks, clips, the ordered clip store, the pure layout operations used by
// drag gestures, and the overlay-track synchronizer.
package timeline

import (
	"github.com/google/uuid"
)

// Kind constrains what content a clip carries and which tracks accept it.
type Kind string

const (
	KindVisual  Kind = "visual"
	KindAudio   Kind = "audio"
	KindCaption Kind = "caption"
)

// Role identifies the function of a track within the default editor layout.
// User-added tracks have no role.
type Role string

const (
	RoleWatermark Role = "watermark"
	RoleCaption   Role = "caption"
	RolePrimary   Role = "primary"
	RoleNarration Role = "narration"
	RoleMusic     Role = "music"
)

// Origin records how a clip entered the timeline. A defaults resync may only
// supersede clips it inserted itself.
const (
	OriginUser    = "user"
	OriginScene   = "scene"
	OriginDefault = "default"
)

// Clip is a timed placement of one piece of content on a track. Times are
// seconds. Duration is always positive for stored clips; transient gesture
// positions live in the edit session, never here.
type Clip struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"kind"`
	TrackID    string  `json:"track_id,omitempty"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	ContentRef string  `json:"content_ref"`
	Label      string  `json:"label,omitempty"`
	Origin     string  `json:"origin,omitempty"`
}

// End returns the exclusive end time of the clip's interval.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// Contains reports whether t falls inside [Start, End).
func (c Clip) Contains(t float64) bool {
	return t >= c.Start && t < c.End()
}

// Midpoint is the visual center of the clip, used by reorder drags.
func (c Clip) Midpoint() float64 {
	return c.Start + c.Duration/2
}

// Track is a named lane. Order is the display order; lower orders render
// below higher ones, so the watermark overlay sits last.
type Track struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Role  Role   `json:"role,omitempty"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// WholeTimeline reports whether the track is an overlay expected to span the
// entire timeline with a single clip.
func (t Track) WholeTimeline() bool {
	return t.Role == RoleWatermark || t.Role == RoleMusic
}

// NewID returns a fresh identifier for clips, tracks and projects.
func NewID() string {
	return uuid.NewString()
}

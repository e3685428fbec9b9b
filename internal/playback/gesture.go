package playback

// GestureKind names the interactive edit a pointer drag performs.
type GestureKind string

const (
	// GestureMove repositions a clip within its track; the drop slot is
	// chosen by midpoint comparison and the track repacks without gaps.
	GestureMove GestureKind = "move"

	// GestureResizeLeft drags a clip's leading edge, keeping its end fixed.
	GestureResizeLeft GestureKind = "resize-left"

	// GestureResizeRight drags a clip's trailing edge, keeping its start
	// fixed.
	GestureResizeRight GestureKind = "resize-right"

	// GestureScrub drags the playhead itself.
	GestureScrub GestureKind = "scrub"
)

func (k GestureKind) valid() bool {
	switch k {
	case GestureMove, GestureResizeLeft, GestureResizeRight, GestureScrub:
		return true
	}
	return false
}

// gesture is the single in-flight interaction. Updates only move the
// transient position; the clip store is written once, when the gesture
// ends. Cancelling therefore restores nothing.
type gesture struct {
	kind    GestureKind
	clipID  string
	trackID string
	pos     float64
	hasPos  bool
}

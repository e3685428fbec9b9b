package project

import (
	"fmt"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const defaultSceneDuration = 5.0

// Scene is one beat of a generated storyboard: a visual, an optional
// narration take and an optional caption, all sharing one time span.
type Scene struct {
	Ref      string  `json:"ref"`
	AudioRef string  `json:"audio_ref,omitempty"`
	Caption  string  `json:"caption,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// ExpandScenes lays a storyboard onto the scaffold tracks as scene-origin
// clips: primary footage back to back from zero, with narration and caption
// clips pinned to their scene's span. The result feeds the session's
// origin-scoped replace, so re-running a storyboard never disturbs clips
// the user placed by hand.
func ExpandScenes(tracks []timeline.Track, scenes []Scene) ([]timeline.Clip, error) {
	var primary, narration, caption timeline.Track
	var havePrimary, haveNarration, haveCaption bool
	for _, tr := range tracks {
		switch tr.Role {
		case timeline.RolePrimary:
			primary, havePrimary = tr, true
		case timeline.RoleNarration:
			narration, haveNarration = tr, true
		case timeline.RoleCaption:
			caption, haveCaption = tr, true
		}
	}
	if !havePrimary {
		return nil, fmt.Errorf("no primary track to expand scenes onto")
	}

	var clips []timeline.Clip
	cursor := 0.0
	for i, sc := range scenes {
		if sc.Ref == "" {
			return nil, fmt.Errorf("scene %d has no content ref", i)
		}
		d := sc.Duration
		if d <= 0 {
			d = defaultSceneDuration
		}
		if d < timeline.MinClipDuration {
			d = timeline.MinClipDuration
		}

		clips = append(clips, timeline.Clip{
			ID:         timeline.NewID(),
			Kind:       timeline.KindVisual,
			TrackID:    primary.ID,
			Start:      cursor,
			Duration:   d,
			ContentRef: sc.Ref,
			Label:      fmt.Sprintf("Scene %d", i+1),
			Origin:     timeline.OriginScene,
		})
		if sc.AudioRef != "" && haveNarration {
			clips = append(clips, timeline.Clip{
				ID:         timeline.NewID(),
				Kind:       timeline.KindAudio,
				TrackID:    narration.ID,
				Start:      cursor,
				Duration:   d,
				ContentRef: sc.AudioRef,
				Origin:     timeline.OriginScene,
			})
		}
		if sc.Caption != "" && haveCaption {
			clips = append(clips, timeline.Clip{
				ID:       timeline.NewID(),
				Kind:     timeline.KindCaption,
				TrackID:  caption.ID,
				Start:    cursor,
				Duration: d,
				Label:    sc.Caption,
				Origin:   timeline.OriginScene,
			})
		}
		cursor += d
	}
	return clips, nil
}

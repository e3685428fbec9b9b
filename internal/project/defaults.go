package project

import (
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Refs for the scaffold content a fresh project starts with. Overridable
// through config so a studio can ship its own watermark and bed music.
const (
	DefaultWatermarkRef = "builtin/watermark.png"
	DefaultMusicRef     = "builtin/theme.mp3"
)

const (
	defaultWatermarkDuration = 3.0
	defaultMusicDuration     = 5.0
)

// DefaultTracks returns the five-lane scaffold every project starts with,
// in render order: watermark on top, then captions, primary footage,
// narration and music.
func DefaultTracks() []timeline.Track {
	return []timeline.Track{
		{ID: timeline.NewID(), Kind: timeline.KindVisual, Role: timeline.RoleWatermark, Label: "Watermark", Order: 0},
		{ID: timeline.NewID(), Kind: timeline.KindCaption, Role: timeline.RoleCaption, Label: "Captions", Order: 1},
		{ID: timeline.NewID(), Kind: timeline.KindVisual, Role: timeline.RolePrimary, Label: "Video", Order: 2},
		{ID: timeline.NewID(), Kind: timeline.KindAudio, Role: timeline.RoleNarration, Label: "Narration", Order: 3},
		{ID: timeline.NewID(), Kind: timeline.KindAudio, Role: timeline.RoleMusic, Label: "Music", Order: 4},
	}
}

// DefaultClips seeds the whole-timeline overlays. The overlay synchronizer
// stretches both to the full edit on the first commit; until then their
// seed durations only matter for a project that is previewed before any
// footage lands.
func DefaultClips(tracks []timeline.Track, watermarkRef, musicRef string) []timeline.Clip {
	if watermarkRef == "" {
		watermarkRef = DefaultWatermarkRef
	}
	if musicRef == "" {
		musicRef = DefaultMusicRef
	}

	var clips []timeline.Clip
	for _, tr := range tracks {
		switch tr.Role {
		case timeline.RoleWatermark:
			clips = append(clips, timeline.Clip{
				ID:         timeline.NewID(),
				Kind:       timeline.KindVisual,
				TrackID:    tr.ID,
				Start:      0,
				Duration:   defaultWatermarkDuration,
				ContentRef: watermarkRef,
				Label:      "Watermark",
				Origin:     timeline.OriginDefault,
			})
		case timeline.RoleMusic:
			clips = append(clips, timeline.Clip{
				ID:         timeline.NewID(),
				Kind:       timeline.KindAudio,
				TrackID:    tr.ID,
				Start:      0,
				Duration:   defaultMusicDuration,
				ContentRef: musicRef,
				Label:      "Music",
				Origin:     timeline.OriginDefault,
			})
		}
	}
	return clips
}

// DefaultDocument builds the document a new project starts from.
func DefaultDocument(name, watermarkRef, musicRef string) Document {
	tracks := DefaultTracks()
	return Document{
		Version: DocumentVersion,
		Name:    name,
		Tracks:  tracks,
		Clips:   DefaultClips(tracks, watermarkRef, musicRef),
	}
}

package timeline

import (
	"sort"
)

// Store is the single source of truth for the active edit. It keeps clips
// ordered per track and enforces the storage boundary: clips with a
// non-positive duration or a negative start are rejected, not stored.
//
// The store is not safe for concurrent use. It is owned exclusively by the
// edit session, which serializes access.
type Store struct {
	tracks []Track
	clips  map[string]Clip
}

// NewStore creates an empty store with no tracks.
func NewStore() *Store {
	return &Store{clips: make(map[string]Clip)}
}

// AddTrack appends a user-created track of the given kind and returns it.
func (s *Store) AddTrack(kind Kind, label string) Track {
	return s.AddTrackWithRole(kind, "", label)
}

// AddTrackWithRole appends a track bound to a layout role. The default
// scaffold uses this to build the watermark/caption/primary/narration/music
// lanes.
func (s *Store) AddTrackWithRole(kind Kind, role Role, label string) Track {
	t := Track{
		ID:    NewID(),
		Kind:  kind,
		Role:  role,
		Label: label,
		Order: len(s.tracks),
	}
	s.tracks = append(s.tracks, t)
	return t
}

// RestoreTrack inserts a track verbatim, preserving its identifier and
// order. Used when loading a saved document.
func (s *Store) RestoreTrack(t Track) {
	s.tracks = append(s.tracks, t)
	sort.SliceStable(s.tracks, func(i, j int) bool {
		return s.tracks[i].Order < s.tracks[j].Order
	})
}

// Tracks returns all tracks in display order.
func (s *Store) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Track looks a track up by ID.
func (s *Store) Track(id string) (Track, bool) {
	for _, t := range s.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// TrackByRole returns the first track bound to the given role.
func (s *Store) TrackByRole(role Role) (Track, bool) {
	for _, t := range s.tracks {
		if t.Role == role {
			return t, true
		}
	}
	return Track{}, false
}

// ResolveTrack maps a clip to its owning track. Clips without an explicit
// track assignment fall back to the first track whose kind matches the
// clip's kind. Legacy documents predate track assignment, so this
// compatibility rule must hold for every lookup that touches them.
func (s *Store) ResolveTrack(c Clip) (Track, bool) {
	if c.TrackID != "" {
		return s.Track(c.TrackID)
	}
	for _, t := range s.tracks {
		if t.Kind == c.Kind {
			return t, true
		}
	}
	return Track{}, false
}

// Upsert inserts or replaces a clip. The clip's track is materialized via
// ResolveTrack so the legacy fallback is applied once, at write time. Returns
// false when the clip is illegal (non-positive duration, negative start, or
// no resolvable track); illegal clips are never stored.
func (s *Store) Upsert(c Clip) bool {
	if c.Duration <= 0 || c.Start < 0 {
		return false
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	track, ok := s.ResolveTrack(c)
	if !ok {
		return false
	}
	c.TrackID = track.ID
	s.clips[c.ID] = c
	return true
}

// Remove deletes a clip by ID, reporting whether it existed.
func (s *Store) Remove(id string) bool {
	if _, ok := s.clips[id]; !ok {
		return false
	}
	delete(s.clips, id)
	return true
}

// Clip looks a clip up by ID.
func (s *Store) Clip(id string) (Clip, bool) {
	c, ok := s.clips[id]
	return c, ok
}

// ListClips returns clips ordered by start time. With a track ID it returns
// that track's clips only; with an empty ID it returns every clip, grouped
// by track display order.
func (s *Store) ListClips(trackID string) []Clip {
	if trackID != "" {
		return s.trackClips(trackID)
	}
	var out []Clip
	for _, t := range s.tracks {
		out = append(out, s.trackClips(t.ID)...)
	}
	return out
}

func (s *Store) trackClips(trackID string) []Clip {
	var out []Clip
	for _, c := range s.clips {
		track, ok := s.ResolveTrack(c)
		if ok && track.ID == trackID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].ID < out[j].ID
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// ReplaceTrackClips swaps the full clip set of one track, keeping clips on
// other tracks untouched. Layout operations produce whole-track rewrites, so
// this is the commit path for gestures.
func (s *Store) ReplaceTrackClips(trackID string, clips []Clip) {
	for _, c := range s.trackClips(trackID) {
		delete(s.clips, c.ID)
	}
	for _, c := range clips {
		c.TrackID = trackID
		if c.Duration <= 0 || c.Start < 0 {
			continue
		}
		if c.ID == "" {
			c.ID = NewID()
		}
		s.clips[c.ID] = c
	}
}

// ClipCount reports the number of stored clips.
func (s *Store) ClipCount() int {
	return len(s.clips)
}

// TotalDuration is the derived length of the timeline: the maximum end time
// over clips on the primary visual track. Overlay tracks stretch to this
// value, never the reverse.
func (s *Store) TotalDuration() float64 {
	primary, ok := s.TrackByRole(RolePrimary)
	if !ok {
		return 0
	}
	var total float64
	for _, c := range s.trackClips(primary.ID) {
		if end := c.End(); end > total {
			total = end
		}
	}
	return total
}

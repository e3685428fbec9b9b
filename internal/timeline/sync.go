package timeline

// SyncOverlays reconciles every whole-timeline overlay track (watermark,
// background music) against the primary track's derived duration. Each
// overlay that holds content collapses to a single clip spanning the full
// timeline; the first clip's identity and content reference are kept so that
// running the pass twice without an intervening primary-track change is a
// no-op.
//
// One stretched clip is emitted rather than tiling finite copies; the
// playback layer loops or holds the underlying source, so no source-duration
// metadata is needed at layout time.
//
// Returns true when any overlay track changed.
func SyncOverlays(s *Store) bool {
	total := s.TotalDuration()
	changed := false

	for _, track := range s.Tracks() {
		if !track.WholeTimeline() {
			continue
		}
		clips := s.ListClips(track.ID)
		if len(clips) == 0 {
			continue
		}

		if total <= 0 {
			// A clip of zero duration cannot be stored, so an empty
			// timeline empties its overlays too.
			s.ReplaceTrackClips(track.ID, nil)
			changed = true
			continue
		}

		head := clips[0]
		if len(clips) == 1 && head.Start == 0 && head.Duration == total {
			continue
		}

		head.Start = 0
		head.Duration = total
		s.ReplaceTrackClips(track.ID, []Clip{head})
		changed = true
	}
	return changed
}

// Package playback drives the synchronized preview of a timeline: the
// playhead clock, pure frame resolution, output binding with audio phase
// alignment, and the mutex-guarded session that owns the editable state.
package playback

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Fallback clip lengths for drops that arrive without a duration hint and
// for refs the prober cannot measure.
const (
	DefaultVisualDuration  = 5.0
	DefaultAudioDuration   = 5.0
	DefaultCaptionDuration = 3.0
)

// DurationProbe measures the intrinsic duration of a content ref, when the
// bytes are local and a probe tool is available.
type DurationProbe interface {
	Duration(ref string) (float64, bool)
}

// DropPayload is what the UI hands over when the user drags new content
// onto a track.
type DropPayload struct {
	Kind         timeline.Kind `json:"kind"`
	ContentRef   string        `json:"content_ref"`
	Label        string        `json:"label,omitempty"`
	DurationHint float64       `json:"duration_hint,omitempty"`
}

// Status is the session state the UI polls.
type Status struct {
	State     State       `json:"state"`
	Position  float64     `json:"position"`
	Total     float64     `json:"total"`
	Selected  string      `json:"selected_clip_id,omitempty"`
	Gesture   GestureKind `json:"gesture,omitempty"`
	ClipCount int         `json:"clip_count"`
}

// Snapshot is a consistent copy of the session's editable state, used to
// build and restore the persisted document.
type Snapshot struct {
	Tracks   []timeline.Track
	Clips    []timeline.Clip
	Selected string
	Position float64
}

// Session owns one open project's live editing state: the clip store, the
// playback clock, the at-most-one in-flight gesture and the output binder.
// A single mutex serializes HTTP handlers against the tick loop; the last
// writer wins, matching a single-user editor.
type Session struct {
	mu       sync.Mutex
	store    *timeline.Store
	clock    *Clock
	resolver *Resolver
	binder   *Binder
	gate     AssetGate
	probe    DurationProbe
	active   *gesture
	selected string
	logger   *slog.Logger
	tickRate time.Duration
	lastTick time.Time
	running  atomic.Bool
	dirty    atomic.Bool
}

func NewSession(store *timeline.Store, gate AssetGate, out Output, logger *slog.Logger) *Session {
	return &Session{
		store:    store,
		clock:    NewClock(),
		resolver: NewResolver(store, gate),
		binder:   NewBinder(out),
		gate:     gate,
		logger:   logger,
		tickRate: time.Second / 30,
	}
}

// SetDurationProbe wires an optional prober used to size drops that carry
// no duration hint.
func (s *Session) SetDurationProbe(p DurationProbe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probe = p
}

// SetTickRate changes the run-loop interval. Rates above 60Hz are clamped.
func (s *Session) SetTickRate(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < time.Second/60 {
		d = time.Second / 60
	}
	s.tickRate = d
}

// Run drives the preview until ctx is cancelled: advance the clock by the
// elapsed wall time, resolve the frame at the new position and push it to
// the output. Idle ticks are cheap; the binder only forwards changes.
func (s *Session) Run(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}
	defer s.running.Store(false)

	s.mu.Lock()
	rate := s.tickRate
	s.lastTick = time.Now()
	s.mu.Unlock()

	s.logger.Info("session loop started", "tick", rate.String())

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session loop stopping")
			s.mu.Lock()
			s.clock.Pause()
			s.applyFrameLocked()
			s.mu.Unlock()
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Session) tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	playing := s.clock.State() == StatePlaying
	if playing {
		s.clock.Advance(dt)
	}
	f := s.resolver.ResolveFrame(s.clock.Position())
	if !playing {
		dt = 0
	}
	s.binder.Apply(f, s.clock.State() == StatePlaying, dt)
}

func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// applyFrameLocked resolves the current frame and pushes it at the output.
// State changes are instantaneous, so no playing wall time is credited; the
// tick loop is the only caller that does. Callers hold s.mu.
func (s *Session) applyFrameLocked() {
	f := s.resolver.ResolveFrame(s.clock.Position())
	s.binder.Apply(f, s.clock.State() == StatePlaying, 0)
}

// commitLocked runs the post-mutation reconciliation every committed edit
// shares: overlays re-stretch, the clock re-arms, the output sees the new
// frame, and the document is marked for autosave. Callers hold s.mu.
func (s *Session) commitLocked() {
	timeline.SyncOverlays(s.store)
	s.clock.SetTotal(s.store.TotalDuration())
	s.applyFrameLocked()
	s.dirty.Store(true)
}

// Dirty reports whether the editable state changed since the last save.
func (s *Session) Dirty() bool {
	return s.dirty.Load()
}

// ConsumeDirty atomically claims the pending change, so exactly one saver
// persists it.
func (s *Session) ConsumeDirty() bool {
	return s.dirty.Swap(false)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:     s.clock.State(),
		Position:  s.clock.Position(),
		Total:     s.clock.Total(),
		Selected:  s.selected,
		ClipCount: s.store.ClipCount(),
	}
	if s.active != nil {
		st.Gesture = s.active.kind
	}
	return st
}

// Frame resolves the frame at the current playhead position.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.ResolveFrame(s.clock.Position())
}

// FrameAt resolves the frame at an arbitrary position. Out-of-range times
// are clamped, never rejected; export sampling leans on this.
func (s *Session) FrameAt(t float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if total := s.clock.Total(); t > total {
		t = total
	}
	return s.resolver.ResolveFrame(t)
}

func (s *Session) Tracks() []timeline.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Tracks()
}

func (s *Session) Clips(trackID string) []timeline.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListClips(trackID)
}

func (s *Session) TotalDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.TotalDuration()
}

func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Play()
	s.lastTick = time.Now()
	s.applyFrameLocked()
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Pause()
	s.applyFrameLocked()
}

func (s *Session) TogglePlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Toggle()
	s.lastTick = time.Now()
	s.applyFrameLocked()
}

// Seek jumps the playhead. Legal in every transport state.
func (s *Session) Seek(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Seek(t)
	s.applyFrameLocked()
}

// SelectClip marks a clip as selected for the UI; an empty id clears the
// selection.
func (s *Session) SelectClip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.store.Clip(id); !ok {
			return ErrClipNotFound
		}
	}
	s.selected = id
	return nil
}

// BeginGesture opens an interactive gesture. Only one may be in flight;
// a second begin reports ErrGestureActive. Pointer gestures need an
// existing clip, a scrub needs none.
func (s *Session) BeginGesture(kind GestureKind, clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.valid() {
		return ErrInvalidGesture
	}
	if s.active != nil {
		return ErrGestureActive
	}

	g := &gesture{kind: kind, clipID: clipID}
	if kind == GestureScrub {
		s.clock.BeginScrub()
	} else {
		c, ok := s.store.Clip(clipID)
		if !ok {
			return ErrClipNotFound
		}
		g.trackID = c.TrackID
	}
	s.active = g
	s.logger.Debug("gesture begin", "kind", string(kind), "clip_id", clipID)
	return nil
}

// UpdateGesture records the latest pointer position. Scrubs move the
// playhead immediately; edit gestures stay transient until the gesture
// ends, so the store never holds an in-progress position.
func (s *Session) UpdateGesture(pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoGesture
	}
	s.active.pos = pos
	s.active.hasPos = true
	if s.active.kind == GestureScrub {
		s.clock.Seek(pos)
		s.applyFrameLocked()
	}
	return nil
}

// EndGesture commits the gesture through the layout engine. A gesture that
// never moved, or whose resize could not be satisfied, ends without
// touching the store.
func (s *Session) EndGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.active
	if g == nil {
		return ErrNoGesture
	}
	s.active = nil

	if g.kind == GestureScrub {
		s.clock.EndScrub()
		s.applyFrameLocked()
		return nil
	}
	if !g.hasPos {
		return nil
	}

	clips := s.store.ListClips(g.trackID)
	var (
		next    []timeline.Clip
		changed bool
	)
	switch g.kind {
	case GestureMove:
		next = timeline.ReorderAt(clips, g.clipID, g.pos)
		changed = true
	case GestureResizeLeft:
		next, changed = timeline.ResizeLeft(clips, g.clipID, g.pos)
	case GestureResizeRight:
		c, ok := s.store.Clip(g.clipID)
		if !ok {
			return ErrClipNotFound
		}
		next, changed = timeline.ResizeRight(clips, g.clipID, g.pos-c.Start, s.store.TotalDuration())
	}
	if !changed {
		s.logger.Debug("gesture rejected", "kind", string(g.kind), "clip_id", g.clipID)
		return nil
	}

	s.store.ReplaceTrackClips(g.trackID, next)
	s.commitLocked()
	s.logger.Debug("gesture committed", "kind", string(g.kind), "clip_id", g.clipID, "pos", g.pos)
	return nil
}

// CancelGesture abandons the gesture. The store was never written, so
// there is nothing to roll back.
func (s *Session) CancelGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoGesture
	}
	if s.active.kind == GestureScrub {
		s.clock.EndScrub()
	}
	s.logger.Debug("gesture cancelled", "kind", string(s.active.kind))
	s.active = nil
	return nil
}

// DropClip inserts new content at a point in time, rippling followers out
// of the way. An empty trackID binds by kind, the same fallback legacy
// documents use.
func (s *Session) DropClip(trackID string, at float64, p DropPayload) (timeline.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return timeline.Clip{}, ErrGestureActive
	}
	if p.ContentRef == "" && p.Label == "" {
		return timeline.Clip{}, ErrInvalidDrop
	}

	track, err := s.dropTargetLocked(trackID, p.Kind)
	if err != nil {
		return timeline.Clip{}, err
	}

	c := timeline.Clip{
		ID:         timeline.NewID(),
		Kind:       p.Kind,
		TrackID:    track.ID,
		Duration:   s.dropDurationLocked(p),
		ContentRef: p.ContentRef,
		Label:      p.Label,
		Origin:     timeline.OriginUser,
	}

	next := timeline.RippleInsert(s.store.ListClips(track.ID), c, at)
	s.store.ReplaceTrackClips(track.ID, next)
	s.commitLocked()

	placed, ok := s.store.Clip(c.ID)
	if !ok {
		// The overlay resync may have absorbed the drop into an existing
		// whole-timeline clip; report that clip instead.
		if head := s.store.ListClips(track.ID); len(head) > 0 {
			placed = head[0]
		}
	}
	s.logger.Debug("clip dropped", "clip_id", placed.ID, "track_id", track.ID, "start", placed.Start, "duration", placed.Duration)
	return placed, nil
}

func (s *Session) dropTargetLocked(trackID string, kind timeline.Kind) (timeline.Track, error) {
	switch kind {
	case timeline.KindVisual, timeline.KindAudio, timeline.KindCaption:
	default:
		return timeline.Track{}, ErrInvalidDrop
	}
	if trackID != "" {
		track, ok := s.store.Track(trackID)
		if !ok {
			return timeline.Track{}, ErrTrackNotFound
		}
		if track.Kind != kind {
			return timeline.Track{}, ErrInvalidDrop
		}
		return track, nil
	}
	track, ok := s.store.ResolveTrack(timeline.Clip{Kind: kind})
	if !ok {
		return timeline.Track{}, ErrTrackNotFound
	}
	return track, nil
}

// dropDurationLocked sizes a drop: the UI's hint wins, then a local probe
// of the content, then the per-kind default.
func (s *Session) dropDurationLocked(p DropPayload) float64 {
	d := p.DurationHint
	if d <= 0 && s.probe != nil && p.ContentRef != "" {
		if probed, ok := s.probe.Duration(p.ContentRef); ok {
			d = probed
		}
	}
	if d <= 0 {
		switch p.Kind {
		case timeline.KindAudio:
			d = DefaultAudioDuration
		case timeline.KindCaption:
			d = DefaultCaptionDuration
		default:
			d = DefaultVisualDuration
		}
	}
	if d < timeline.MinClipDuration {
		d = timeline.MinClipDuration
	}
	return d
}

// DeleteClip removes a clip. Deleting the last primary clip collapses the
// derived duration to zero, which empties the overlay tracks too.
func (s *Session) DeleteClip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return ErrGestureActive
	}
	if !s.store.Remove(id) {
		return ErrClipNotFound
	}
	if s.selected == id {
		s.selected = ""
	}
	s.commitLocked()
	s.logger.Debug("clip deleted", "clip_id", id)
	return nil
}

// ReplaceContent swaps what a clip plays without moving it.
func (s *Session) ReplaceContent(id, contentRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return ErrGestureActive
	}
	c, ok := s.store.Clip(id)
	if !ok {
		return ErrClipNotFound
	}
	c.ContentRef = contentRef
	s.store.Upsert(c)
	s.commitLocked()
	s.logger.Debug("clip content replaced", "clip_id", id)
	return nil
}

// AddTrack appends a user track below the existing ones.
func (s *Session) AddTrack(kind timeline.Kind, label string) (timeline.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return timeline.Track{}, ErrGestureActive
	}
	switch kind {
	case timeline.KindVisual, timeline.KindAudio, timeline.KindCaption:
	default:
		return timeline.Track{}, ErrInvalidTrackKind
	}
	track := s.store.AddTrack(kind, label)
	s.dirty.Store(true)
	s.logger.Debug("track added", "track_id", track.ID, "kind", string(kind))
	return track, nil
}

// ReplaceOriginClips swaps every clip of one origin for a new set, leaving
// other clips alone. Scene expansion and defaults resync build on this:
// they may supersede what they inserted, never what the user placed.
func (s *Session) ReplaceOriginClips(origin string, clips []timeline.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return ErrGestureActive
	}
	for _, c := range s.store.ListClips("") {
		if c.Origin == origin {
			s.store.Remove(c.ID)
		}
	}

	// Ripple the replacements in per track so they can never overlap
	// clips of other origins that stay behind.
	byTrack := map[string][]timeline.Clip{}
	for _, c := range clips {
		c.Origin = origin
		track, ok := s.store.ResolveTrack(c)
		if !ok {
			s.logger.Warn("dropping clip with no matching track", "clip_id", c.ID, "kind", string(c.Kind))
			continue
		}
		c.TrackID = track.ID
		byTrack[track.ID] = append(byTrack[track.ID], c)
	}
	for trackID, incoming := range byTrack {
		sort.Slice(incoming, func(i, j int) bool { return incoming[i].Start < incoming[j].Start })
		merged := s.store.ListClips(trackID)
		for _, c := range incoming {
			merged = timeline.RippleInsert(merged, c, c.Start)
		}
		s.store.ReplaceTrackClips(trackID, merged)
	}

	s.commitLocked()
	s.logger.Debug("origin clips replaced", "origin", origin, "count", len(clips))
	return nil
}

// Snapshot copies the state that belongs in the persisted document.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Tracks:   s.store.Tracks(),
		Clips:    s.store.ListClips(""),
		Selected: s.selected,
		Position: s.clock.Position(),
	}
}

// Restore replaces the session's editable state with a document's. The
// restore is verbatim: clips come back exactly as saved, including refs
// whose assets are not local yet. The restored state counts as clean.
func (s *Session) Restore(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return ErrGestureActive
	}

	st := timeline.NewStore()
	for _, tr := range snap.Tracks {
		st.RestoreTrack(tr)
	}
	for _, c := range snap.Clips {
		st.Upsert(c)
	}
	s.store = st
	s.resolver = NewResolver(st, s.gate)
	s.binder.Reset()
	s.selected = snap.Selected
	s.clock.SetTotal(st.TotalDuration())
	s.clock.Seek(snap.Position)
	s.clock.Pause()
	s.applyFrameLocked()
	s.dirty.Store(false)
	s.logger.Info("session restored", "tracks", len(snap.Tracks), "clips", len(snap.Clips))
	return nil
}

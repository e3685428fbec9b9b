package timeline

import (
	"sort"
)

// Layout constants, in seconds.
const (
	// MinClipDuration is the floor for left-edge trims and co-adjusted
	// neighbors.
	MinClipDuration = 0.5

	// MinTrimDuration is the floor for right-edge trims.
	MinTrimDuration = 1.0

	// EdgeSnapTolerance is the largest gap at which two clips count as
	// edge-connected during a left-edge trim.
	EdgeSnapTolerance = 0.05
)

// The layout functions are pure: they take one track's clips, compute a new
// arrangement and return it without touching the store. The session commits
// the result only when a gesture ends, which is what keeps the no-overlap
// invariant intact outside of an in-progress drag.

// RippleInsert places c on a track at drop position at and returns the new
// clip set. If an existing clip's interval contains the drop position, the
// new clip snaps to that clip's start rather than splitting it. Every clip
// starting at or after the resolved insertion point shifts later by the new
// clip's duration, preserving order and relative gaps.
func RippleInsert(existing []Clip, c Clip, at float64) []Clip {
	clips := sortedByStart(existing)

	if len(clips) == 0 {
		c.Start = 0
		return []Clip{c}
	}

	start := at
	if start < 0 {
		start = 0
	}
	if blocking, ok := clipAt(clips, start); ok {
		start = blocking.Start
	}

	out := make([]Clip, 0, len(clips)+1)
	for _, cur := range clips {
		if cur.Start >= start {
			cur.Start += c.Duration
		}
		out = append(out, cur)
	}
	c.Start = start
	out = append(out, c)
	return sortedByStart(out)
}

// ResizeRight trims or extends a clip's trailing edge. Only the duration
// changes. The new duration is clamped to keep the clip clear of its
// successor (or of the timeline end when it is the last clip) and to at
// least MinTrimDuration. When the successor sits closer than the floor the
// request cannot be honored and the clips are returned unchanged.
func ResizeRight(existing []Clip, id string, want float64, totalDuration float64) ([]Clip, bool) {
	clips := sortedByStart(existing)
	idx := indexOf(clips, id)
	if idx < 0 {
		return clips, false
	}
	cur := clips[idx]

	limit := totalDuration - cur.Start
	if idx+1 < len(clips) {
		limit = clips[idx+1].Start - cur.Start
	}
	if limit < MinTrimDuration {
		return clips, false
	}

	if want > limit {
		want = limit
	}
	if want < MinTrimDuration {
		want = MinTrimDuration
	}

	clips[idx].Duration = want
	return clips, true
}

// ResizeLeft trims a clip's leading edge while holding its end time fixed.
//
// When the clip is edge-connected to its predecessor (gap below
// EdgeSnapTolerance) the predecessor's duration is co-adjusted so the two
// stay contiguous, growing or shrinking with the drag. The predecessor never
// drops below MinClipDuration; a request that would do so falls back to the
// unconnected path, where the new start is clamped to the nearest preceding
// clip end and the duration recomputed from the fixed end time, floored at
// MinClipDuration.
func ResizeLeft(existing []Clip, id string, wantStart float64) ([]Clip, bool) {
	clips := sortedByStart(existing)
	idx := indexOf(clips, id)
	if idx < 0 {
		return clips, false
	}
	cur := clips[idx]
	end := cur.End()

	start := wantStart
	if start < 0 {
		start = 0
	}
	if start > end-MinClipDuration {
		start = end - MinClipDuration
	}

	if idx > 0 {
		prev := clips[idx-1]
		connected := cur.Start-prev.End() < EdgeSnapTolerance
		if connected && start >= prev.Start+MinClipDuration {
			clips[idx-1].Duration = start - prev.Start
			clips[idx].Start = start
			clips[idx].Duration = end - start
			return clips, true
		}
	}

	if floor, ok := precedingEnd(clips, idx); ok && start < floor {
		start = floor
	}
	if start > end-MinClipDuration {
		start = end - MinClipDuration
	}
	clips[idx].Start = start
	clips[idx].Duration = end - start
	return clips, true
}

// ReorderAt moves a clip within its track to the position under the drag and
// repacks the whole track contiguously from zero. The target slot is found
// by comparing the drag position against each other clip's midpoint, the
// same test insertion uses. Reordering intentionally discards gaps; free
// insertion is the operation that preserves them.
func ReorderAt(existing []Clip, id string, dragPos float64) []Clip {
	clips := sortedByStart(existing)
	idx := indexOf(clips, id)
	if idx < 0 {
		return clips
	}
	moved := clips[idx]
	rest := append(clips[:idx:idx], clips[idx+1:]...)

	slot := 0
	for _, c := range rest {
		if dragPos > c.Midpoint() {
			slot++
		}
	}

	ordered := make([]Clip, 0, len(clips))
	ordered = append(ordered, rest[:slot]...)
	ordered = append(ordered, moved)
	ordered = append(ordered, rest[slot:]...)
	return Pack(ordered)
}

// Pack rewrites clips back to back in the given order, the first starting at
// zero.
func Pack(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	var cursor float64
	for i, c := range clips {
		c.Start = cursor
		cursor += c.Duration
		out[i] = c
	}
	return out
}

func sortedByStart(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	copy(out, clips)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].ID < out[j].ID
		}
		return out[i].Start < out[j].Start
	})
	return out
}

func clipAt(clips []Clip, t float64) (Clip, bool) {
	for _, c := range clips {
		if c.Contains(t) {
			return c, true
		}
	}
	return Clip{}, false
}

func indexOf(clips []Clip, id string) int {
	for i, c := range clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// precedingEnd returns the latest end time among clips before idx.
func precedingEnd(clips []Clip, idx int) (float64, bool) {
	var end float64
	found := false
	for i := 0; i < idx; i++ {
		if e := clips[i].End(); e > end || !found {
			end = e
			found = true
		}
	}
	return end, found
}

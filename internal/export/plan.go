package export

import (
	"sort"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Plan is the JSON render plan: the timeline flattened into contiguous
// segments, each carrying the resolved frame that holds for its whole span.
type Plan struct {
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Segments []PlanSegment `json:"segments"`
}

// PlanSegment covers [Start, End). Frame is sampled at the segment midpoint;
// by construction no clip boundary falls inside the span, so the sample holds
// everywhere within it.
type PlanSegment struct {
	Start float64        `json:"start"`
	End   float64        `json:"end"`
	Frame playback.Frame `json:"frame"`
}

const boundaryEpsilon = 1e-6

// BuildPlan flattens a track/clip snapshot into segments. Segment edges are
// the clip starts and ends across every track, so each segment resolves to a
// single frame. progress, when non-nil, is called after each segment with
// (done, total).
func BuildPlan(title string, tracks []timeline.Track, clips []timeline.Clip, progress func(done, total int)) Plan {
	store := timeline.NewStore()
	for _, t := range tracks {
		store.RestoreTrack(t)
	}
	for _, c := range clips {
		store.Upsert(c)
	}

	plan := Plan{Title: title, Duration: store.TotalDuration()}

	bounds := segmentBounds(store)
	if len(bounds) < 2 {
		if progress != nil {
			progress(0, 0)
		}
		return plan
	}

	resolver := playback.NewResolver(store, nil)
	total := len(bounds) - 1
	for i := 0; i < total; i++ {
		start, end := bounds[i], bounds[i+1]
		mid := start + (end-start)/2
		plan.Segments = append(plan.Segments, PlanSegment{
			Start: start,
			End:   end,
			Frame: resolver.ResolveFrame(mid),
		})
		if progress != nil {
			progress(i+1, total)
		}
	}
	return plan
}

// segmentBounds collects every clip edge on every track, deduplicated and
// sorted, with zero prepended so the plan starts at the head of the timeline.
func segmentBounds(store *timeline.Store) []float64 {
	var edges []float64
	for _, t := range store.Tracks() {
		for _, c := range store.ListClips(t.ID) {
			edges = append(edges, c.Start, c.End())
		}
	}
	if len(edges) == 0 {
		return nil
	}
	edges = append(edges, 0)
	sort.Float64s(edges)

	bounds := edges[:1]
	for _, e := range edges[1:] {
		if e-bounds[len(bounds)-1] > boundaryEpsilon {
			bounds = append(bounds, e)
		}
	}
	return bounds
}

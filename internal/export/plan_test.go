package export

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func planFixture() ([]timeline.Track, []timeline.Clip) {
	tracks := []timeline.Track{
		{ID: "t-cap", Kind: timeline.KindCaption, Role: timeline.RoleCaption, Label: "Captions", Order: 1},
		{ID: "t-pri", Kind: timeline.KindVisual, Role: timeline.RolePrimary, Label: "Video", Order: 2},
		{ID: "t-nar", Kind: timeline.KindAudio, Role: timeline.RoleNarration, Label: "Narration", Order: 3},
	}
	clips := []timeline.Clip{
		{ID: "c-1", Kind: timeline.KindVisual, TrackID: "t-pri", Start: 0, Duration: 4, ContentRef: "media/a.mp4", Label: "Scene 1"},
		{ID: "c-2", Kind: timeline.KindVisual, TrackID: "t-pri", Start: 4, Duration: 4, ContentRef: "media/b.mp4", Label: "Scene 2"},
		{ID: "c-3", Kind: timeline.KindCaption, TrackID: "t-cap", Start: 0, Duration: 4, Label: "Hello world"},
		{ID: "c-4", Kind: timeline.KindAudio, TrackID: "t-nar", Start: 2, Duration: 4, ContentRef: "media/vo.wav"},
	}
	return tracks, clips
}

func TestBuildPlan_SegmentsSplitAtEveryClipEdge(t *testing.T) {
	tracks, clips := planFixture()

	plan := BuildPlan("Launch Cut", tracks, clips, nil)

	if plan.Duration != 8 {
		t.Fatalf("duration = %v, want 8", plan.Duration)
	}
	if len(plan.Segments) != 4 {
		t.Fatalf("segment count = %d, want 4", len(plan.Segments))
	}

	wantBounds := [][2]float64{{0, 2}, {2, 4}, {4, 6}, {6, 8}}
	for i, seg := range plan.Segments {
		if seg.Start != wantBounds[i][0] || seg.End != wantBounds[i][1] {
			t.Fatalf("segment %d spans [%v, %v), want [%v, %v)", i, seg.Start, seg.End, wantBounds[i][0], wantBounds[i][1])
		}
	}

	if got := plan.Segments[0].Frame.VisualRef; got != "media/a.mp4" {
		t.Fatalf("segment 0 visual = %q, want media/a.mp4", got)
	}
	if got := plan.Segments[0].Frame.AudioRef; got != "" {
		t.Fatalf("segment 0 should have no narration, got %q", got)
	}
	if got := plan.Segments[1].Frame.AudioOffset; got != 1 {
		t.Fatalf("segment 1 narration offset = %v, want 1 (sampled mid-clip)", got)
	}
	if got := plan.Segments[2].Frame.CaptionText; got != "" {
		t.Fatalf("caption ends at 4, segment 2 should be blank, got %q", got)
	}
	if got := plan.Segments[3].Frame.VisualRef; got != "media/b.mp4" {
		t.Fatalf("segment 3 visual = %q, want media/b.mp4", got)
	}
}

func TestBuildPlan_ReportsProgressPerSegment(t *testing.T) {
	tracks, clips := planFixture()

	var calls [][2]int
	BuildPlan("Launch Cut", tracks, clips, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})

	if len(calls) != 4 {
		t.Fatalf("progress called %d times, want 4", len(calls))
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 4 {
			t.Fatalf("progress call %d = (%d, %d), want (%d, 4)", i, c[0], c[1], i+1)
		}
	}
}

func TestBuildPlan_EmptyTimeline(t *testing.T) {
	plan := BuildPlan("Empty", nil, nil, nil)
	if plan.Duration != 0 || len(plan.Segments) != 0 {
		t.Fatalf("empty timeline should yield an empty plan, got %+v", plan)
	}
}

func TestBuildPlan_GoldenJSON(t *testing.T) {
	tracks, clips := planFixture()

	plan := BuildPlan("Launch Cut", tracks, clips, nil)
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "render_plan", data)
}

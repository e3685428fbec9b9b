package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const (
	FormatEDL  = "edl"
	FormatSRT  = "srt"
	FormatPlan = "plan"
)

// ErrNothingToExport means the timeline holds no clips the chosen format
// can render.
var ErrNothingToExport = errors.New("nothing to export")

// DefaultFrameRate is assumed when a request does not specify one.
const DefaultFrameRate = 30.0

// Formats lists the supported export formats.
func Formats() []string {
	return []string{FormatEDL, FormatSRT, FormatPlan}
}

// ValidFormat reports whether format names a supported export format.
func ValidFormat(format string) bool {
	switch format {
	case FormatEDL, FormatSRT, FormatPlan:
		return true
	default:
		return false
	}
}

// Request carries one export run: a timeline snapshot plus where and how to
// write it.
type Request struct {
	Title     string
	Format    string
	FrameRate float64
	OutputDir string
	Tracks    []timeline.Track
	Clips     []timeline.Clip

	// Progress, when non-nil, receives (done, total) updates. Only the plan
	// format reports intermediate progress; the text formats complete in one
	// step.
	Progress func(done, total int)
}

// Result describes a finished export.
type Result struct {
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ItemCount  int    `json:"item_count"`
}

// Run validates the request, renders the chosen format and writes it under
// the output directory. The file name is the sanitized title plus a format
// extension.
func Run(req Request) (*Result, error) {
	if !ValidFormat(req.Format) {
		return nil, fmt.Errorf("unsupported export format %q", req.Format)
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}

	title := ExportBaseName(req.Title)
	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	var (
		content []byte
		ext     string
		items   int
	)
	switch req.Format {
	case FormatEDL:
		byRole := roleClips(req.Tracks, req.Clips)
		visual := byRole[timeline.RolePrimary]
		narration := byRole[timeline.RoleNarration]
		if len(visual)+len(narration) == 0 {
			return nil, fmt.Errorf("%w: no visual or narration clips", ErrNothingToExport)
		}
		content = []byte(GenerateEDL(title, frameRate, visual, narration))
		ext = ".edl"
		items = len(visual) + len(narration)

	case FormatSRT:
		captions := captionEntries(roleClips(req.Tracks, req.Clips)[timeline.RoleCaption])
		if len(captions) == 0 {
			return nil, fmt.Errorf("%w: no caption clips", ErrNothingToExport)
		}
		content = []byte(GenerateSRT(captions))
		ext = ".srt"
		items = len(captions)

	case FormatPlan:
		plan := BuildPlan(title, req.Tracks, req.Clips, req.Progress)
		if len(plan.Segments) == 0 {
			return nil, fmt.Errorf("%w: timeline has no clips", ErrNothingToExport)
		}
		encoded, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode render plan: %w", err)
		}
		content = encoded
		ext = ".plan.json"
		items = len(plan.Segments)
	}

	outputPath := filepath.Join(req.OutputDir, title+ext)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write export file: %w", err)
	}

	if req.Progress != nil {
		req.Progress(items, items)
	}
	return &Result{Format: req.Format, OutputPath: outputPath, ItemCount: items}, nil
}

// roleClips groups a snapshot's clips by the role of the track each one
// resolves to. Clips that resolve to no track are dropped, matching how the
// preview treats them.
func roleClips(tracks []timeline.Track, clips []timeline.Clip) map[timeline.Role][]timeline.Clip {
	store := timeline.NewStore()
	for _, t := range tracks {
		store.RestoreTrack(t)
	}
	for _, c := range clips {
		store.Upsert(c)
	}

	out := make(map[timeline.Role][]timeline.Clip)
	for _, t := range store.Tracks() {
		cs := store.ListClips(t.ID)
		if len(cs) > 0 {
			out[t.Role] = append(out[t.Role], cs...)
		}
	}
	return out
}

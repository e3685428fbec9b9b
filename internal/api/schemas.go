package api

import (
	"time"

	"github.com/cutroom/cutroom-agent/internal/assets"
	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string               `json:"state"`
	Position       float64              `json:"position"`
	Duration       float64              `json:"duration"`
	ClipCount      int                  `json:"clip_count"`
	SelectedClipID string               `json:"selected_clip_id,omitempty"`
	Gesture        string               `json:"gesture,omitempty"`
	Project        *ProjectInfo         `json:"project,omitempty"`
	Assets         AssetsStatusResponse `json:"assets"`
	Tools          *ToolsResponse       `json:"tools,omitempty"`
	LastError      string               `json:"last_error,omitempty"`
}

type ProjectInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AssetsStatusResponse struct {
	Ready    int  `json:"ready"`
	Pending  int  `json:"pending"`
	Failed   int  `json:"failed"`
	QueueLen int  `json:"queue_len"`
	Paused   bool `json:"paused"`
}

type ToolsResponse struct {
	FFprobe     bool   `json:"ffprobe"`
	FFmpeg      bool   `json:"ffmpeg"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
}

// TimelineResponse is the whole editable surface in one fetch: every track,
// every clip, and the derived duration.
type TimelineResponse struct {
	Tracks   []timeline.Track `json:"tracks"`
	Clips    []timeline.Clip  `json:"clips"`
	Duration float64          `json:"duration"`
	Position float64          `json:"position"`
}

type AddTrackRequest struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

type DropClipRequest struct {
	TrackID      string  `json:"track_id,omitempty"`
	At           float64 `json:"at"`
	Kind         string  `json:"kind"`
	ContentRef   string  `json:"content_ref,omitempty"`
	Label        string  `json:"label,omitempty"`
	DurationHint float64 `json:"duration_hint,omitempty"`
}

type ReplaceContentRequest struct {
	ContentRef string `json:"content_ref"`
}

type SelectRequest struct {
	ClipID string `json:"clip_id"`
}

type SeekRequest struct {
	T float64 `json:"t"`
}

type GestureBeginRequest struct {
	Kind   string `json:"kind"`
	ClipID string `json:"clip_id,omitempty"`
}

type GestureUpdateRequest struct {
	Pos float64 `json:"pos"`
}

type CreateProjectRequest struct {
	Name string `json:"name,omitempty"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Open      bool   `json:"open"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// ProjectDetailResponse includes the stored document, which the list
// endpoint deliberately omits.
type ProjectDetailResponse struct {
	ProjectResponse
	Document project.Document `json:"document"`
}

type ScenesRequest struct {
	Scenes []project.Scene `json:"scenes"`
}

type ScenesResponse struct {
	Clips []timeline.Clip `json:"clips"`
}

type CreateExportRequest struct {
	Format    string  `json:"format"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	OutputDir string  `json:"output_dir"`
}

type ExportResponse struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Format     string `json:"format"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	ItemCount  int    `json:"item_count,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type AssetsResponse struct {
	Assets   []assets.Entry `json:"assets"`
	QueueLen int            `json:"queue_len"`
	Paused   bool           `json:"paused"`
}

type PrefetchRequest struct {
	Refs []string `json:"refs"`
}

type PrefetchResponse struct {
	Queued int `json:"queued"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project, openID string) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Open:      p.ID == openID,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func ExportToResponse(e *project.Export) ExportResponse {
	return ExportResponse{
		ID:         e.ID,
		ProjectID:  e.ProjectID,
		Format:     e.Format,
		Status:     e.Status,
		Progress:   e.Progress,
		OutputPath: e.OutputPath,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

func StatusToResponse(st playback.Status) StatusResponse {
	return StatusResponse{
		State:          string(st.State),
		Position:       st.Position,
		Duration:       st.Total,
		ClipCount:      st.ClipCount,
		SelectedClipID: st.Selected,
		Gesture:        string(st.Gesture),
	}
}

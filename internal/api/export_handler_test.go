package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// openProjectWithClip creates and opens a project, then drops one visual
// onto the opened document's primary lane. Opening restores the saved
// document, so the drop has to come after.
func openProjectWithClip(t *testing.T, cfg ServerConfig) *project.Project {
	t.Helper()
	ctx := context.Background()

	p, err := cfg.Projects.Create(ctx, "Launch Cut")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := cfg.Projects.Open(ctx, p.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var primaryID string
	for _, tr := range cfg.Session.Tracks() {
		if tr.Role == timeline.RolePrimary {
			primaryID = tr.ID
		}
	}
	if primaryID == "" {
		t.Fatal("opened document has no primary track")
	}

	_, err = cfg.Session.DropClip(primaryID, 0, playback.DropPayload{
		Kind: timeline.KindVisual, ContentRef: "v1.mp4", DurationHint: 4,
	})
	if err != nil {
		t.Fatalf("DropClip() error = %v", err)
	}
	return p
}

func TestCreateExportHandler_WritesEDL(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	p := openProjectWithClip(t, cfg)
	dir := t.TempDir()

	req := authedRequest(http.MethodPost, "/exports", jsonBodyf(`{"format":"edl","output_dir":%q}`, dir))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != "completed" {
		t.Errorf("status = %v, want completed", body["status"])
	}
	if body["progress"] != float64(100) {
		t.Errorf("progress = %v, want 100", body["progress"])
	}
	if body["item_count"] != float64(1) {
		t.Errorf("item_count = %v, want 1", body["item_count"])
	}
	if body["project_id"] != p.ID {
		t.Errorf("project_id = %v, want %v", body["project_id"], p.ID)
	}

	outputPath, _ := body["output_path"].(string)
	if !strings.HasPrefix(outputPath, dir) {
		t.Fatalf("output_path = %q, want a file under %q", outputPath, dir)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	// The persisted record caught up with the run.
	id, _ := body["id"].(string)
	rec, err := cfg.Repository.GetExport(context.Background(), id)
	if err != nil || rec == nil {
		t.Fatalf("GetExport() = %v, %v", rec, err)
	}
	if rec.Status != project.ExportStatusCompleted || rec.OutputPath != outputPath {
		t.Errorf("record = %s %q, want completed %q", rec.Status, rec.OutputPath, outputPath)
	}
}

func TestCreateExportHandler_FormatCaseInsensitive(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	openProjectWithClip(t, cfg)
	dir := t.TempDir()

	req := authedRequest(http.MethodPost, "/exports", jsonBodyf(`{"format":"EDL","output_dir":%q}`, dir))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["format"] != "edl" {
		t.Errorf("format = %v, want normalized edl", body["format"])
	}
}

func TestCreateExportHandler_NothingToExport(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	ctx := context.Background()

	// A fresh document has only the builtin watermark and theme, neither
	// of which lands in an EDL.
	p, err := cfg.Projects.Create(ctx, "Empty")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := cfg.Projects.Open(ctx, p.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	req := authedRequest(http.MethodPost, "/exports", jsonBodyf(`{"format":"edl","output_dir":%q}`, t.TempDir()))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "NOTHING_TO_EXPORT" {
		t.Errorf("error code = %v, want NOTHING_TO_EXPORT", body["code"])
	}

	recs, err := cfg.Repository.ListExports(ctx, "", 10)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListExports() = %v, %v, want one record", recs, err)
	}
	if recs[0].Status != project.ExportStatusFailed {
		t.Errorf("record status = %s, want failed", recs[0].Status)
	}
	if recs[0].Error == "" {
		t.Error("failed record should carry the error message")
	}
}

func TestCreateExportHandler_BadFormat(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/exports", jsonBodyf(`{"format":"gif","output_dir":%q}`, t.TempDir()))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	body := decodeJSONBody(t, rr)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "edl") {
		t.Errorf("error = %q, want the supported formats listed", msg)
	}
}

func TestCreateExportHandler_NoProject(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/exports", jsonBodyf(`{"format":"edl","output_dir":%q}`, t.TempDir()))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "NO_PROJECT" {
		t.Errorf("error code = %v, want NO_PROJECT", body["code"])
	}
}

func TestCreateExportHandler_MissingOutputDir(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/exports", jsonBody(`{"format":"edl"}`))
	rr := httptest.NewRecorder()

	createExportHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListExportsHandler(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, e := range []*project.Export{
		{ID: "exp-1", ProjectID: "p-1", Format: "edl", Status: project.ExportStatusCompleted, CreatedAt: now, UpdatedAt: now},
		{ID: "exp-2", ProjectID: "p-2", Format: "srt", Status: project.ExportStatusFailed, CreatedAt: now, UpdatedAt: now},
	} {
		if err := cfg.Repository.CreateExport(ctx, e); err != nil {
			t.Fatalf("CreateExport() error = %v", err)
		}
	}

	req := authedRequest(http.MethodGet, "/exports", nil)
	rr := httptest.NewRecorder()

	listExportsHandler(cfg).ServeHTTP(rr, req)

	body := decodeJSONBody(t, rr)
	exports, ok := body["exports"].([]interface{})
	if !ok || len(exports) != 2 {
		t.Fatalf("exports = %v, want 2 entries", body["exports"])
	}

	req = authedRequest(http.MethodGet, "/exports?project_id=p-2", nil)
	rr = httptest.NewRecorder()

	listExportsHandler(cfg).ServeHTTP(rr, req)

	body = decodeJSONBody(t, rr)
	exports, ok = body["exports"].([]interface{})
	if !ok || len(exports) != 1 {
		t.Fatalf("filtered exports = %v, want 1 entry", body["exports"])
	}
	entry, _ := exports[0].(map[string]interface{})
	if entry["id"] != "exp-2" {
		t.Errorf("filtered export id = %v, want exp-2", entry["id"])
	}
}

func TestGetExportRoute(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)
	now := time.Now().UTC()

	err := cfg.Repository.CreateExport(context.Background(), &project.Export{
		ID: "exp-1", ProjectID: "p-1", Format: "plan",
		Status: project.ExportStatusCompleted, Progress: 100,
		OutputPath: "/tmp/out.plan.json", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateExport() error = %v", err)
	}

	req := authedRequest(http.MethodGet, "/exports/exp-1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["format"] != "plan" || body["status"] != "completed" {
		t.Errorf("export = %v/%v, want plan/completed", body["format"], body["status"])
	}
}

func TestGetExportRoute_NotFound(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	req := authedRequest(http.MethodGet, "/exports/ghost", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

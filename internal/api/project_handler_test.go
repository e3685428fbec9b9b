package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/playback"
)

func TestCreateProjectHandler(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/projects", jsonBody(`{"name":"My Cut"}`))
	rr := httptest.NewRecorder()

	createProjectHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if body["name"] != "My Cut" {
		t.Errorf("name = %v, want My Cut", body["name"])
	}
	if id, _ := body["id"].(string); id == "" {
		t.Error("created project has no id")
	}
	if body["open"] != false {
		t.Errorf("open = %v, want false for a project that was only created", body["open"])
	}
}

func TestCreateProjectHandler_DefaultName(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/projects", jsonBody(`{}`))
	rr := httptest.NewRecorder()

	createProjectHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	body := decodeJSONBody(t, rr)
	if body["name"] != "Untitled Project" {
		t.Errorf("name = %v, want Untitled Project", body["name"])
	}
}

func TestCreateProjectHandler_BadBody(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/projects", jsonBody(`{`))
	rr := httptest.NewRecorder()

	createProjectHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListProjectsHandler(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	ctx := context.Background()

	first, err := cfg.Projects.Create(ctx, "First")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := cfg.Projects.Create(ctx, "Second")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := cfg.Projects.Open(ctx, second.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	req := authedRequest(http.MethodGet, "/projects", nil)
	rr := httptest.NewRecorder()

	listProjectsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	projects, ok := body["projects"].([]interface{})
	if !ok || len(projects) != 2 {
		t.Fatalf("projects = %v, want 2 entries", body["projects"])
	}

	seen := map[string]bool{}
	for _, raw := range projects {
		p, ok := raw.(map[string]interface{})
		if !ok {
			t.Fatalf("project entry has wrong shape: %v", raw)
		}
		id, _ := p["id"].(string)
		open, _ := p["open"].(bool)
		seen[id] = open
	}
	if !seen[second.ID] {
		t.Errorf("project %s should be marked open", second.ID)
	}
	if seen[first.ID] {
		t.Errorf("project %s should not be marked open", first.ID)
	}
}

func TestGetProjectRoute(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	p, err := cfg.Projects.Create(context.Background(), "Detail")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := authedRequest(http.MethodGet, "/projects/"+p.ID, nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	doc, ok := body["document"].(map[string]interface{})
	if !ok {
		t.Fatalf("document missing from response: %v", body)
	}
	if tracks, ok := doc["tracks"].([]interface{}); !ok || len(tracks) != 5 {
		t.Errorf("document.tracks = %v, want the five default lanes", doc["tracks"])
	}
	if clips, ok := doc["clips"].([]interface{}); !ok || len(clips) != 2 {
		t.Errorf("document.clips = %v, want the builtin watermark and theme", doc["clips"])
	}
}

func TestGetProjectRoute_NotFound(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	req := authedRequest(http.MethodGet, "/projects/ghost", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "NOT_FOUND" {
		t.Errorf("error code = %v, want NOT_FOUND", body["code"])
	}
}

func TestRenameProjectRoute(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	p, err := cfg.Projects.Create(context.Background(), "Before")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := authedRequest(http.MethodPut, "/projects/"+p.ID, jsonBody(`{"name":"After"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["name"] != "After" {
		t.Errorf("name = %v, want After", body["name"])
	}
}

func TestRenameProjectRoute_EmptyName(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	p, err := cfg.Projects.Create(context.Background(), "Before")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := authedRequest(http.MethodPut, "/projects/"+p.ID, jsonBody(`{"name":""}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRenameProjectRoute_NotFound(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	req := authedRequest(http.MethodPut, "/projects/ghost", jsonBody(`{"name":"After"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteProjectRoute(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	p, err := cfg.Projects.Create(context.Background(), "Doomed")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := authedRequest(http.MethodDelete, "/projects/"+p.ID, nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	req = authedRequest(http.MethodGet, "/projects/"+p.ID, nil)
	rr = httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteProjectRoute_Open(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)
	ctx := context.Background()

	p, err := cfg.Projects.Create(ctx, "Active")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := cfg.Projects.Open(ctx, p.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	req := authedRequest(http.MethodDelete, "/projects/"+p.ID, nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "PROJECT_OPEN" {
		t.Errorf("error code = %v, want PROJECT_OPEN", body["code"])
	}
}

func TestOpenProjectRoute(t *testing.T) {
	sess := testSession(t)
	cfg := newTestConfig(t, sess)
	router := NewRouter(cfg)

	p, err := cfg.Projects.Create(context.Background(), "Opened")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := authedRequest(http.MethodPost, "/projects/"+p.ID+"/open", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if tracks, ok := body["tracks"].([]interface{}); !ok || len(tracks) != 5 {
		t.Errorf("tracks = %v, want the five default lanes", body["tracks"])
	}
	if clips, ok := body["clips"].([]interface{}); !ok || len(clips) != 2 {
		t.Errorf("clips = %v, want the builtin watermark and theme", body["clips"])
	}

	if id, _, ok := cfg.Projects.Active(); !ok || id != p.ID {
		t.Errorf("active project = %v, want %v", id, p.ID)
	}
}

func TestOpenProjectRoute_NotFound(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))
	router := NewRouter(cfg)

	req := authedRequest(http.MethodPost, "/projects/ghost/open", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOpenProjectRoute_DuringGesture(t *testing.T) {
	sess := testSession(t, visualClip("v1", 0, 4))
	cfg := newTestConfig(t, sess)
	router := NewRouter(cfg)
	ctx := context.Background()

	p, err := cfg.Projects.Create(ctx, "Blocked")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := sess.BeginGesture(playback.GestureMove, "v1"); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}

	req := authedRequest(http.MethodPost, "/projects/"+p.ID+"/open", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "GESTURE_ACTIVE" {
		t.Errorf("error code = %v, want GESTURE_ACTIVE", body["code"])
	}
}

func TestApplyScenesHandler(t *testing.T) {
	sess := testSession(t)
	cfg := newTestConfig(t, sess)

	req := authedRequest(http.MethodPost, "/scenes", jsonBody(`{
		"scenes": [
			{"ref": "s1.mp4", "duration": 4},
			{"ref": "s2.mp4", "audio_ref": "n2.mp3", "caption": "Hello there", "duration": 3}
		]
	}`))
	rr := httptest.NewRecorder()

	applyScenesHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// Two primary clips plus the narration and caption pinned to the
	// second span.
	body := decodeJSONBody(t, rr)
	clips, ok := body["clips"].([]interface{})
	if !ok || len(clips) != 4 {
		t.Fatalf("clips = %v, want 4 entries", body["clips"])
	}

	if got := sess.Clips("t-pri"); len(got) != 2 {
		t.Errorf("primary track has %d clips, want 2", len(got))
	}
	if got := sess.Clips("t-nar"); len(got) != 1 {
		t.Errorf("narration track has %d clips, want 1", len(got))
	}
	if got := sess.Clips("t-cap"); len(got) != 1 {
		t.Errorf("caption track has %d clips, want 1", len(got))
	}
}

func TestApplyScenesHandler_MissingRef(t *testing.T) {
	cfg := newTestConfig(t, testSession(t))

	req := authedRequest(http.MethodPost, "/scenes", jsonBody(`{"scenes":[{"duration":4}]}`))
	rr := httptest.NewRecorder()

	applyScenesHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestApplyScenesHandler_DuringGesture(t *testing.T) {
	sess := testSession(t, visualClip("v1", 0, 4))
	cfg := newTestConfig(t, sess)

	if err := sess.BeginGesture(playback.GestureMove, "v1"); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}

	req := authedRequest(http.MethodPost, "/scenes", jsonBody(`{"scenes":[{"ref":"s1.mp4","duration":4}]}`))
	rr := httptest.NewRecorder()

	applyScenesHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "GESTURE_ACTIVE" {
		t.Errorf("error code = %v, want GESTURE_ACTIVE", body["code"])
	}
}

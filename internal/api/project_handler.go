package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/project"
)

func writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
	case errors.Is(err, project.ErrProjectOpen):
		WriteError(w, http.StatusConflict, err.Error(), "PROJECT_OPEN")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Projects.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		openID, _, _ := cfg.Projects.Active()
		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p, openID)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.Projects.Create(r.Context(), req.Name)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		openID, _, _ := cfg.Projects.Active()
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p, openID))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		p, err := cfg.Projects.Get(r.Context(), id)
		if err != nil {
			writeProjectError(w, err)
			return
		}

		openID, _, _ := cfg.Projects.Active()
		WriteJSON(w, http.StatusOK, ProjectDetailResponse{
			ProjectResponse: ProjectToResponse(p, openID),
			Document:        p.Document,
		})
	}
}

func renameProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		var req RenameProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Projects.Rename(r.Context(), id, req.Name); err != nil {
			writeProjectError(w, err)
			return
		}

		p, err := cfg.Projects.Get(r.Context(), id)
		if err != nil {
			writeProjectError(w, err)
			return
		}
		openID, _, _ := cfg.Projects.Active()
		WriteJSON(w, http.StatusOK, ProjectToResponse(p, openID))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Projects.Delete(r.Context(), id); err != nil {
			writeProjectError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// openProjectHandler loads a stored document into the live session and
// hands back the restored timeline, so the UI can render without a second
// round trip.
func openProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Projects.Open(r.Context(), id); err != nil {
			if errors.Is(err, playback.ErrGestureActive) {
				WriteError(w, http.StatusConflict, err.Error(), "GESTURE_ACTIVE")
				return
			}
			writeProjectError(w, err)
			return
		}

		st := cfg.Session.Status()
		WriteJSON(w, http.StatusOK, TimelineResponse{
			Tracks:   cfg.Session.Tracks(),
			Clips:    cfg.Session.Clips(""),
			Duration: st.Total,
			Position: st.Position,
		})
	}
}

func applyScenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScenesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clips, err := cfg.Projects.ApplyScenes(r.Context(), req.Scenes)
		if err != nil {
			if errors.Is(err, playback.ErrGestureActive) {
				WriteError(w, http.StatusConflict, err.Error(), "GESTURE_ACTIVE")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, ScenesResponse{Clips: clips})
	}
}

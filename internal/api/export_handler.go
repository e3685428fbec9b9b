package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := r.URL.Query().Get("project_id")
		exports, err := cfg.Repository.ListExports(r.Context(), projectID, 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(exports))}
		for i, e := range exports {
			resp.Exports[i] = ExportToResponse(e)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		e, err := cfg.Repository.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if e == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ExportToResponse(e))
	}
}

// createExportHandler renders the open project's timeline to disk. The run
// is synchronous; the persisted record exists so the UI can list past
// exports and see why one failed.
func createExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		req.Format = strings.ToLower(req.Format)
		if !export.ValidFormat(req.Format) {
			WriteError(w, http.StatusBadRequest,
				"format must be one of "+strings.Join(export.Formats(), ", "), "BAD_REQUEST")
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		projectID, projectName, ok := cfg.Projects.Active()
		if !ok {
			WriteError(w, http.StatusConflict, "no open project", "NO_PROJECT")
			return
		}

		now := time.Now()
		rec := &project.Export{
			ID:        timeline.NewID(),
			ProjectID: projectID,
			Format:    req.Format,
			Status:    project.ExportStatusRunning,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := cfg.Repository.CreateExport(ctx, rec); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to record export", "INTERNAL_ERROR")
			return
		}

		snap := cfg.Session.Snapshot()
		lastPct := -1
		result, err := export.Run(export.Request{
			Title:     projectName,
			Format:    req.Format,
			FrameRate: req.FrameRate,
			OutputDir: req.OutputDir,
			Tracks:    snap.Tracks,
			Clips:     snap.Clips,
			Progress: func(done, total int) {
				if total == 0 {
					return
				}
				pct := done * 100 / total
				if pct == lastPct {
					return
				}
				lastPct = pct
				if err := cfg.Repository.UpdateExportProgress(ctx, rec.ID, pct); err != nil {
					cfg.Logger.Warn("failed to update export progress", "export_id", rec.ID, "error", err)
				}
			},
		})
		if err != nil {
			if uerr := cfg.Repository.UpdateExportStatus(ctx, rec.ID, project.ExportStatusFailed, err.Error()); uerr != nil {
				cfg.Logger.Warn("failed to mark export failed", "export_id", rec.ID, "error", uerr)
			}
			if errors.Is(err, export.ErrNothingToExport) {
				WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NOTHING_TO_EXPORT")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		if err := cfg.Repository.CompleteExport(ctx, rec.ID, result.OutputPath); err != nil {
			cfg.Logger.Warn("failed to mark export complete", "export_id", rec.ID, "error", err)
		}

		rec.Status = project.ExportStatusCompleted
		rec.Progress = 100
		rec.OutputPath = result.OutputPath
		rec.UpdatedAt = time.Now()

		resp := ExportToResponse(rec)
		resp.ItemCount = result.ItemCount
		WriteJSON(w, http.StatusOK, resp)
	}
}

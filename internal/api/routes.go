package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	// Media bytes are fetched by the UI's video and audio elements, which
	// cannot attach an Authorization header. Loopback-only instead of
	// token-authed.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/assets/content", contentHandler(cfg))
		r.Head("/assets/content", contentHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/events", eventsHandler(cfg))

		r.Get("/session/timeline", timelineHandler(cfg))
		r.Get("/session/frame", frameHandler(cfg))
		r.Post("/session/tracks", addTrackHandler(cfg))
		r.Post("/session/clips", dropClipHandler(cfg))
		r.Delete("/session/clips/{id}", deleteClipHandler(cfg))
		r.Put("/session/clips/{id}/content", replaceContentHandler(cfg))
		r.Post("/session/select", selectHandler(cfg))
		r.Post("/session/play", playHandler(cfg))
		r.Post("/session/pause", pauseHandler(cfg))
		r.Post("/session/toggle", toggleHandler(cfg))
		r.Post("/session/seek", seekHandler(cfg))
		r.Post("/session/gesture/begin", gestureBeginHandler(cfg))
		r.Post("/session/gesture/update", gestureUpdateHandler(cfg))
		r.Post("/session/gesture/end", gestureEndHandler(cfg))
		r.Post("/session/gesture/cancel", gestureCancelHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Put("/projects/{id}", renameProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Post("/projects/{id}/open", openProjectHandler(cfg))
		r.Post("/scenes", applyScenesHandler(cfg))

		r.Get("/exports", listExportsHandler(cfg))
		r.Post("/exports", createExportHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))

		r.Get("/assets", listAssetsHandler(cfg))
		r.Post("/assets/prefetch", prefetchHandler(cfg))
		r.Post("/assets/prefetch/pause", prefetchPauseHandler(cfg))
		r.Post("/assets/prefetch/resume", prefetchResumeHandler(cfg))
		r.Get("/assets/doctor", doctorHandler(cfg))
		r.Post("/assets/doctor/refresh", doctorRefreshHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := StatusToResponse(cfg.Session.Status())

		if id, name, ok := cfg.Projects.Active(); ok {
			resp.Project = &ProjectInfo{ID: id, Name: name}
		}

		resp.Assets = assetsStatus(cfg)

		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				tools := &ToolsResponse{
					FFprobe: caps.FFprobe.Available,
					FFmpeg:  caps.FFmpeg.Available,
				}
				if !caps.ProbedAt.IsZero() {
					tools.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
				resp.Tools = tools
			}
		}

		exports, _ := cfg.Repository.ListExports(ctx, "", 10)
		for _, e := range exports {
			if e.Status == project.ExportStatusFailed {
				resp.LastError = e.Error
				break
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func eventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Events == nil {
			WriteError(w, http.StatusServiceUnavailable, "event stream not configured", "UNAVAILABLE")
			return
		}
		cfg.Events.Serve(w, r)
	}
}

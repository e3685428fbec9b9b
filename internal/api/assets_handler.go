package api

import (
	"encoding/json"
	"net/http"

	"github.com/cutroom/cutroom-agent/internal/assets"
)

func assetsStatus(cfg ServerConfig) AssetsStatusResponse {
	var st AssetsStatusResponse
	if cfg.Cache != nil {
		for _, e := range cfg.Cache.Entries() {
			switch e.Availability {
			case assets.AvailabilityReady:
				st.Ready++
			case assets.AvailabilityFailed:
				st.Failed++
			default:
				st.Pending++
			}
		}
	}
	if cfg.Prefetcher != nil {
		st.QueueLen = cfg.Prefetcher.QueueLen()
		st.Paused = cfg.Prefetcher.IsPaused()
	}
	return st
}

// contentHandler streams cached asset bytes. It sits outside the auth
// group; see NewRouter.
func contentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("ref")
		if ref == "" {
			WriteError(w, http.StatusBadRequest, "ref is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Content.ServeRef(w, r, ref); err != nil {
			cfg.Logger.Error("content serve error", "error", err, "ref", ref)
		}
	}
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := AssetsResponse{Assets: []assets.Entry{}}
		if cfg.Cache != nil {
			resp.Assets = cfg.Cache.Entries()
		}
		if cfg.Prefetcher != nil {
			resp.QueueLen = cfg.Prefetcher.QueueLen()
			resp.Paused = cfg.Prefetcher.IsPaused()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func prefetchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PrefetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		valid := false
		for _, ref := range req.Refs {
			if ref != "" {
				valid = true
				break
			}
		}
		if !valid {
			WriteError(w, http.StatusBadRequest, "refs must not be empty", "BAD_REQUEST")
			return
		}

		// Queued reports what the prefetcher actually took, not what the
		// request asked for; resolved and in-flight refs are skipped.
		queued := cfg.Prefetcher.Enqueue(req.Refs...)
		WriteJSON(w, http.StatusAccepted, PrefetchResponse{Queued: queued})
	}
}

func prefetchPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Prefetcher.Pause()
		WriteJSON(w, http.StatusOK, assetsStatus(cfg))
	}
}

func prefetchResumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Prefetcher.Resume()
		WriteJSON(w, http.StatusOK, assetsStatus(cfg))
	}
}

func doctorHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Doctor == nil {
			WriteError(w, http.StatusServiceUnavailable, "tool detection not configured", "UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Doctor.Get())
	}
}

func doctorRefreshHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Doctor == nil {
			WriteError(w, http.StatusServiceUnavailable, "tool detection not configured", "UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Doctor.Refresh())
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// writeSessionError maps the session's sentinel errors onto the API's
// envelope. Gesture conflicts are 409s so the UI can tell "retry after the
// gesture ends" apart from a bad request.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playback.ErrClipNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, playback.ErrTrackNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, playback.ErrGestureActive):
		WriteError(w, http.StatusConflict, err.Error(), "GESTURE_ACTIVE")
	case errors.Is(err, playback.ErrNoGesture):
		WriteError(w, http.StatusConflict, err.Error(), "NO_GESTURE")
	case errors.Is(err, playback.ErrInvalidGesture),
		errors.Is(err, playback.ErrInvalidDrop),
		errors.Is(err, playback.ErrInvalidTrackKind):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Session.Status()
		WriteJSON(w, http.StatusOK, TimelineResponse{
			Tracks:   cfg.Session.Tracks(),
			Clips:    cfg.Session.Clips(""),
			Duration: st.Total,
			Position: st.Position,
		})
	}
}

// frameHandler resolves the frame at the playhead, or at an explicit t.
// Export tooling samples this; the UI uses it to sync on connect.
func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("t")
		if raw == "" {
			WriteJSON(w, http.StatusOK, cfg.Session.Frame())
			return
		}

		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "t must be a number", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.FrameAt(t))
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		track, err := cfg.Session.AddTrack(timeline.Kind(req.Kind), req.Label)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func dropClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DropClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, err := cfg.Session.DropClip(req.TrackID, req.At, playback.DropPayload{
			Kind:         timeline.Kind(req.Kind),
			ContentRef:   req.ContentRef,
			Label:        req.Label,
			DurationHint: req.DurationHint,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, clip)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "clip id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.DeleteClip(id); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func replaceContentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "clip id required", "BAD_REQUEST")
			return
		}

		var req ReplaceContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.ContentRef == "" {
			WriteError(w, http.StatusBadRequest, "content_ref is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.ReplaceContent(id, req.ContentRef); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.SelectClip(req.ClipID); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Play()
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Pause()
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func toggleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.TogglePlayback()
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cfg.Session.Seek(req.T)
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func gestureBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GestureBeginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.BeginGesture(playback.GestureKind(req.Kind), req.ClipID); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func gestureUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GestureUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.UpdateGesture(req.Pos); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func gestureEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.EndGesture(); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

func gestureCancelHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.CancelGesture(); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(cfg.Session.Status()))
	}
}

package assets

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const serveBody = "abcdefghijklmnopqrstuvwxyz"

func serveFixture(t *testing.T) (*ContentServer, *Cache) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte(serveBody), 0o644))

	cache := NewCache(testLogger())
	cache.StoreReady("clip.mp4", path, int64(len(serveBody)), 5.0)
	cache.StoreFailed("gone.mp4", errors.New("origin said no"))

	return NewContentServer(cache, testLogger()), cache
}

func serveRef(t *testing.T, s *ContentServer, ref, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/assets/content", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, s.ServeRef(rec, req, ref))
	return rec
}

func TestContentServer_FullResponse(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "clip.mp4", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, serveBody, rec.Body.String())
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.Equal(t, "26", rec.Header().Get("Content-Length"))
	require.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestContentServer_PartialResponse(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "clip.mp4", "bytes=5-9")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "fghij", rec.Body.String())
	require.Equal(t, "bytes 5-9/26", rec.Header().Get("Content-Range"))
	require.Equal(t, "5", rec.Header().Get("Content-Length"))
}

func TestContentServer_OpenEndedRange(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "clip.mp4", "bytes=20-")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "uvwxyz", rec.Body.String())
	require.Equal(t, "bytes 20-25/26", rec.Header().Get("Content-Range"))
}

func TestContentServer_UnsatisfiableRange(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "clip.mp4", "bytes=100-")

	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	require.Equal(t, "bytes */26", rec.Header().Get("Content-Range"))
}

func TestContentServer_MalformedRangeFallsBackToFull(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "clip.mp4", "chars=0-5")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, serveBody, rec.Body.String())
}

func TestContentServer_PendingRefIsNotFound(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "never-seen.mp4", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "asset not ready")
}

func TestContentServer_FailedRefIsNotFound(t *testing.T) {
	s, _ := serveFixture(t)

	rec := serveRef(t, s, "gone.mp4", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "asset unavailable")
}

func TestContentServer_VanishedFileEvictsEntry(t *testing.T) {
	s, cache := serveFixture(t)

	entry, _ := cache.Lookup("clip.mp4")
	require.NoError(t, os.Remove(entry.Path))

	rec := serveRef(t, s, "clip.mp4", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, AvailabilityPending, cache.Availability("clip.mp4"))
}

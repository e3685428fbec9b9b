package assets

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// ContentServer serves cached asset bytes to the UI's media elements. Range
// requests are honored so video seeking and audio scrubbing work against
// the local cache.
type ContentServer struct {
	cache  *Cache
	logger *slog.Logger
}

func NewContentServer(cache *Cache, logger *slog.Logger) *ContentServer {
	return &ContentServer{cache: cache, logger: logger}
}

// ServeRef writes the bytes behind a ref. Refs that are pending or failed
// get a 404; the UI shows those slots as blank and retries after the
// prefetcher reports progress.
func (s *ContentServer) ServeRef(w http.ResponseWriter, r *http.Request, ref string) error {
	entry, ok := s.cache.Lookup(ref)
	if !ok || entry.Availability == AvailabilityPending {
		http.Error(w, "asset not ready", http.StatusNotFound)
		return nil
	}
	if entry.Availability == AvailabilityFailed {
		http.Error(w, "asset unavailable", http.StatusNotFound)
		return nil
	}

	file, err := os.Open(entry.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// The cached file vanished under us; forget it so the next
			// prefetch can repopulate.
			s.cache.Evict(ref)
			http.Error(w, "asset not ready", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open cached asset: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat cached asset: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(entry.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	span, err := ParseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// A malformed Range header degrades to the full asset.
	if err != nil && !errors.Is(err, ErrInvalidRange) {
		return err
	}

	if span == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(span.Length(), 10))
	w.Header().Set("Content-Range", span.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(span.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek cached asset: %w", err)
	}
	io.CopyN(w, file, span.Length())
	return nil
}

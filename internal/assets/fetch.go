package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetched describes the local materialization of one ref.
type Fetched struct {
	Path string
	Size int64
}

// Fetcher turns one content ref into a local file. Refs are opaque to the
// rest of the agent; only the fetcher knows how to dereference them.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Fetched, error)
}

// FileFetcher resolves refs against a local media directory. Absolute paths
// are accepted as-is; relative refs must stay inside the root.
type FileFetcher struct {
	root   string
	logger *slog.Logger
}

func NewFileFetcher(root string, logger *slog.Logger) *FileFetcher {
	return &FileFetcher{root: root, logger: logger}
}

func (f *FileFetcher) Fetch(_ context.Context, ref string) (Fetched, error) {
	p := ref
	if !filepath.IsAbs(p) {
		if !filepath.IsLocal(p) {
			return Fetched{}, fmt.Errorf("ref escapes media dir: %s", ref)
		}
		p = filepath.Join(f.root, p)
	}

	stat, err := os.Stat(p)
	if err != nil {
		return Fetched{}, fmt.Errorf("stat %s: %w", ref, err)
	}
	if stat.IsDir() {
		return Fetched{}, fmt.Errorf("ref is a directory: %s", ref)
	}
	return Fetched{Path: p, Size: stat.Size()}, nil
}

// FetchError carries the status of a rejected download.
type FetchError struct {
	StatusCode int
	Ref        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.Ref, e.StatusCode)
}

// HTTPFetcher downloads URL refs into the cache directory. File names are
// derived from the ref hash so the same ref always lands on the same path.
type HTTPFetcher struct {
	dir    string
	client *http.Client
	logger *slog.Logger
}

func NewHTTPFetcher(dir string, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		dir: dir,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Fetched{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Fetched{}, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Fetched{}, &FetchError{StatusCode: resp.StatusCode, Ref: ref}
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return Fetched{}, fmt.Errorf("create cache dir: %w", err)
	}

	dest := filepath.Join(f.dir, cacheFileName(ref))
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return Fetched{}, fmt.Errorf("create %s: %w", tmp, err)
	}

	size, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return Fetched{}, fmt.Errorf("download %s: %w", ref, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return Fetched{}, fmt.Errorf("finalize %s: %w", ref, err)
	}

	f.logger.Debug("asset downloaded", "ref", ref, "bytes", size)
	return Fetched{Path: dest, Size: size}, nil
}

// cacheFileName hashes the ref and keeps its extension so mime detection
// still works on the cached copy.
func cacheFileName(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	name := hex.EncodeToString(sum[:8])
	if ext := path.Ext(strings.SplitN(ref, "?", 2)[0]); ext != "" && len(ext) <= 8 {
		name += ext
	}
	return name
}

// RefFetcher dispatches by ref shape: URLs download, everything else is
// treated as a local file.
type RefFetcher struct {
	files *FileFetcher
	http  *HTTPFetcher
}

func NewRefFetcher(mediaDir, cacheDir string, logger *slog.Logger) *RefFetcher {
	return &RefFetcher{
		files: NewFileFetcher(mediaDir, logger),
		http:  NewHTTPFetcher(cacheDir, logger),
	}
}

func (f *RefFetcher) Fetch(ctx context.Context, ref string) (Fetched, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.http.Fetch(ctx, ref)
	}
	return f.files.Fetch(ctx, ref)
}

package assets

import (
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

const doctorCacheTTL = 5 * time.Minute

// ToolInfo is the detection result for one external tool.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

// Capabilities reports which optional local tools the agent found.
type Capabilities struct {
	FFprobe  ToolInfo  `json:"ffprobe"`
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	ProbedAt time.Time `json:"probed_at"`
}

// CanProbe reports whether duration probing is possible at all.
func (c *Capabilities) CanProbe() bool {
	return c.FFprobe.Available
}

// Doctor detects external tools and caches the result with a TTL, so status
// endpoints and drops do not hit the filesystem on every call.
type Doctor struct {
	ttl      time.Duration
	logger   *slog.Logger
	lookPath func(string) (string, error)

	mu     sync.RWMutex
	cached *Capabilities
}

func NewDoctor(logger *slog.Logger) *Doctor {
	return &Doctor{
		ttl:      doctorCacheTTL,
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *Doctor) Get() *Capabilities {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps
	}
	d.mu.RUnlock()

	return d.Refresh()
}

// Peek returns whatever is cached without probing, possibly nil.
func (d *Doctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh probes regardless of cache freshness.
func (d *Doctor) Refresh() *Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps := &Capabilities{
		FFprobe:  d.detect("ffprobe"),
		FFmpeg:   d.detect("ffmpeg"),
		ProbedAt: time.Now(),
	}
	d.cached = caps
	d.logger.Debug("tool probe completed",
		"ffprobe", caps.FFprobe.Available, "ffmpeg", caps.FFmpeg.Available)
	return caps
}

// Invalidate clears the cached capabilities.
func (d *Doctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

func (d *Doctor) detect(name string) ToolInfo {
	p, err := d.lookPath(name)
	if err != nil {
		return ToolInfo{}
	}
	return ToolInfo{Available: true, Path: p}
}

package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// Prober measures the intrinsic duration of a local media file.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// ExecProber shells out to ffprobe.
type ExecProber struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger
}

func NewExecProber(bin string, logger *slog.Logger) *ExecProber {
	if bin == "" {
		bin = "ffprobe"
	}
	return &ExecProber{
		bin:     bin,
		timeout: 15 * time.Second,
		logger:  logger,
	}
}

func (p *ExecProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format=duration",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", p.bin, err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("parse %s output: %w", p.bin, err)
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", result.Format.Duration, err)
	}
	return duration, nil
}

// StubProber stands in when ffprobe is not installed. Probes report
// unknown, so drops fall back to their per-kind defaults.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (p *StubProber) ProbeDuration(_ context.Context, path string) (float64, error) {
	p.logger.Debug("probe stub: duration requested", "path", path)
	return 0, fmt.Errorf("no probe tool available")
}

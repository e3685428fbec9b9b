package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// GenerateSRT renders caption clips as a SubRip file. Entries are numbered in
// timeline order and carry the caption text from each clip's label.
func GenerateSRT(captions []timeline.Clip) string {
	var lines []string
	for i, clip := range captionEntries(captions) {
		lines = append(lines,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s --> %s", msToSRTTime(secToMs(clip.Start)), msToSRTTime(secToMs(clip.End()))),
			strings.TrimSpace(clip.Label),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// captionEntries drops caption clips with no text and orders the rest by
// start time.
func captionEntries(captions []timeline.Clip) []timeline.Clip {
	out := make([]timeline.Clip, 0, len(captions))
	for _, c := range captions {
		if strings.TrimSpace(c.Label) == "" {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func msToSRTTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	millis := ms % 1000
	totalSeconds := ms / 1000
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

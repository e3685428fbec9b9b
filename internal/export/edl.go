// Package export renders a timeline into interchange formats: CMX 3600 EDLs
// for NLE handoff, SRT caption files and a JSON render plan a downstream
// compositor can execute.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// GenerateEDL renders the visual and narration clips as a CMX 3600 edit
// decision list. Source in/out cover the whole placed ref; record in/out are
// the clips' real timeline positions, so gaps left by drag edits survive the
// handoff.
func GenerateEDL(title string, frameRate float64, visual, narration []timeline.Clip) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	appendEvents := func(clips []timeline.Clip, channel string) {
		ordered := make([]timeline.Clip, len(clips))
		copy(ordered, clips)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

		for _, clip := range ordered {
			event++
			srcIn := msToTimecode(0, fps)
			srcOut := msToTimecode(secToMs(clip.Duration), fps)
			recIn := msToTimecode(secToMs(clip.Start), fps)
			recOut := msToTimecode(secToMs(clip.End()), fps)

			lines = append(lines,
				fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", channel, srcIn, srcOut, recIn, recOut),
				fmt.Sprintf("* FROM CLIP NAME:  %s", clipName(clip)),
				fmt.Sprintf("* MEDIA PATH:  %s", clip.ContentRef),
			)
		}
	}

	appendEvents(visual, "V")
	appendEvents(narration, "A")

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func clipName(c timeline.Clip) string {
	if c.Label != "" {
		return c.Label
	}
	return c.ContentRef
}

func secToMs(sec float64) int {
	return int(math.Round(sec * 1000))
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

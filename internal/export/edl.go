// Package export renders the timeline's primary video lane as a CMX 3600
// style edit decision list for handoff to desktop NLEs.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// CutEntry is one resolved event of the cut list. Times are seconds: source
// in/out address the media binary, record in/out address the project
// timeline.
type CutEntry struct {
	ClipName  string
	MediaPath string
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
	RecordOut float64
}

// BuildCutList turns the primary video lane into EDL events, resolving media
// paths through resolve. Synthetic overlay clips and clips whose media cannot
// be resolved are reported in the second return, not silently dropped.
func BuildCutList(clips []timeline.Clip, resolve func(mediaID string) (string, bool)) ([]CutEntry, []string) {
	var entries []CutEntry
	var unresolved []string

	for _, c := range clips {
		if c.TrackIndex != timeline.TrackPrimaryVideo {
			continue
		}
		if c.IsSynthetic() {
			unresolved = append(unresolved, c.Name)
			continue
		}
		path, ok := resolve(c.MediaID)
		if !ok {
			unresolved = append(unresolved, c.Name)
			continue
		}

		srcIn, srcOut := c.TrimStart, c.TrimEnd
		if srcOut <= srcIn {
			srcIn, srcOut = 0, c.Duration
		}
		entries = append(entries, CutEntry{
			ClipName:  c.Name,
			MediaPath: path,
			SourceIn:  srcIn,
			SourceOut: srcOut,
			RecordIn:  c.StartTime,
			RecordOut: c.End(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RecordIn < entries[j].RecordIn })
	return entries, unresolved
}

// GenerateEDL renders the cut list. Drop-frame flagging follows the NTSC
// rates; everything else is non-drop.
func GenerateEDL(entries []CutEntry, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	dropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if dropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, e := range entries {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				timecode(e.SourceIn, fps), timecode(e.SourceOut, fps),
				timecode(e.RecordIn, fps), timecode(e.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", e.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", e.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func timecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	mins := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, mins, secs, frames)
}

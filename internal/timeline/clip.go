// Package timeline owns the editor's clip data model and mutation algebra:
// placing media on tracks, split/move/resize/delete, and the derived project
// duration. All state lives in a single Engine instance with an explicit
// mutation API; invalid requests leave the state unchanged rather than fail.
package timeline

import (
	"math"

	"github.com/google/uuid"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
	KindImage = "image"
)

// Synthetic media ids for clips that reference no library entry.
const (
	MediaSubtitle    = "subtitle"
	MediaTransition  = "transition"
	MediaAudioEffect = "audio_effect"
)

// MinClipDuration is the floor enforced on every clip construction and
// resize. No operation may produce a shorter clip.
const MinClipDuration = 0.1

// trimEpsilon is the tolerance used when comparing trim span to duration.
const trimEpsilon = 1e-6

// Clip is one placement of a media reference on the timeline. Times are
// seconds. Trim bounds describe the region of the source media this clip's
// content maps to; they are set by import and processing merges, not by
// resize (see TrimMismatch).
type Clip struct {
	ID         string `json:"id"`
	MediaID    string `json:"media_id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	TrackIndex int    `json:"track_index"`

	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`

	// OriginalDuration bounds future resizes; 0 = unknown.
	OriginalDuration float64 `json:"original_duration,omitempty"`
	TrimStart        float64 `json:"trim_start"`
	TrimEnd          float64 `json:"trim_end"`

	Color     string `json:"color"`
	Thumbnail string `json:"thumbnail,omitempty"`

	Locked  bool `json:"locked"`
	Muted   bool `json:"muted"`
	Visible bool `json:"visible"`
}

// End returns the clip's exclusive end point on the timeline.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// IsSynthetic reports whether the clip references no library media.
func (c Clip) IsSynthetic() bool {
	switch c.MediaID {
	case MediaSubtitle, MediaTransition, MediaAudioEffect:
		return true
	}
	return false
}

// TrimMismatch reports whether the clip's timeline footprint has drifted from
// the source region its trim bounds describe. Resizing changes the footprint
// without recomputing trim bounds, so a mismatch is possible and is surfaced
// as a warning rather than silently corrected.
func (c Clip) TrimMismatch() bool {
	if c.TrimStart == 0 && c.TrimEnd == 0 {
		return false
	}
	return math.Abs((c.TrimEnd-c.TrimStart)-c.Duration) > trimEpsilon
}

// newClipID returns a fresh clip identifier. Ids are never reused; a split
// retires the original id permanently.
func newClipID() string {
	return uuid.NewString()
}

// clampStart forces a start time onto the timeline.
func clampStart(t float64) float64 {
	if t < 0 {
		return 0
	}
	return t
}

// clampDuration enforces the minimum clip duration.
func clampDuration(d float64) float64 {
	if d < MinClipDuration {
		return MinClipDuration
	}
	return d
}

// sanitize is the single invariant gate for clip construction. Every path
// that inserts a clip into the engine goes through it.
func (c *Clip) sanitize() {
	c.StartTime = clampStart(c.StartTime)
	c.Duration = clampDuration(c.Duration)
	if c.TrimStart < 0 {
		c.TrimStart = 0
	}
	if c.OriginalDuration > 0 && c.TrimEnd > c.OriginalDuration {
		c.TrimEnd = c.OriginalDuration
	}
}

var clipPalettes = map[string][]string{
	KindVideo: {"blue", "green", "purple", "indigo"},
	KindAudio: {"orange", "red", "pink", "yellow"},
	KindImage: {"teal", "cyan", "emerald", "lime"},
}

// clipColor picks a presentation color for the nth clip of a kind.
func clipColor(kind string, n int) string {
	palette, ok := clipPalettes[kind]
	if !ok {
		palette = clipPalettes[KindVideo]
	}
	return palette[n%len(palette)]
}

// Package codec wraps the external media-processing engine. The production
// implementation shells out to ffmpeg/ffprobe; everything above this package
// sees only the Engine contract: an operation over a source binary producing
// a new binary, with fractional progress along the way.
package codec

import (
	"context"
	"fmt"
)

// Operation kinds accepted by the engine.
const (
	OpTrim      = "trim"
	OpVolume    = "volume"
	OpSubtitles = "subtitles"
)

// ProgressFunc receives fractional progress in [0,1] while an operation runs.
type ProgressFunc func(fraction float64)

// ProcessedMedia is the result of a successful operation: a new binary on
// disk plus the name the editor should display for it.
type ProcessedMedia struct {
	Path          string
	SuggestedName string
	Duration      float64 // seconds of the result; 0 = unchanged from source
}

// Cue is one subtitle line to burn into the video.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// ProbeResult describes a media binary.
type ProbeResult struct {
	Duration  float64
	Width     int
	Height    int
	Codec     string
	FrameRate float64
}

// Engine is the external codec collaborator. Operations may take seconds;
// callers run them off the request path and honor ctx cancellation.
type Engine interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	Trim(ctx context.Context, src string, start, end float64, progress ProgressFunc) (*ProcessedMedia, error)
	AdjustVolume(ctx context.Context, src string, gain float64, progress ProgressFunc) (*ProcessedMedia, error)
	BurnSubtitles(ctx context.Context, src string, cues []Cue, progress ProgressFunc) (*ProcessedMedia, error)
	Thumbnail(ctx context.Context, src string, timestamp float64) (string, error)
}

// ValidateRange rejects degenerate time ranges before they reach ffmpeg.
func ValidateRange(start, end float64) error {
	if start < 0 {
		return fmt.Errorf("start time %v is negative", start)
	}
	if end <= start {
		return fmt.Errorf("end time %v must be after start time %v", end, start)
	}
	return nil
}

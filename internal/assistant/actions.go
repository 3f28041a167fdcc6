// Package assistant turns structured editing commands into engine and codec
// operations. Commands arrive as a typed JSON envelope; parsing is strict so
// malformed requests are rejected before any state changes.
package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action types the adapter understands.
const (
	ActionAddSubtitles      = "add_subtitles"
	ActionTrimVideo         = "trim_video"
	ActionAddTransition     = "add_transition"
	ActionAdjustAudio       = "adjust_audio"
	ActionGenerateThumbnail = "generate_thumbnail"
	ActionAnalyzeVideo      = "analyze_video"
)

// Envelope is the wire form of one command: a type tag and type-specific
// arguments.
type Envelope struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args,omitempty"`
}

type AddSubtitlesArgs struct {
	Text     string  `json:"text"`
	Position string  `json:"position,omitempty"` // top, center, bottom
	Start    float64 `json:"start_time"`
	End      float64 `json:"end_time"`
}

type TrimVideoArgs struct {
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

type AddTransitionArgs struct {
	Kind     string  `json:"transition_type"` // fade, dissolve, wipe, slide
	At       float64 `json:"at"`
	Duration float64 `json:"duration,omitempty"`
}

type AdjustAudioArgs struct {
	Adjustment string  `json:"adjustment,omitempty"` // increase, decrease
	Volume     float64 `json:"volume,omitempty"`     // percent, 100 = unchanged
}

type GenerateThumbnailArgs struct {
	Timestamp float64 `json:"timestamp"`
}

var subtitlePositions = map[string]bool{"top": true, "center": true, "bottom": true}

var transitionKinds = map[string]bool{"fade": true, "dissolve": true, "wipe": true, "slide": true}

func (a *AddSubtitlesArgs) validate() error {
	if a.Text == "" {
		return fmt.Errorf("subtitle text is empty")
	}
	if a.Position == "" {
		a.Position = "bottom"
	}
	if !subtitlePositions[a.Position] {
		return fmt.Errorf("invalid subtitle position %q", a.Position)
	}
	if a.Start < 0 {
		return fmt.Errorf("start time %v is negative", a.Start)
	}
	if a.End <= a.Start {
		a.End = a.Start + 5
	}
	return nil
}

func (a *TrimVideoArgs) validate() error {
	if a.Start < 0 {
		return fmt.Errorf("start time %v is negative", a.Start)
	}
	if a.End <= a.Start {
		return fmt.Errorf("end time %v must be after start time %v", a.End, a.Start)
	}
	return nil
}

func (a *AddTransitionArgs) validate() error {
	if a.Kind == "" {
		a.Kind = "fade"
	}
	if !transitionKinds[a.Kind] {
		return fmt.Errorf("invalid transition type %q", a.Kind)
	}
	if a.At < 0 {
		a.At = 0
	}
	if a.Duration <= 0 {
		a.Duration = 1
	}
	return nil
}

// gain resolves the adjustment to a multiplicative volume gain.
func (a *AdjustAudioArgs) gain() (float64, error) {
	if a.Volume > 0 {
		return a.Volume / 100, nil
	}
	switch a.Adjustment {
	case "increase":
		return 1.5, nil
	case "decrease":
		return 0.5, nil
	case "":
		return 0, fmt.Errorf("no audio adjustment given")
	default:
		return 0, fmt.Errorf("invalid audio adjustment %q", a.Adjustment)
	}
}

func (a *GenerateThumbnailArgs) validate() error {
	if a.Timestamp < 0 {
		return fmt.Errorf("timestamp %v is negative", a.Timestamp)
	}
	if a.Timestamp == 0 {
		a.Timestamp = 1
	}
	return nil
}

// decodeArgs strictly unmarshals args into dst, rejecting unknown fields.
func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid action arguments: %w", err)
	}
	return nil
}

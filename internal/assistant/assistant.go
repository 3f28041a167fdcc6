package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/codec"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/reconcile"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Outcome reports what an executed action did. Fields other than Action and
// Summary are set only when the action type produces them.
type Outcome struct {
	Action    string             `json:"action"`
	Summary   string             `json:"summary"`
	JobID     string             `json:"job_id,omitempty"`
	Clip      *timeline.Clip     `json:"clip,omitempty"`
	Thumbnail string             `json:"thumbnail,omitempty"`
	Analysis  *codec.ProbeResult `json:"analysis,omitempty"`
}

// Adapter executes assistant commands against the editor's engine, the media
// library, and the codec pipeline.
type Adapter struct {
	library    *library.Service
	engine     *timeline.Engine
	reconciler *reconcile.Reconciler
	codec      codec.Engine
	logger     *slog.Logger
}

func NewAdapter(lib *library.Service, engine *timeline.Engine, rec *reconcile.Reconciler, eng codec.Engine, logger *slog.Logger) *Adapter {
	return &Adapter{library: lib, engine: engine, reconciler: rec, codec: eng, logger: logger}
}

// Execute runs one command against the given media item. Commands touching
// the binary (trim, audio, subtitles, thumbnail) need a real library item;
// transitions only touch the timeline.
func (a *Adapter) Execute(ctx context.Context, mediaID string, env Envelope) (*Outcome, error) {
	if a.logger != nil {
		a.logger.Info("assistant action", "action", env.Type, "media_id", mediaID)
	}

	switch env.Type {
	case ActionAddSubtitles:
		var args AddSubtitlesArgs
		if err := decodeArgs(env.Args, &args); err != nil {
			return nil, err
		}
		if err := args.validate(); err != nil {
			return nil, err
		}
		return a.addSubtitles(ctx, mediaID, args)

	case ActionTrimVideo:
		var args TrimVideoArgs
		if err := decodeArgs(env.Args, &args); err != nil {
			return nil, err
		}
		if err := args.validate(); err != nil {
			return nil, err
		}
		return a.trimVideo(ctx, mediaID, args)

	case ActionAddTransition:
		var args AddTransitionArgs
		if err := decodeArgs(env.Args, &args); err != nil {
			return nil, err
		}
		if err := args.validate(); err != nil {
			return nil, err
		}
		return a.addTransition(args)

	case ActionAdjustAudio:
		var args AdjustAudioArgs
		if err := decodeArgs(env.Args, &args); err != nil {
			return nil, err
		}
		return a.adjustAudio(ctx, mediaID, args)

	case ActionGenerateThumbnail:
		var args GenerateThumbnailArgs
		if err := decodeArgs(env.Args, &args); err != nil {
			return nil, err
		}
		if err := args.validate(); err != nil {
			return nil, err
		}
		return a.generateThumbnail(ctx, mediaID, args)

	case ActionAnalyzeVideo:
		return a.analyzeVideo(ctx, mediaID)

	default:
		return nil, fmt.Errorf("unknown action %q", env.Type)
	}
}

func (a *Adapter) addSubtitles(ctx context.Context, mediaID string, args AddSubtitlesArgs) (*Outcome, error) {
	job, err := a.reconciler.Submit(ctx, mediaID, reconcile.Request{
		Operation: codec.OpSubtitles,
		Cues:      []codec.Cue{{Start: args.Start, End: args.End, Text: args.Text}},
	})
	if err != nil {
		return nil, err
	}

	clip := a.engine.InsertOverlay(timeline.MediaSubtitle, subtitleLabel(args.Text),
		timeline.KindVideo, timeline.TrackSubtitles, args.Start, args.End-args.Start, "yellow")

	return &Outcome{
		Action:  ActionAddSubtitles,
		Summary: fmt.Sprintf("Burning subtitles at %s from %.1fs to %.1fs", args.Position, args.Start, args.End),
		JobID:   job.ID,
		Clip:    &clip,
	}, nil
}

func (a *Adapter) trimVideo(ctx context.Context, mediaID string, args TrimVideoArgs) (*Outcome, error) {
	job, err := a.reconciler.Submit(ctx, mediaID, reconcile.Request{
		Operation: codec.OpTrim,
		Start:     args.Start,
		End:       args.End,
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Action:  ActionTrimVideo,
		Summary: fmt.Sprintf("Trimming video to %.1fs-%.1fs", args.Start, args.End),
		JobID:   job.ID,
	}, nil
}

func (a *Adapter) addTransition(args AddTransitionArgs) (*Outcome, error) {
	name := titleCase(args.Kind) + " Transition"
	clip := a.engine.InsertOverlay(timeline.MediaTransition, name,
		timeline.KindVideo, timeline.TrackOverlay, args.At, args.Duration, "purple")
	return &Outcome{
		Action:  ActionAddTransition,
		Summary: fmt.Sprintf("Added %s transition at %.1fs", args.Kind, clip.StartTime),
		Clip:    &clip,
	}, nil
}

func (a *Adapter) adjustAudio(ctx context.Context, mediaID string, args AdjustAudioArgs) (*Outcome, error) {
	gain, err := args.gain()
	if err != nil {
		return nil, err
	}
	job, err := a.reconciler.Submit(ctx, mediaID, reconcile.Request{
		Operation: codec.OpVolume,
		Gain:      gain,
	})
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("Volume %d%%", int(gain*100))
	clip := a.engine.InsertOverlay(timeline.MediaAudioEffect, name,
		timeline.KindAudio, timeline.TrackAudio, 0, 1, "orange")

	return &Outcome{
		Action:  ActionAdjustAudio,
		Summary: fmt.Sprintf("Adjusting volume to %d%%", int(gain*100)),
		JobID:   job.ID,
		Clip:    &clip,
	}, nil
}

func (a *Adapter) generateThumbnail(ctx context.Context, mediaID string, args GenerateThumbnailArgs) (*Outcome, error) {
	item, err := a.library.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("media not found")
	}
	if item.Kind != library.KindVideo {
		return nil, fmt.Errorf("thumbnails require video media, got %s", item.Kind)
	}

	path, err := a.codec.Thumbnail(ctx, item.Path, args.Timestamp)
	if err != nil {
		return nil, err
	}
	if err := a.library.SetThumbnail(ctx, mediaID, path); err != nil {
		return nil, err
	}

	return &Outcome{
		Action:    ActionGenerateThumbnail,
		Summary:   fmt.Sprintf("Captured thumbnail at %.1fs", args.Timestamp),
		Thumbnail: path,
	}, nil
}

func (a *Adapter) analyzeVideo(ctx context.Context, mediaID string) (*Outcome, error) {
	item, err := a.library.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("media not found")
	}

	probe, err := a.codec.Probe(ctx, item.Path)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Action: ActionAnalyzeVideo,
		Summary: fmt.Sprintf("%s: %.1fs, %dx%d, %s @ %.2f fps",
			item.Name, probe.Duration, probe.Width, probe.Height, probe.Codec, probe.FrameRate),
		Analysis: probe,
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// subtitleLabel shortens long subtitle text for the clip name.
func subtitleLabel(text string) string {
	const max = 24
	if len(text) <= max {
		return "Subtitle: " + text
	}
	return "Subtitle: " + text[:max] + "..."
}

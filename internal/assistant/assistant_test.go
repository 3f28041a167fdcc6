package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cutroom/cutroom-agent/internal/codec"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/reconcile"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type fakeCodec struct {
	thumbPath string
	probe     *codec.ProbeResult
}

func (f *fakeCodec) Probe(ctx context.Context, path string) (*codec.ProbeResult, error) {
	if f.probe == nil {
		return nil, fmt.Errorf("probe unavailable")
	}
	return f.probe, nil
}

func (f *fakeCodec) Duration(ctx context.Context, path string) (float64, error) {
	return 30, nil
}

func (f *fakeCodec) Trim(ctx context.Context, src string, start, end float64, progress codec.ProgressFunc) (*codec.ProcessedMedia, error) {
	return &codec.ProcessedMedia{Path: src, SuggestedName: "processed_" + filepath.Base(src), Duration: end - start}, nil
}

func (f *fakeCodec) AdjustVolume(ctx context.Context, src string, gain float64, progress codec.ProgressFunc) (*codec.ProcessedMedia, error) {
	return &codec.ProcessedMedia{Path: src, SuggestedName: "processed_" + filepath.Base(src)}, nil
}

func (f *fakeCodec) BurnSubtitles(ctx context.Context, src string, cues []codec.Cue, progress codec.ProgressFunc) (*codec.ProcessedMedia, error) {
	return &codec.ProcessedMedia{Path: src, SuggestedName: "processed_" + filepath.Base(src)}, nil
}

func (f *fakeCodec) Thumbnail(ctx context.Context, src string, timestamp float64) (string, error) {
	if f.thumbPath == "" {
		return "", fmt.Errorf("no thumbnail")
	}
	return f.thumbPath, nil
}

func newAdapter(t *testing.T, fc *fakeCodec) (*Adapter, *timeline.Engine, *reconcile.Reconciler, string) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	repo := library.NewRepository(database.Conn())
	lib := library.NewService(repo, fc, filepath.Join(dir, "media"), nil)
	engine := timeline.NewEngine(timeline.NewRegistry(), nil)
	lib.SetCascade(engine)
	rec := reconcile.NewReconciler(lib, engine, fc, repo, time.Minute, nil)

	src := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(src, []byte("source"), 0644); err != nil {
		t.Fatal(err)
	}
	item, err := lib.Import(context.Background(), src, "")
	if err != nil {
		t.Fatal(err)
	}

	return NewAdapter(lib, engine, rec, fc, nil), engine, rec, item.ID
}

func args(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func settle(t *testing.T, rec *reconcile.Reconciler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestExecute_AddSubtitles(t *testing.T) {
	adapter, engine, rec, mediaID := newAdapter(t, &fakeCodec{})

	outcome, err := adapter.Execute(context.Background(), mediaID, Envelope{
		Type: ActionAddSubtitles,
		Args: args(t, AddSubtitlesArgs{Text: "hello world", Start: 2, End: 6}),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	settle(t, rec)

	if outcome.JobID == "" {
		t.Error("no job submitted")
	}
	if outcome.Clip == nil {
		t.Fatal("no overlay clip returned")
	}
	if outcome.Clip.MediaID != timeline.MediaSubtitle || outcome.Clip.TrackIndex != timeline.TrackSubtitles {
		t.Errorf("overlay = %s on track %d", outcome.Clip.MediaID, outcome.Clip.TrackIndex)
	}
	if outcome.Clip.StartTime != 2 || outcome.Clip.Duration != 4 {
		t.Errorf("overlay span = [%v +%v], want [2 +4]", outcome.Clip.StartTime, outcome.Clip.Duration)
	}
	if _, ok := engine.Get(outcome.Clip.ID); !ok {
		t.Error("overlay clip not placed on the timeline")
	}
}

func TestExecute_AddTransition(t *testing.T) {
	adapter, engine, _, _ := newAdapter(t, &fakeCodec{})

	outcome, err := adapter.Execute(context.Background(), "", Envelope{
		Type: ActionAddTransition,
		Args: args(t, AddTransitionArgs{Kind: "dissolve", At: 10}),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	clip := outcome.Clip
	if clip == nil {
		t.Fatal("no clip returned")
	}
	if clip.MediaID != timeline.MediaTransition || clip.TrackIndex != timeline.TrackOverlay {
		t.Errorf("clip = %s on track %d", clip.MediaID, clip.TrackIndex)
	}
	if clip.Duration != 1 {
		t.Errorf("Duration = %v, want default 1", clip.Duration)
	}
	if clip.Name != "Dissolve Transition" {
		t.Errorf("Name = %q", clip.Name)
	}
	if len(engine.Clips()) != 1 {
		t.Error("transition not on the timeline")
	}
}

func TestExecute_AdjustAudio(t *testing.T) {
	adapter, _, rec, mediaID := newAdapter(t, &fakeCodec{})

	outcome, err := adapter.Execute(context.Background(), mediaID, Envelope{
		Type: ActionAdjustAudio,
		Args: args(t, AdjustAudioArgs{Adjustment: "increase"}),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	settle(t, rec)

	if outcome.Clip == nil || outcome.Clip.MediaID != timeline.MediaAudioEffect {
		t.Error("no audio-effect marker placed")
	}
	if outcome.Clip.Name != "Volume 150%" {
		t.Errorf("marker name = %q", outcome.Clip.Name)
	}
}

func TestExecute_GenerateThumbnail(t *testing.T) {
	thumb := filepath.Join(t.TempDir(), "thumb.jpg")
	if err := os.WriteFile(thumb, []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}

	adapter, _, _, mediaID := newAdapter(t, &fakeCodec{thumbPath: thumb})

	outcome, err := adapter.Execute(context.Background(), mediaID, Envelope{
		Type: ActionGenerateThumbnail,
		Args: args(t, GenerateThumbnailArgs{Timestamp: 3}),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if outcome.Thumbnail != thumb {
		t.Errorf("Thumbnail = %q, want %q", outcome.Thumbnail, thumb)
	}

	item, _ := adapter.library.Get(context.Background(), mediaID)
	if item.Thumbnail != thumb {
		t.Error("thumbnail not persisted on the media item")
	}
}

func TestExecute_AnalyzeVideo(t *testing.T) {
	adapter, _, _, mediaID := newAdapter(t, &fakeCodec{probe: &codec.ProbeResult{
		Duration: 30, Width: 1920, Height: 1080, Codec: "h264", FrameRate: 29.97,
	}})

	outcome, err := adapter.Execute(context.Background(), mediaID, Envelope{Type: ActionAnalyzeVideo})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if outcome.Analysis == nil || outcome.Analysis.Width != 1920 {
		t.Errorf("Analysis = %+v", outcome.Analysis)
	}
	if outcome.Summary == "" {
		t.Error("empty summary")
	}
}

func TestExecute_Rejections(t *testing.T) {
	adapter, _, _, mediaID := newAdapter(t, &fakeCodec{})
	ctx := context.Background()

	tests := []struct {
		name string
		env  Envelope
	}{
		{"unknown action", Envelope{Type: "explode"}},
		{"subtitles empty text", Envelope{Type: ActionAddSubtitles, Args: args(t, AddSubtitlesArgs{})}},
		{"subtitles bad position", Envelope{Type: ActionAddSubtitles, Args: args(t, AddSubtitlesArgs{Text: "x", Position: "left"})}},
		{"trim inverted", Envelope{Type: ActionTrimVideo, Args: args(t, TrimVideoArgs{Start: 5, End: 2})}},
		{"transition bad kind", Envelope{Type: ActionAddTransition, Args: args(t, AddTransitionArgs{Kind: "explode"})}},
		{"audio no adjustment", Envelope{Type: ActionAdjustAudio, Args: args(t, AdjustAudioArgs{})}},
		{"audio bad direction", Envelope{Type: ActionAdjustAudio, Args: args(t, AdjustAudioArgs{Adjustment: "sideways"})}},
		{"unknown args field", Envelope{Type: ActionTrimVideo, Args: json.RawMessage(`{"bogus": true}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := adapter.Execute(ctx, mediaID, tt.env); err == nil {
				t.Error("Execute() accepted an invalid command")
			}
		})
	}
}

func TestArgDefaults(t *testing.T) {
	sub := AddSubtitlesArgs{Text: "x", Start: 3}
	if err := sub.validate(); err != nil {
		t.Fatal(err)
	}
	if sub.Position != "bottom" {
		t.Errorf("Position = %q, want bottom", sub.Position)
	}
	if sub.End != 8 {
		t.Errorf("End = %v, want start+5", sub.End)
	}

	tr := AddTransitionArgs{}
	if err := tr.validate(); err != nil {
		t.Fatal(err)
	}
	if tr.Kind != "fade" || tr.Duration != 1 {
		t.Errorf("transition defaults = %q/%v", tr.Kind, tr.Duration)
	}

	thumb := GenerateThumbnailArgs{}
	if err := thumb.validate(); err != nil {
		t.Fatal(err)
	}
	if thumb.Timestamp != 1 {
		t.Errorf("Timestamp = %v, want default 1", thumb.Timestamp)
	}
}

func TestAdjustAudioGain(t *testing.T) {
	tests := []struct {
		args    AdjustAudioArgs
		want    float64
		wantErr bool
	}{
		{AdjustAudioArgs{Adjustment: "increase"}, 1.5, false},
		{AdjustAudioArgs{Adjustment: "decrease"}, 0.5, false},
		{AdjustAudioArgs{Volume: 200}, 2.0, false},
		{AdjustAudioArgs{Volume: 75}, 0.75, false},
		{AdjustAudioArgs{}, 0, true},
	}

	for _, tt := range tests {
		got, err := tt.args.gain()
		if tt.wantErr {
			if err == nil {
				t.Errorf("gain(%+v) succeeded, want error", tt.args)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("gain(%+v) = %v, %v, want %v", tt.args, got, err, tt.want)
		}
	}
}

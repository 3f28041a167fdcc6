package codec

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Stub is a pass-through engine for hosts without ffmpeg installed.
// Processing operations return the source binary unchanged; probing fails so
// imports requiring a duration are rejected cleanly.
type Stub struct {
	logger *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	return nil, fmt.Errorf("codec engine unavailable: cannot probe %s", filepath.Base(path))
}

func (s *Stub) Duration(ctx context.Context, path string) (float64, error) {
	return 0, fmt.Errorf("codec engine unavailable: cannot probe %s", filepath.Base(path))
}

func (s *Stub) Trim(ctx context.Context, src string, start, end float64, progress ProgressFunc) (*ProcessedMedia, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	s.log("trim", src)
	if progress != nil {
		progress(1)
	}
	return &ProcessedMedia{
		Path:          src,
		SuggestedName: "processed_" + filepath.Base(src),
		Duration:      end - start,
	}, nil
}

func (s *Stub) AdjustVolume(ctx context.Context, src string, gain float64, progress ProgressFunc) (*ProcessedMedia, error) {
	s.log("volume", src)
	if progress != nil {
		progress(1)
	}
	return &ProcessedMedia{Path: src, SuggestedName: "processed_" + filepath.Base(src)}, nil
}

func (s *Stub) BurnSubtitles(ctx context.Context, src string, cues []Cue, progress ProgressFunc) (*ProcessedMedia, error) {
	s.log("subtitles", src)
	if progress != nil {
		progress(1)
	}
	return &ProcessedMedia{Path: src, SuggestedName: "processed_" + filepath.Base(src)}, nil
}

func (s *Stub) Thumbnail(ctx context.Context, src string, timestamp float64) (string, error) {
	return "", fmt.Errorf("codec engine unavailable: cannot capture frame")
}

func (s *Stub) log(op, src string) {
	if s.logger != nil {
		s.logger.Info("codec stub: operation is a pass-through", "op", op, "src", filepath.Base(src))
	}
}

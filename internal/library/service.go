package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DurationProber reports the nominal duration of a media binary in seconds.
// The codec package provides the ffprobe-backed implementation.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ClipCascade is the timeline hook for media removal: deleting a library item
// must remove every clip that references it.
type ClipCascade interface {
	DeleteByMedia(mediaID string) int
}

// LibraryService is the catalog surface consumed by the HTTP layer; fakes
// satisfy it in handler tests.
type LibraryService interface {
	Import(ctx context.Context, path, displayName string) (*MediaItem, error)
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*MediaItem, error)
	List(ctx context.Context) ([]*MediaItem, error)
	Count(ctx context.Context) (int, error)
	ReplaceBinary(ctx context.Context, id, name, path string, duration float64) (*MediaItem, error)
	SetThumbnail(ctx context.Context, id, thumbnail string) error
}

var _ LibraryService = (*Service)(nil)

type Service struct {
	repo     Repository
	prober   DurationProber
	cascade  ClipCascade
	mediaDir string
	logger   *slog.Logger
}

func NewService(repo Repository, prober DurationProber, mediaDir string, logger *slog.Logger) *Service {
	return &Service{repo: repo, prober: prober, mediaDir: mediaDir, logger: logger}
}

// SetCascade wires the timeline engine's cascade delete. Set once at startup.
func (s *Service) SetCascade(cascade ClipCascade) {
	s.cascade = cascade
}

// Import copies a source file into the library's media directory and catalogs
// it. Video and audio are probed for duration; a failed probe aborts the
// import and leaves nothing behind.
func (s *Service) Import(ctx context.Context, path, displayName string) (*MediaItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source is a directory")
	}

	kind := KindForFile(path)
	if kind == "" {
		return nil, fmt.Errorf("unsupported media type: %s", filepath.Ext(path))
	}

	var duration float64
	if kind != KindImage {
		if s.prober == nil {
			return nil, fmt.Errorf("no duration prober configured")
		}
		duration, err = s.prober.Duration(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("cannot probe media duration: %w", err)
		}
		if duration <= 0 {
			return nil, fmt.Errorf("invalid media duration %v", duration)
		}
	}

	if displayName == "" {
		displayName = filepath.Base(path)
	}

	id := NewID()
	dest := filepath.Join(s.mediaDir, id+filepath.Ext(path))
	if err := copyFile(path, dest); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("cannot copy media into library: %w", err)
	}

	item := &MediaItem{
		ID:         id,
		Name:       displayName,
		Kind:       kind,
		Duration:   duration,
		Size:       info.Size(),
		Path:       dest,
		ImportedAt: time.Now(),
	}

	if err := s.repo.CreateMedia(ctx, item); err != nil {
		os.Remove(dest)
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("media imported",
			"media_id", item.ID, "kind", kind, "duration", duration, "name", displayName)
	}
	return item, nil
}

// Remove deletes a library item, its binary, and every timeline clip that
// references it.
func (s *Service) Remove(ctx context.Context, id string) error {
	item, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("media not found")
	}

	if err := s.repo.DeleteMedia(ctx, id); err != nil {
		return err
	}

	removed := 0
	if s.cascade != nil {
		removed = s.cascade.DeleteByMedia(id)
	}

	if err := os.Remove(item.Path); err != nil && !os.IsNotExist(err) {
		if s.logger != nil {
			s.logger.Warn("failed to remove media binary", "media_id", id, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("media removed", "media_id", id, "clips_removed", removed)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*MediaItem, error) {
	return s.repo.GetMedia(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*MediaItem, error) {
	return s.repo.ListMedia(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.CountMedia(ctx)
}

// ReplaceBinary swaps a media item's underlying binary for a processed one,
// keeping the item's id. Only the reconciler's merge step calls this.
func (s *Service) ReplaceBinary(ctx context.Context, id, name, path string, duration float64) (*MediaItem, error) {
	item, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	if err := s.repo.UpdateMediaBinary(ctx, id, name, path, duration, size); err != nil {
		return nil, err
	}

	oldPath := item.Path
	item.Name = name
	item.Path = path
	item.Duration = duration
	item.Size = size

	if oldPath != path {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			if s.logger != nil {
				s.logger.Warn("failed to remove stale media binary", "media_id", id, "error", err)
			}
		}
	}

	return item, nil
}

// SetThumbnail records a still frame path for a media item.
func (s *Service) SetThumbnail(ctx context.Context, id, thumbnail string) error {
	item, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("media not found")
	}
	return s.repo.UpdateMediaThumbnail(ctx, id, thumbnail)
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

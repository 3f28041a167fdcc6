// Package playback streams library media binaries to the editor's preview
// player with HTTP range support, so the player can seek without downloading
// whole files.
package playback

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cutroom/cutroom-agent/internal/library"
)

// MediaResolver looks up library items for streaming. Satisfied by the
// library service.
type MediaResolver interface {
	Get(ctx context.Context, id string) (*library.MediaItem, error)
}

type Streamer struct {
	resolver MediaResolver
	logger   *slog.Logger
}

func NewStreamer(resolver MediaResolver, logger *slog.Logger) *Streamer {
	return &Streamer{resolver: resolver, logger: logger}
}

// ServeMedia resolves a media item by id and streams its binary. A missing
// item or missing binary yields 404.
func (s *Streamer) ServeMedia(w http.ResponseWriter, r *http.Request, mediaID string) {
	item, err := s.resolver.Get(r.Context(), mediaID)
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return
	}
	s.ServeFile(w, r, item.Path)
}

// ServeFile streams a file with Accept-Ranges support. Also used for
// thumbnails and exported artifacts.
func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		http.Error(w, "cannot open file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "cannot stat file", http.StatusInternalServerError)
		return
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	sp, err := resolveSpan(r.Header.Get("Range"), size)
	switch {
	case err == errUnsatisfiable:
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	case err == errBadRange:
		// Malformed ranges fall back to a full response.
		sp = nil
	}

	if sp == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil && s.logger != nil {
			s.logger.Debug("playback copy interrupted", "error", err)
		}
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", sp.length))
	w.Header().Set("Content-Range", sp.contentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(sp.start, io.SeekStart); err != nil {
		return
	}
	if _, err := io.CopyN(w, file, sp.length); err != nil && s.logger != nil {
		s.logger.Debug("playback copy interrupted", "error", err)
	}
}

// Package library maintains the catalog of imported source media, decoupled
// from timeline placement. Clips reference library entries by id; the library
// owns each entry's underlying binary.
package library

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
	KindImage = "image"
)

// MediaItem is one imported source asset. Path is the opaque handle to the
// underlying binary; clips reference the item by ID and never copy the binary.
type MediaItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Duration   float64   `json:"duration"` // seconds; 0 = unknown (stills)
	Size       int64     `json:"size"`
	Path       string    `json:"path"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	ImportedAt time.Time `json:"imported_at"`
}

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ProcessingJob records one asynchronous codec-engine request against a media
// item. Status transitions pending -> running -> completed|failed; a completed
// job means the result was merged into the library and timeline.
type ProcessingJob struct {
	ID        string    `json:"id"`
	MediaID   string    `json:"media_id"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// NewID returns a fresh identifier. IDs are never reused, even after deletion.
func NewID() string {
	return uuid.NewString()
}

// KindForFile maps a filename to a media kind, or "" when unsupported.
func KindForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case videoExtensions[ext]:
		return KindVideo
	case audioExtensions[ext]:
		return KindAudio
	case imageExtensions[ext]:
		return KindImage
	default:
		return ""
	}
}

package api

import (
	"time"

	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State           string       `json:"state"`
	LastError       string       `json:"last_error,omitempty"`
	MediaCount      int          `json:"media_count"`
	ClipCount       int          `json:"clip_count"`
	TimelineVersion uint64       `json:"timeline_version"`
	ProjectDuration float64      `json:"project_duration"`
	JobsRunning     int          `json:"jobs_running"`
	ActiveJob       *JobResponse `json:"active_job,omitempty"`
}

type ImportMediaRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

type MediaResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	ImportedAt string  `json:"imported_at"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

type TracksResponse struct {
	Tracks []timeline.Track `json:"tracks"`
}

type TrackFlagsRequest struct {
	Muted   *bool `json:"muted,omitempty"`
	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`
}

// ClipResponse mirrors a timeline clip plus derived fields the editor reads
// directly: the exclusive end point and the trim drift warning.
type ClipResponse struct {
	timeline.Clip
	End          float64 `json:"end"`
	TrimMismatch bool    `json:"trim_mismatch,omitempty"`
}

type TimelineResponse struct {
	Clips    []ClipResponse `json:"clips"`
	Version  uint64         `json:"version"`
	Duration float64        `json:"duration"`
}

type InsertClipRequest struct {
	MediaID    string  `json:"media_id"`
	TrackIndex int     `json:"track_index"`
	DropTime   float64 `json:"drop_time"`
}

type MoveClipRequest struct {
	StartTime  float64 `json:"start_time"`
	TrackIndex *int    `json:"track_index,omitempty"`
}

type ResizeClipRequest struct {
	Duration  float64 `json:"duration"`
	FromStart bool    `json:"from_start,omitempty"`
}

type SplitClipRequest struct {
	SplitTime float64 `json:"split_time"`
}

type SplitClipResponse struct {
	First   ClipResponse `json:"first"`
	Second  ClipResponse `json:"second"`
	Version uint64       `json:"version"`
}

type ClipFlagsRequest struct {
	Locked  *bool `json:"locked,omitempty"`
	Muted   *bool `json:"muted,omitempty"`
	Visible *bool `json:"visible,omitempty"`
}

type ClipMutationResponse struct {
	Clip    ClipResponse `json:"clip"`
	Version uint64       `json:"version"`
}

type JobResponse struct {
	ID        string `json:"id"`
	MediaID   string `json:"media_id"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ExportRequest struct {
	ProjectName string  `json:"project_name"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

type ExportResponse struct {
	Status          string   `json:"status"`
	OutputPath      string   `json:"output_path"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func MediaToResponse(m *library.MediaItem) MediaResponse {
	return MediaResponse{
		ID:         m.ID,
		Name:       m.Name,
		Kind:       m.Kind,
		Duration:   m.Duration,
		Size:       m.Size,
		Thumbnail:  m.Thumbnail,
		ImportedAt: m.ImportedAt.Format(time.RFC3339),
	}
}

func ClipToResponse(c timeline.Clip) ClipResponse {
	return ClipResponse{
		Clip:         c,
		End:          c.End(),
		TrimMismatch: c.TrimMismatch(),
	}
}

func JobToResponse(j *library.ProcessingJob) JobResponse {
	return JobResponse{
		ID:        j.ID,
		MediaID:   j.MediaID,
		Operation: j.Operation,
		Status:    j.Status,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

// Package reconcile runs codec operations off the request path and merges
// their results back into the library and timeline once they complete.
//
// One operation may be in flight per media item; requests against a busy item
// are rejected up front rather than queued. Results referencing a media id
// that no longer exists by completion time are dropped without touching any
// state.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cutroom/cutroom-agent/internal/codec"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Request describes one processing operation against a media item. Operation
// selects which parameter fields are read.
type Request struct {
	Operation string      `json:"operation"`
	Start     float64     `json:"start,omitempty"` // trim
	End       float64     `json:"end,omitempty"`   // trim
	Gain      float64     `json:"gain,omitempty"`  // volume, 1.0 = unchanged
	Cues      []codec.Cue `json:"cues,omitempty"`  // subtitles
}

type Reconciler struct {
	library *library.Service
	engine  *timeline.Engine
	codec   codec.Engine
	repo    library.Repository
	logger  *slog.Logger

	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]string // media id -> job id
	paused   bool
	onReset  func()
	wg       sync.WaitGroup
}

func NewReconciler(lib *library.Service, engine *timeline.Engine, eng codec.Engine, repo library.Repository, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Reconciler{
		library:  lib,
		engine:   engine,
		codec:    eng,
		repo:     repo,
		logger:   logger,
		timeout:  timeout,
		inflight: make(map[string]string),
	}
}

// OnPlayerReset registers fn to run after a result is merged into live
// state. Clients use it to reload whatever is currently playing.
func (r *Reconciler) OnPlayerReset(fn func()) {
	r.mu.Lock()
	r.onReset = fn
	r.mu.Unlock()
}

func (r *Reconciler) notifyReset() {
	r.mu.Lock()
	fn := r.onReset
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Pause stops accepting new operations. Running ones finish normally.
func (r *Reconciler) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("processing paused")
	}
}

func (r *Reconciler) Resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("processing resumed")
	}
}

func (r *Reconciler) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// InFlight reports whether an operation is currently running for the media.
func (r *Reconciler) InFlight(mediaID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[mediaID]
	return ok
}

// Submit validates the request, records a pending job, and starts the
// operation in the background. The returned job can be polled by id.
func (r *Reconciler) Submit(ctx context.Context, mediaID string, req Request) (*library.ProcessingJob, error) {
	item, err := r.library.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("media not found")
	}
	if err := validate(item, req); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.paused {
		r.mu.Unlock()
		return nil, fmt.Errorf("processing is paused")
	}
	if jobID, busy := r.inflight[mediaID]; busy {
		r.mu.Unlock()
		return nil, fmt.Errorf("media is already being processed (job %s)", jobID)
	}

	now := time.Now()
	job := &library.ProcessingJob{
		ID:        library.NewID(),
		MediaID:   mediaID,
		Operation: req.Operation,
		Status:    library.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.inflight[mediaID] = job.ID
	r.wg.Add(1)
	r.mu.Unlock()

	if err := r.repo.CreateJob(ctx, job); err != nil {
		r.release(mediaID)
		r.wg.Done()
		return nil, err
	}

	go r.run(job.ID, item, req)

	if r.logger != nil {
		r.logger.Info("processing job submitted",
			"job_id", job.ID, "media_id", mediaID, "op", req.Operation)
	}
	return job, nil
}

// Wait blocks until all running operations finish or the context expires.
func (r *Reconciler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reconciler) run(jobID string, item *library.MediaItem, req Request) {
	defer r.wg.Done()
	defer r.release(item.ID)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// Job rows outlive the operation: status, progress and merge writes run
	// on their own context so a timed-out operation is still recorded as
	// failed instead of stranding the row in running.
	store := context.Background()

	r.setStatus(store, jobID, library.JobStatusRunning, "")

	lastPct := -1
	progress := func(fraction float64) {
		pct := int(fraction * 100)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		if pct == lastPct {
			return
		}
		lastPct = pct
		if err := r.repo.UpdateJobProgress(store, jobID, pct); err != nil && r.logger != nil {
			r.logger.Warn("failed to record job progress", "job_id", jobID, "error", err)
		}
	}

	result, err := r.dispatch(ctx, item, req, progress)
	if err != nil {
		r.setStatus(store, jobID, library.JobStatusFailed, err.Error())
		if r.logger != nil {
			r.logger.Error("processing job failed",
				"job_id", jobID, "media_id", item.ID, "op", req.Operation, "error", err)
		}
		return
	}

	r.merge(store, jobID, item.ID, req, result)
}

func (r *Reconciler) dispatch(ctx context.Context, item *library.MediaItem, req Request, progress codec.ProgressFunc) (*codec.ProcessedMedia, error) {
	switch req.Operation {
	case codec.OpTrim:
		return r.codec.Trim(ctx, item.Path, req.Start, req.End, progress)
	case codec.OpVolume:
		return r.codec.AdjustVolume(ctx, item.Path, req.Gain, progress)
	case codec.OpSubtitles:
		return r.codec.BurnSubtitles(ctx, item.Path, req.Cues, progress)
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Operation)
	}
}

// merge applies a finished result to the library and timeline. The media is
// re-fetched first: if it was removed while the operation ran, the result is
// discarded and nothing is mutated.
func (r *Reconciler) merge(ctx context.Context, jobID, mediaID string, req Request, result *codec.ProcessedMedia) {
	duration := result.Duration
	if duration <= 0 {
		if item, err := r.library.Get(ctx, mediaID); err == nil && item != nil {
			duration = item.Duration
		}
	}

	item, err := r.library.ReplaceBinary(ctx, mediaID, result.SuggestedName, result.Path, duration)
	if err != nil {
		r.setStatus(ctx, jobID, library.JobStatusFailed, err.Error())
		return
	}
	if item == nil {
		// Stale result: the media was removed mid-flight.
		r.setStatus(ctx, jobID, library.JobStatusCompleted, "")
		if r.logger != nil {
			r.logger.Info("processing result discarded, media no longer exists",
				"job_id", jobID, "media_id", mediaID)
		}
		return
	}

	update := timeline.MediaUpdate{Name: item.Name}
	if req.Operation == codec.OpTrim {
		update.Trim = &timeline.TrimBounds{
			Duration:  item.Duration,
			TrimStart: req.Start,
			TrimEnd:   req.End,
		}
	}
	touched := r.engine.ApplyMediaUpdate(mediaID, update)

	r.setStatus(ctx, jobID, library.JobStatusCompleted, "")
	if r.logger != nil {
		r.logger.Info("processing job completed",
			"job_id", jobID, "media_id", mediaID, "op", req.Operation, "clips_updated", touched)
	}
	r.notifyReset()
}

func (r *Reconciler) release(mediaID string) {
	r.mu.Lock()
	delete(r.inflight, mediaID)
	r.mu.Unlock()
}

func (r *Reconciler) setStatus(ctx context.Context, jobID, status, errMsg string) {
	if err := r.repo.UpdateJobStatus(ctx, jobID, status, errMsg); err != nil && r.logger != nil {
		r.logger.Warn("failed to record job status", "job_id", jobID, "status", status, "error", err)
	}
}

func validate(item *library.MediaItem, req Request) error {
	switch req.Operation {
	case codec.OpTrim:
		if err := codec.ValidateRange(req.Start, req.End); err != nil {
			return err
		}
		if item.Duration > 0 && req.Start >= item.Duration {
			return fmt.Errorf("trim start %v is past the end of the media", req.Start)
		}
	case codec.OpVolume:
		if req.Gain <= 0 {
			return fmt.Errorf("volume gain must be positive, got %v", req.Gain)
		}
	case codec.OpSubtitles:
		if len(req.Cues) == 0 {
			return fmt.Errorf("no subtitle cues provided")
		}
		for i, c := range req.Cues {
			if err := codec.ValidateRange(c.Start, c.End); err != nil {
				return fmt.Errorf("cue %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown operation %q", req.Operation)
	}
	return nil
}

package timeline

import (
	"log/slog"
	"sync"
)

// MediaRef carries the library attributes the engine needs to place a clip.
// The engine never holds the media binary, only the reference.
type MediaRef struct {
	ID        string
	Name      string
	Kind      string
	Duration  float64 // seconds; 0 = unknown
	Thumbnail string
}

// SplitResult holds the two clips that replace a split clip.
type SplitResult struct {
	First  Clip
	Second Clip
}

// MediaUpdate describes the clip-side effect of a processed-media merge.
// Trim is non-nil only when the processing operation changed the media's
// nominal duration.
type MediaUpdate struct {
	Name string
	Trim *TrimBounds
}

// TrimBounds is the source region a trim operation kept.
type TrimBounds struct {
	Duration  float64
	TrimStart float64
	TrimEnd   float64
}

// Engine owns the clip collection. All mutations are synchronous and atomic
// under the engine lock; invalid requests return false and change nothing.
// Callers observe success either from the returned flag or from Version.
type Engine struct {
	mu           sync.Mutex
	registry     *Registry
	clips        []*Clip
	version      uint64
	baseDuration float64
	logger       *slog.Logger

	onPrimaryCleared []func()
}

func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	return &Engine{registry: registry, logger: logger}
}

// OnPrimaryVideoCleared registers a callback fired when the last video clip
// on the primary track is deleted. The player and composed-output cache
// subscribe to reset playback state.
func (e *Engine) OnPrimaryVideoCleared(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPrimaryCleared = append(e.onPrimaryCleared, fn)
}

// SetBaseDuration sets the duration reported for an empty timeline,
// typically the primary media's nominal duration.
func (e *Engine) SetBaseDuration(d float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d < 0 {
		d = 0
	}
	e.baseDuration = d
}

// Version returns a counter incremented by every state-changing operation.
// A rejected request leaves it untouched.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Tracks returns the engine's lane registry.
func (e *Engine) Tracks() *Registry {
	return e.registry
}

// Clips returns a snapshot of the clip set in display order.
func (e *Engine) Clips() []Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Clip, len(e.clips))
	for i, c := range e.clips {
		out[i] = *c
	}
	return out
}

// Get returns a snapshot of one clip.
func (e *Engine) Get(id string) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(id); i >= 0 {
		return *e.clips[i], true
	}
	return Clip{}, false
}

// InsertFromLibrary places a media item on a track at dropTime. Unknown
// durations fall back to kind defaults: 5 s for stills, 60 s for audio.
// No overlap detection is performed; concurrent clips on a track may overlap.
func (e *Engine) InsertFromLibrary(media MediaRef, trackIndex int, dropTime float64) Clip {
	duration := media.Duration
	if duration <= 0 {
		switch media.Kind {
		case KindAudio:
			duration = 60
		default:
			duration = 5
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	clip := &Clip{
		ID:               newClipID(),
		MediaID:          media.ID,
		Name:             media.Name,
		Kind:             media.Kind,
		TrackIndex:       e.registry.clampIndex(trackIndex),
		StartTime:        dropTime,
		Duration:         duration,
		OriginalDuration: duration,
		TrimStart:        0,
		TrimEnd:          duration,
		Color:            clipColor(media.Kind, e.countKind(media.Kind)),
		Thumbnail:        media.Thumbnail,
		Visible:          true,
	}
	clip.sanitize()

	e.clips = append(e.clips, clip)
	e.version++

	// The primary media's nominal duration becomes the floor ProjectDuration
	// reports once the timeline is emptied again.
	if clip.Kind == KindVideo && clip.TrackIndex == TrackPrimaryVideo && media.Duration > 0 {
		e.baseDuration = media.Duration
	}

	if e.logger != nil {
		e.logger.Info("clip inserted",
			"clip_id", clip.ID, "media_id", media.ID, "track", clip.TrackIndex,
			"start", clip.StartTime, "duration", clip.Duration)
	}
	return *clip
}

// InsertOverlay places a synthetic clip (subtitle, transition or audio-effect
// marker) that references no library entry.
func (e *Engine) InsertOverlay(mediaID, name, kind string, trackIndex int, start, duration float64, color string) Clip {
	e.mu.Lock()
	defer e.mu.Unlock()

	clip := &Clip{
		ID:               newClipID(),
		MediaID:          mediaID,
		Name:             name,
		Kind:             kind,
		TrackIndex:       e.registry.clampIndex(trackIndex),
		StartTime:        start,
		Duration:         duration,
		OriginalDuration: duration,
		Color:            color,
		Visible:          true,
	}
	clip.sanitize()

	e.clips = append(e.clips, clip)
	e.version++

	if e.logger != nil {
		e.logger.Info("overlay inserted",
			"clip_id", clip.ID, "media_id", mediaID, "track", clip.TrackIndex,
			"start", clip.StartTime, "duration", clip.Duration)
	}
	return *clip
}

// Move repositions a clip. A nil newTrackIndex keeps the current lane.
// Unknown ids and locked clips are no-ops. Negative start times clamp to 0;
// overlapping placement is permitted.
func (e *Engine) Move(id string, newStartTime float64, newTrackIndex *int) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 || e.clips[i].Locked {
		return Clip{}, false
	}

	clip := e.clips[i]
	clip.StartTime = clampStart(newStartTime)
	if newTrackIndex != nil {
		clip.TrackIndex = e.registry.clampIndex(*newTrackIndex)
	}
	e.version++

	return *clip, true
}

// Resize changes a clip's timeline footprint. With fromStart the end point
// stays anchored and the head moves; otherwise only the tail moves. The new
// duration is floored at MinClipDuration. Trim bounds are left untouched;
// see Clip.TrimMismatch.
func (e *Engine) Resize(id string, newDuration float64, fromStart bool) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 || e.clips[i].Locked {
		return Clip{}, false
	}

	clip := e.clips[i]
	newDuration = clampDuration(newDuration)

	if fromStart {
		timeDiff := clip.Duration - newDuration
		clip.StartTime = clampStart(clip.StartTime + timeDiff)
	}
	clip.Duration = newDuration
	e.version++

	return *clip, true
}

// Split cuts a clip at an absolute timeline position strictly inside its
// span. The original clip is removed and its id retired; two new clips cover
// the same span. Boundary or out-of-range split times are no-ops.
func (e *Engine) Split(id string, splitTime float64) (SplitResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 || e.clips[i].Locked {
		return SplitResult{}, false
	}

	original := e.clips[i]
	splitPoint := splitTime - original.StartTime
	if splitPoint <= 0 || splitPoint >= original.Duration {
		return SplitResult{}, false
	}

	first := *original
	first.ID = newClipID()
	first.Duration = splitPoint

	second := *original
	second.ID = newClipID()
	second.StartTime = original.StartTime + splitPoint
	second.Duration = original.Duration - splitPoint

	e.clips[i] = &first
	e.clips = append(e.clips[:i+1], append([]*Clip{&second}, e.clips[i+1:]...)...)
	e.version++

	if e.logger != nil {
		e.logger.Info("clip split",
			"clip_id", id, "at", splitTime, "first", first.ID, "second", second.ID)
	}
	return SplitResult{First: first, Second: second}, true
}

// Delete removes a clip unconditionally; the lock flag is advisory for
// editing operations, not deletion. Returns false when the id is unknown.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()

	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return false
	}

	deleted := *e.clips[i]
	e.clips = append(e.clips[:i], e.clips[i+1:]...)
	e.version++

	cleared := deleted.Kind == KindVideo &&
		deleted.TrackIndex == TrackPrimaryVideo &&
		!e.hasPrimaryVideo()
	callbacks := e.onPrimaryCleared
	e.mu.Unlock()

	if cleared {
		if e.logger != nil {
			e.logger.Info("primary video cleared", "clip_id", id)
		}
		for _, fn := range callbacks {
			fn()
		}
	}
	return true
}

// DeleteByMedia removes every clip referencing a media id. Used by the
// library's cascade when a media item is removed.
func (e *Engine) DeleteByMedia(mediaID string) int {
	e.mu.Lock()

	removed := 0
	removedPrimary := false
	kept := e.clips[:0]
	for _, c := range e.clips {
		if c.MediaID == mediaID {
			removed++
			if c.Kind == KindVideo && c.TrackIndex == TrackPrimaryVideo {
				removedPrimary = true
			}
			continue
		}
		kept = append(kept, c)
	}
	e.clips = kept
	if removed > 0 {
		e.version++
	}

	cleared := removedPrimary && !e.hasPrimaryVideo()
	callbacks := e.onPrimaryCleared
	e.mu.Unlock()

	if cleared {
		if e.logger != nil {
			e.logger.Info("primary video cleared", "media_id", mediaID)
		}
		for _, fn := range callbacks {
			fn()
		}
	}
	return removed
}

// UpdateFlags sets the advisory clip flags; nil fields are left unchanged.
func (e *Engine) UpdateFlags(id string, locked, muted, visible *bool) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return Clip{}, false
	}

	clip := e.clips[i]
	if locked != nil {
		clip.Locked = *locked
	}
	if muted != nil {
		clip.Muted = *muted
	}
	if visible != nil {
		clip.Visible = *visible
	}
	e.version++

	return *clip, true
}

// ApplyMediaUpdate rewrites every clip referencing mediaID after a processed
// binary replaced the original. Returns the number of clips touched; zero
// means the referencing clips were deleted while processing ran, which the
// reconciler treats as a silent no-op.
func (e *Engine) ApplyMediaUpdate(mediaID string, update MediaUpdate) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	touched := 0
	for _, c := range e.clips {
		if c.MediaID != mediaID {
			continue
		}
		if update.Name != "" {
			c.Name = update.Name
		}
		if update.Trim != nil {
			c.Duration = clampDuration(update.Trim.Duration)
			c.OriginalDuration = update.Trim.Duration
			c.TrimStart = update.Trim.TrimStart
			c.TrimEnd = update.Trim.TrimEnd
		}
		touched++
	}
	if touched > 0 {
		e.version++
	}
	return touched
}

// ProjectDuration derives the timeline's total span: the maximum clip end
// across all clips, or the base duration when the timeline is empty. No
// editing buffer is added.
func (e *Engine) ProjectDuration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.clips) == 0 {
		return e.baseDuration
	}

	maxEnd := 0.0
	for _, c := range e.clips {
		if end := c.End(); end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd
}

func (e *Engine) indexOf(id string) int {
	for i, c := range e.clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) countKind(kind string) int {
	n := 0
	for _, c := range e.clips {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (e *Engine) hasPrimaryVideo() bool {
	for _, c := range e.clips {
		if c.Kind == KindVideo && c.TrackIndex == TrackPrimaryVideo {
			return true
		}
	}
	return false
}

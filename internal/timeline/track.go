package timeline

import "sync"

const (
	TrackKindVideo = "video"
	TrackKindAudio = "audio"
)

// Track indexes used by convention: the primary video lane carries the main
// footage, the overlay lane carries transition markers, the subtitle lane
// carries text overlays, and TrackAudio is the first audio lane.
const (
	TrackPrimaryVideo = 0
	TrackOverlay      = 1
	TrackSubtitles    = 2
	TrackAudio        = 3
	TrackAudioExtra   = 4
)

// Track is a fixed timeline lane. Mute/visibility/lock are presentation state
// and do not gate engine mutations; clip-level flags do.
type Track struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Height  int    `json:"height"`
	Muted   bool   `json:"muted"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

// Registry is the fixed, ordered set of lanes established at startup.
// The lane set never grows or shrinks during a session.
type Registry struct {
	mu     sync.RWMutex
	tracks []Track
}

// NewRegistry builds the editor's standard five-lane layout.
func NewRegistry() *Registry {
	return &Registry{
		tracks: []Track{
			{ID: "v1", Name: "Video 1", Kind: TrackKindVideo, Height: 60, Visible: true},
			{ID: "v2", Name: "Video 2", Kind: TrackKindVideo, Height: 60, Visible: true},
			{ID: "st", Name: "Subtitles", Kind: TrackKindVideo, Height: 30, Visible: true},
			{ID: "a1", Name: "Audio 1", Kind: TrackKindAudio, Height: 40, Visible: true},
			{ID: "a2", Name: "Audio 2", Kind: TrackKindAudio, Height: 40, Visible: true},
		},
	}
}

// List returns the lanes in display order.
func (r *Registry) List() []Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

// Get returns the lane at index, or false when out of range.
func (r *Registry) Get(index int) (Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.tracks) {
		return Track{}, false
	}
	return r.tracks[index], true
}

// Len returns the number of lanes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// SetMuted toggles a lane's mute flag. Presentation only.
func (r *Registry) SetMuted(index int, muted bool) bool {
	return r.update(index, func(t *Track) { t.Muted = muted })
}

// SetVisible toggles a lane's visibility flag. Presentation only.
func (r *Registry) SetVisible(index int, visible bool) bool {
	return r.update(index, func(t *Track) { t.Visible = visible })
}

// SetLocked toggles a lane's lock flag. Presentation only.
func (r *Registry) SetLocked(index int, locked bool) bool {
	return r.update(index, func(t *Track) { t.Locked = locked })
}

func (r *Registry) update(index int, fn func(*Track)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.tracks) {
		return false
	}
	fn(&r.tracks[index])
	return true
}

// clampIndex forces a track index into the registry's range.
func (r *Registry) clampIndex(index int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 {
		return 0
	}
	if index >= len(r.tracks) {
		return len(r.tracks) - 1
	}
	return index
}

package timeline

import (
	"math"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(NewRegistry(), nil)
}

func videoRef(id string, duration float64) MediaRef {
	return MediaRef{ID: id, Name: "clip " + id, Kind: KindVideo, Duration: duration}
}

func TestInsertFromLibrary_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		media        MediaRef
		wantDuration float64
	}{
		{"video keeps probed duration", MediaRef{ID: "v", Kind: KindVideo, Duration: 12.5}, 12.5},
		{"image defaults to 5s", MediaRef{ID: "i", Kind: KindImage}, 5},
		{"audio defaults to 60s", MediaRef{ID: "a", Kind: KindAudio}, 60},
		{"unknown video duration defaults to 5s", MediaRef{ID: "v2", Kind: KindVideo}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			clip := e.InsertFromLibrary(tt.media, 0, 0)

			if clip.Duration != tt.wantDuration {
				t.Errorf("Duration = %v, want %v", clip.Duration, tt.wantDuration)
			}
			if clip.TrimStart != 0 || clip.TrimEnd != tt.wantDuration {
				t.Errorf("trim bounds = [%v, %v], want [0, %v]", clip.TrimStart, clip.TrimEnd, tt.wantDuration)
			}
			if clip.OriginalDuration != tt.wantDuration {
				t.Errorf("OriginalDuration = %v, want %v", clip.OriginalDuration, tt.wantDuration)
			}
			if !clip.Visible {
				t.Error("new clip should be visible")
			}
		})
	}
}

func TestInsertFromLibrary_ClampsTrackAndStart(t *testing.T) {
	e := newTestEngine()

	clip := e.InsertFromLibrary(videoRef("m1", 10), 99, -3)
	if clip.TrackIndex != e.registry.Len()-1 {
		t.Errorf("TrackIndex = %d, want clamped to %d", clip.TrackIndex, e.registry.Len()-1)
	}
	if clip.StartTime != 0 {
		t.Errorf("StartTime = %v, want 0", clip.StartTime)
	}
}

func TestMove(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 5)

	moved, ok := e.Move(clip.ID, 8.5, nil)
	if !ok {
		t.Fatal("Move() rejected a valid request")
	}
	if moved.StartTime != 8.5 {
		t.Errorf("StartTime = %v, want 8.5", moved.StartTime)
	}
	if moved.TrackIndex != 0 {
		t.Errorf("TrackIndex = %d, want unchanged 0", moved.TrackIndex)
	}

	track := 1
	moved, ok = e.Move(clip.ID, -4, &track)
	if !ok {
		t.Fatal("Move() rejected a valid request")
	}
	if moved.StartTime != 0 {
		t.Errorf("negative start not clamped: %v", moved.StartTime)
	}
	if moved.TrackIndex != 1 {
		t.Errorf("TrackIndex = %d, want 1", moved.TrackIndex)
	}
}

func TestMove_UnknownID(t *testing.T) {
	e := newTestEngine()
	before := e.Version()

	if _, ok := e.Move("nope", 1, nil); ok {
		t.Error("Move() accepted an unknown id")
	}
	if e.Version() != before {
		t.Error("rejected move bumped the version")
	}
}

func TestMove_AllowsOverlap(t *testing.T) {
	e := newTestEngine()
	a := e.InsertFromLibrary(videoRef("m1", 10), 0, 0)
	b := e.InsertFromLibrary(videoRef("m2", 10), 0, 20)

	if _, ok := e.Move(b.ID, 5, nil); !ok {
		t.Fatal("Move() rejected an overlapping placement")
	}

	got, _ := e.Get(b.ID)
	if got.StartTime != 5 {
		t.Errorf("StartTime = %v, want 5", got.StartTime)
	}
	if other, _ := e.Get(a.ID); other.StartTime != 0 {
		t.Errorf("neighbor moved: StartTime = %v", other.StartTime)
	}
}

func TestResize_TailOnly(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 4)

	resized, ok := e.Resize(clip.ID, 6, false)
	if !ok {
		t.Fatal("Resize() rejected a valid request")
	}
	if resized.StartTime != 4 {
		t.Errorf("StartTime = %v, want unchanged 4", resized.StartTime)
	}
	if resized.Duration != 6 {
		t.Errorf("Duration = %v, want 6", resized.Duration)
	}
}

func TestResize_FromStartAnchorsEnd(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 4)
	end := clip.End()

	resized, ok := e.Resize(clip.ID, 6, true)
	if !ok {
		t.Fatal("Resize() rejected a valid request")
	}
	if resized.Duration != 6 {
		t.Errorf("Duration = %v, want 6", resized.Duration)
	}
	if math.Abs(resized.End()-end) > 1e-9 {
		t.Errorf("end moved: %v, want %v", resized.End(), end)
	}
	if resized.StartTime != 8 {
		t.Errorf("StartTime = %v, want 8", resized.StartTime)
	}
}

func TestResize_Floor(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 0)

	resized, ok := e.Resize(clip.ID, 0.01, false)
	if !ok {
		t.Fatal("Resize() rejected a valid request")
	}
	if resized.Duration != MinClipDuration {
		t.Errorf("Duration = %v, want floor %v", resized.Duration, MinClipDuration)
	}
}

func TestResize_LeavesTrimBounds(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 0)

	resized, _ := e.Resize(clip.ID, 4, false)
	if resized.TrimStart != 0 || resized.TrimEnd != 10 {
		t.Errorf("trim bounds changed: [%v, %v]", resized.TrimStart, resized.TrimEnd)
	}
	if !resized.TrimMismatch() {
		t.Error("expected a trim drift warning after resize")
	}
}

func TestSplit(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 2)

	result, ok := e.Split(clip.ID, 6)
	if !ok {
		t.Fatal("Split() rejected a valid request")
	}

	if result.First.StartTime != 2 || result.First.Duration != 4 {
		t.Errorf("first = [%v +%v], want [2 +4]", result.First.StartTime, result.First.Duration)
	}
	if result.Second.StartTime != 6 || result.Second.Duration != 6 {
		t.Errorf("second = [%v +%v], want [6 +6]", result.Second.StartTime, result.Second.Duration)
	}

	if result.First.ID == clip.ID || result.Second.ID == clip.ID || result.First.ID == result.Second.ID {
		t.Error("split did not mint fresh ids")
	}
	if _, exists := e.Get(clip.ID); exists {
		t.Error("original id still resolves after split")
	}

	clips := e.Clips()
	if len(clips) != 2 {
		t.Fatalf("clip count = %d, want 2", len(clips))
	}
	if clips[0].ID != result.First.ID || clips[1].ID != result.Second.ID {
		t.Error("split pieces out of order")
	}
}

func TestSplit_Boundaries(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 2)

	for _, at := range []float64{2, 12, 0, 15} {
		before := e.Version()
		if _, ok := e.Split(clip.ID, at); ok {
			t.Errorf("Split(at=%v) accepted a boundary cut", at)
		}
		if e.Version() != before {
			t.Errorf("Split(at=%v) bumped the version on rejection", at)
		}
	}
}

func TestLockedClipRejectsEdits(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 0)
	locked := true
	if _, ok := e.UpdateFlags(clip.ID, &locked, nil, nil); !ok {
		t.Fatal("UpdateFlags() failed")
	}

	if _, ok := e.Move(clip.ID, 5, nil); ok {
		t.Error("Move() succeeded on a locked clip")
	}
	if _, ok := e.Resize(clip.ID, 5, false); ok {
		t.Error("Resize() succeeded on a locked clip")
	}
	if _, ok := e.Split(clip.ID, 5); ok {
		t.Error("Split() succeeded on a locked clip")
	}

	// Deletion ignores the lock.
	if !e.Delete(clip.ID) {
		t.Error("Delete() refused a locked clip")
	}
}

func TestDelete_FiresPrimaryCleared(t *testing.T) {
	e := newTestEngine()
	fired := 0
	e.OnPrimaryVideoCleared(func() { fired++ })

	primary := e.InsertFromLibrary(videoRef("m1", 10), TrackPrimaryVideo, 0)
	overlay := e.InsertFromLibrary(videoRef("m2", 10), TrackOverlay, 0)

	e.Delete(overlay.ID)
	if fired != 0 {
		t.Fatal("callback fired for a non-primary delete")
	}

	e.Delete(primary.ID)
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
}

func TestDelete_KeepsCallbackQuietWhilePrimaryRemains(t *testing.T) {
	e := newTestEngine()
	fired := 0
	e.OnPrimaryVideoCleared(func() { fired++ })

	a := e.InsertFromLibrary(videoRef("m1", 10), TrackPrimaryVideo, 0)
	e.InsertFromLibrary(videoRef("m2", 10), TrackPrimaryVideo, 10)

	e.Delete(a.ID)
	if fired != 0 {
		t.Error("callback fired while a primary video clip remained")
	}
}

func TestDeleteByMedia(t *testing.T) {
	e := newTestEngine()
	e.InsertFromLibrary(videoRef("m1", 10), 0, 0)
	e.InsertFromLibrary(videoRef("m1", 10), 1, 5)
	keep := e.InsertFromLibrary(videoRef("m2", 10), 0, 20)

	if removed := e.DeleteByMedia("m1"); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	clips := e.Clips()
	if len(clips) != 1 || clips[0].ID != keep.ID {
		t.Errorf("unexpected survivors: %+v", clips)
	}

	before := e.Version()
	if removed := e.DeleteByMedia("m1"); removed != 0 {
		t.Errorf("second cascade removed %d clips", removed)
	}
	if e.Version() != before {
		t.Error("empty cascade bumped the version")
	}
}

func TestApplyMediaUpdate(t *testing.T) {
	e := newTestEngine()
	a := e.InsertFromLibrary(videoRef("m1", 30), 0, 0)
	e.InsertFromLibrary(videoRef("m2", 10), 0, 40)

	touched := e.ApplyMediaUpdate("m1", MediaUpdate{
		Name: "processed_clip.mp4",
		Trim: &TrimBounds{Duration: 8, TrimStart: 2, TrimEnd: 10},
	})
	if touched != 1 {
		t.Fatalf("touched = %d, want 1", touched)
	}

	got, _ := e.Get(a.ID)
	if got.Name != "processed_clip.mp4" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Duration != 8 || got.TrimStart != 2 || got.TrimEnd != 10 {
		t.Errorf("bounds = %v [%v, %v], want 8 [2, 10]", got.Duration, got.TrimStart, got.TrimEnd)
	}
	if got.TrimMismatch() {
		t.Error("merge left a trim drift warning")
	}
}

func TestApplyMediaUpdate_StaleID(t *testing.T) {
	e := newTestEngine()
	before := e.Version()

	if touched := e.ApplyMediaUpdate("gone", MediaUpdate{Name: "x"}); touched != 0 {
		t.Errorf("touched = %d, want 0", touched)
	}
	if e.Version() != before {
		t.Error("stale merge bumped the version")
	}
}

func TestProjectDuration(t *testing.T) {
	e := newTestEngine()

	if d := e.ProjectDuration(); d != 0 {
		t.Errorf("empty timeline duration = %v, want 0", d)
	}

	e.SetBaseDuration(42)
	if d := e.ProjectDuration(); d != 42 {
		t.Errorf("base duration = %v, want 42", d)
	}

	e.InsertFromLibrary(videoRef("m1", 10), 0, 2)
	e.InsertFromLibrary(videoRef("m2", 5), 1, 20)
	if d := e.ProjectDuration(); d != 25 {
		t.Errorf("duration = %v, want max clip end 25 with no buffer", d)
	}
}

func TestProjectDurationBaseFromPrimaryInsert(t *testing.T) {
	e := newTestEngine()

	clip := e.InsertFromLibrary(videoRef("m1", 12), TrackPrimaryVideo, 0)
	if !e.Delete(clip.ID) {
		t.Fatal("Delete failed")
	}
	if d := e.ProjectDuration(); d != 12 {
		t.Errorf("emptied timeline duration = %v, want primary media duration 12", d)
	}

	// Overlay-lane inserts do not move the floor.
	clip = e.InsertFromLibrary(videoRef("m2", 99), TrackOverlay, 0)
	e.Delete(clip.ID)
	if d := e.ProjectDuration(); d != 12 {
		t.Errorf("duration = %v, want 12 after overlay insert", d)
	}
}

func TestVersionTracksMutations(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertFromLibrary(videoRef("m1", 10), 0, 0)
	v := e.Version()

	e.Move(clip.ID, 3, nil)
	if e.Version() != v+1 {
		t.Error("accepted move did not bump version")
	}

	e.Move("unknown", 3, nil)
	if e.Version() != v+1 {
		t.Error("rejected move bumped version")
	}
}

func TestInsertOverlay(t *testing.T) {
	e := newTestEngine()
	clip := e.InsertOverlay(MediaTransition, "Fade Transition", KindVideo, TrackOverlay, 10, 1, "purple")

	if !clip.IsSynthetic() {
		t.Error("transition overlay should be synthetic")
	}
	if clip.TrackIndex != TrackOverlay {
		t.Errorf("TrackIndex = %d, want %d", clip.TrackIndex, TrackOverlay)
	}
	if clip.TrimStart != 0 || clip.TrimEnd != 0 {
		t.Error("overlay should carry no trim bounds")
	}
	if clip.TrimMismatch() {
		t.Error("overlay without trim bounds reported drift")
	}
}

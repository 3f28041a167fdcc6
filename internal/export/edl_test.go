package export

import (
	"strings"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func TestBuildCutList(t *testing.T) {
	clips := []timeline.Clip{
		{ID: "c2", MediaID: "m2", Name: "second", TrackIndex: 0, StartTime: 10, Duration: 5, TrimStart: 1, TrimEnd: 6},
		{ID: "c1", MediaID: "m1", Name: "first", TrackIndex: 0, StartTime: 0, Duration: 10},
		{ID: "c3", MediaID: "m1", Name: "overlay", TrackIndex: 1, StartTime: 0, Duration: 3},
		{ID: "c4", MediaID: timeline.MediaTransition, Name: "Fade Transition", TrackIndex: 0, StartTime: 4, Duration: 1},
		{ID: "c5", MediaID: "missing", Name: "ghost", TrackIndex: 0, StartTime: 20, Duration: 2},
	}

	paths := map[string]string{"m1": "/media/a.mp4", "m2": "/media/b.mp4"}
	entries, unresolved := BuildCutList(clips, func(id string) (string, bool) {
		p, ok := paths[id]
		return p, ok
	})

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ClipName != "first" || entries[1].ClipName != "second" {
		t.Errorf("entries out of record order: %s, %s", entries[0].ClipName, entries[1].ClipName)
	}

	// Clip without trim bounds falls back to [0, duration].
	if entries[0].SourceIn != 0 || entries[0].SourceOut != 10 {
		t.Errorf("first source = [%v, %v]", entries[0].SourceIn, entries[0].SourceOut)
	}
	// Trim bounds become the source window, placement the record window.
	if entries[1].SourceIn != 1 || entries[1].SourceOut != 6 {
		t.Errorf("second source = [%v, %v]", entries[1].SourceIn, entries[1].SourceOut)
	}
	if entries[1].RecordIn != 10 || entries[1].RecordOut != 15 {
		t.Errorf("second record = [%v, %v]", entries[1].RecordIn, entries[1].RecordOut)
	}

	if len(unresolved) != 2 {
		t.Fatalf("unresolved = %v, want synthetic and missing clips", unresolved)
	}
}

func TestGenerateEDL(t *testing.T) {
	entries := []CutEntry{
		{ClipName: "intro", MediaPath: "/media/a.mp4", SourceIn: 0, SourceOut: 10, RecordIn: 0, RecordOut: 10},
		{ClipName: "outro", MediaPath: "/media/b.mp4", SourceIn: 1, SourceOut: 6, RecordIn: 10, RecordOut: 15},
	}

	edl := GenerateEDL(entries, "my cut", 30)

	if !strings.HasPrefix(edl, "TITLE: my cut\nFCM: NON-DROP FRAME\n") {
		t.Errorf("bad header:\n%s", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:10:00 00:00:00:00 00:00:10:00") {
		t.Errorf("missing first event:\n%s", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:01:00 00:00:06:00 00:00:10:00 00:00:15:00") {
		t.Errorf("missing second event:\n%s", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  outro") || !strings.Contains(edl, "* MEDIA PATH:  /media/b.mp4") {
		t.Errorf("missing clip annotations:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl := GenerateEDL(nil, "ntsc", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Errorf("29.97 fps not flagged drop-frame:\n%s", edl)
	}
}

func TestTimecode(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     int
		want    string
	}{
		{0, 30, "00:00:00:00"},
		{1.5, 30, "00:00:01:15"},
		{61, 30, "00:01:01:00"},
		{3661.2, 30, "01:01:01:06"},
	}
	for _, tt := range tests {
		if got := timecode(tt.seconds, tt.fps); got != tt.want {
			t.Errorf("timecode(%v, %d) = %s, want %s", tt.seconds, tt.fps, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"My Project", 0, "My Project"},
		{"a/b\\c:d", 0, "a_b_c_d"},
		{"with\x00control", 0, "withcontrol"},
		{"  padded  ", 0, "padded"},
		{"toolongname", 4, "tool"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in, tt.max); got != tt.want {
			t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateOutputDir(dir); err != nil {
		t.Errorf("ValidateOutputDir(%q) = %v", dir, err)
	}
	for _, bad := range []string{"", dir + "/../escape", dir + "/missing"} {
		if err := ValidateOutputDir(bad); err == nil {
			t.Errorf("ValidateOutputDir(%q) succeeded", bad)
		}
	}
}

func TestWriteEDL(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteEDL(dir, "my:cut", "TITLE: my cut\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "my_cut.edl") {
		t.Errorf("path = %q", path)
	}
}

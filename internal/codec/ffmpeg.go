package codec

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const stderrTailBytes = 4 * 1024

// FFmpeg executes codec operations as ffmpeg/ffprobe subprocesses.
type FFmpeg struct {
	ffmpegPath   string
	ffprobePath  string
	artifactsDir string
	thumbsDir    string
	probeTimeout time.Duration
	thumbTimeout time.Duration
	logger       *slog.Logger
}

// FFmpegConfig holds subprocess engine settings.
type FFmpegConfig struct {
	FFmpegPath       string // empty = look up PATH
	FFprobePath      string // empty = look up PATH
	ArtifactsDir     string
	ThumbsDir        string
	ProbeTimeout     time.Duration // 0 = 30s
	ThumbnailTimeout time.Duration // 0 = 60s
	Logger           *slog.Logger
}

// NewFFmpeg resolves the ffmpeg and ffprobe binaries and prepares output
// directories.
func NewFFmpeg(cfg FFmpegConfig) (*FFmpeg, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
		ffmpegPath = p
	}

	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		p, err := exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
		}
		ffprobePath = p
	}

	for _, dir := range []string{cfg.ArtifactsDir, cfg.ThumbsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create output dir: %w", err)
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("codec engine initialised",
			"ffmpeg", ffmpegPath, "ffprobe", ffprobePath, "artifacts_dir", cfg.ArtifactsDir)
	}

	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 30 * time.Second
	}
	thumbTimeout := cfg.ThumbnailTimeout
	if thumbTimeout <= 0 {
		thumbTimeout = 60 * time.Second
	}

	return &FFmpeg{
		ffmpegPath:   ffmpegPath,
		ffprobePath:  ffprobePath,
		artifactsDir: cfg.ArtifactsDir,
		thumbsDir:    cfg.ThumbsDir,
		probeTimeout: probeTimeout,
		thumbTimeout: thumbTimeout,
		logger:       cfg.Logger,
	}, nil
}

// Probe reads stream metadata with ffprobe. Probes are bounded by the
// engine's probe timeout regardless of the caller's context.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	result := &ProbeResult{}
	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "duration":
			result.Duration, _ = strconv.ParseFloat(value, 64)
		case "width":
			result.Width, _ = strconv.Atoi(value)
		case "height":
			result.Height, _ = strconv.Atoi(value)
		case "codec_name":
			result.Codec = value
		case "r_frame_rate":
			if num, den, ok := strings.Cut(value, "/"); ok {
				n, err1 := strconv.ParseFloat(num, 64)
				d, err2 := strconv.ParseFloat(den, 64)
				if err1 == nil && err2 == nil && d > 0 {
					result.FrameRate = n / d
				}
			}
		}
	}

	if result.Duration <= 0 {
		return nil, fmt.Errorf("probe returned no duration for %s", filepath.Base(path))
	}
	return result, nil
}

// Duration satisfies the library's prober contract.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	result, err := f.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.Duration, nil
}

// Trim keeps the [start,end] region of the source without re-encoding.
func (f *FFmpeg) Trim(ctx context.Context, src string, start, end float64, progress ProgressFunc) (*ProcessedMedia, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	out := f.outputPath("trim", src)
	args := []string{
		"-i", src,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c", "copy",
		out,
	}

	if err := f.run(ctx, args, end-start, progress); err != nil {
		os.Remove(out)
		return nil, err
	}

	return &ProcessedMedia{
		Path:          out,
		SuggestedName: "processed_" + filepath.Base(src),
		Duration:      end - start,
	}, nil
}

// AdjustVolume re-encodes the audio stream with a gain factor, copying video.
func (f *FFmpeg) AdjustVolume(ctx context.Context, src string, gain float64, progress ProgressFunc) (*ProcessedMedia, error) {
	if gain < 0 {
		return nil, fmt.Errorf("gain %v is negative", gain)
	}

	out := f.outputPath("volume", src)
	args := []string{
		"-i", src,
		"-af", fmt.Sprintf("volume=%g", gain),
		"-c:v", "copy",
		out,
	}

	if err := f.run(ctx, args, 0, progress); err != nil {
		os.Remove(out)
		return nil, err
	}

	return &ProcessedMedia{
		Path:          out,
		SuggestedName: "processed_" + filepath.Base(src),
	}, nil
}

// BurnSubtitles renders cues into the video stream via an SRT sidecar and
// the subtitles filter.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, src string, cues []Cue, progress ProgressFunc) (*ProcessedMedia, error) {
	if len(cues) == 0 {
		return nil, fmt.Errorf("no subtitle cues provided")
	}
	for _, cue := range cues {
		if err := ValidateRange(cue.Start, cue.End); err != nil {
			return nil, fmt.Errorf("invalid cue: %w", err)
		}
	}

	srtPath := filepath.Join(f.artifactsDir, fmt.Sprintf("cues_%d.srt", time.Now().UnixNano()))
	if err := os.WriteFile(srtPath, []byte(renderSRT(cues)), 0644); err != nil {
		return nil, fmt.Errorf("cannot write subtitle file: %w", err)
	}
	defer os.Remove(srtPath)

	out := f.outputPath("subtitles", src)
	args := []string{
		"-i", src,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='FontSize=24,PrimaryColour=&Hffffff&,OutlineColour=&H000000&,Outline=2'", srtPath),
		"-c:a", "copy",
		out,
	}

	if err := f.run(ctx, args, 0, progress); err != nil {
		os.Remove(out)
		return nil, err
	}

	return &ProcessedMedia{
		Path:          out,
		SuggestedName: "processed_" + filepath.Base(src),
	}, nil
}

// Thumbnail captures a single frame as JPEG and returns its path.
func (f *FFmpeg) Thumbnail(ctx context.Context, src string, timestamp float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.thumbTimeout)
	defer cancel()

	if timestamp < 0 {
		timestamp = 0
	}

	out := filepath.Join(f.thumbsDir, fmt.Sprintf("thumb_%d.jpg", time.Now().UnixNano()))
	args := []string{
		"-i", src,
		"-ss", formatSeconds(timestamp),
		"-vframes", "1",
		"-q:v", "2",
		out,
	}

	if err := f.run(ctx, args, 0, nil); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

// run executes ffmpeg, streaming stderr for progress. totalSeconds, when
// known, converts out_time into a [0,1] fraction for the progress callback.
func (f *FFmpeg) run(ctx context.Context, args []string, totalSeconds float64, progress ProgressFunc) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error", "-progress", "pipe:2"}, args...)

	if f.logger != nil {
		f.logger.Debug("executing ffmpeg", "args", strings.Join(full, " "))
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, full...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("cannot open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cannot start ffmpeg: %w", err)
	}

	var tail strings.Builder
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()

		if us, ok := strings.CutPrefix(line, "out_time_us="); ok {
			if progress != nil && totalSeconds > 0 {
				if v, err := strconv.ParseFloat(strings.TrimSpace(us), 64); err == nil {
					fraction := v / 1e6 / totalSeconds
					if fraction > 1 {
						fraction = 1
					}
					progress(fraction)
				}
			}
			continue
		}
		if strings.HasPrefix(line, "progress=") || strings.Contains(line, "=") && !strings.Contains(line, " ") {
			continue
		}

		tail.WriteString(line)
		tail.WriteString("\n")
		if tail.Len() > stderrTailBytes {
			s := tail.String()
			tail.Reset()
			tail.WriteString(s[len(s)-stderrTailBytes:])
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(tail.String()))
	}

	if progress != nil {
		progress(1)
	}
	return nil
}

func (f *FFmpeg) outputPath(op, src string) string {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(f.artifactsDir, fmt.Sprintf("%s_%d%s", op, time.Now().UnixNano(), ext))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// renderSRT serialises cues in SubRip format.
func renderSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimecode(cue.Start), srtTimecode(cue.End), cue.Text)
	}
	return b.String()
}

func srtTimecode(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

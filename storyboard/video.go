package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
)

const (
	NarrationFileName   = "narration.mp3"
	FinalVideoFileName  = "final_video.mp4"
	VideoReportFileName = "video_report.json"
	// VideoDirName is the directory, next to the content file, that receives video output.
	VideoDirName = "video_output"

	DefaultFPS           = 24
	DefaultImageCooldown = 2 * time.Second
)

var (
	// ErrNarrationFailed is returned when the narration track could not be produced.
	ErrNarrationFailed = errors.New("narration failed")
	// ErrNoImages is returned when every segment image failed.
	ErrNoImages = errors.New("no images were generated")
)

// Narrator turns text into an MP3 narration track.
type Narrator interface {
	Narrate(ctx context.Context, text string) ([]byte, error)
}

// ImageGenerator turns a prompt into PNG image bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// AssembleRequest describes the video an Assembler should mux.
type AssembleRequest struct {
	AudioPath  string
	ImagePaths []string
	OutputPath string
	FPS        int
}

// Assembler shows each image for an equal share of the audio duration and muxes the narration over it.
type Assembler interface {
	Assemble(ctx context.Context, req AssembleRequest) error
}

// VideoDeps are the external collaborators CreateVideo drives.
type VideoDeps struct {
	Narrator  Narrator
	Images    ImageGenerator
	Assembler Assembler
}

// VideoOptions controls a CreateVideo run.
type VideoOptions struct {
	OutputDir string
	MaxWords  int
	FPS       int

	// Cooldown is waited after every image request to stay under provider rate limits.
	Cooldown time.Duration

	// ImagePromptPrefix is prepended to each segment. Use DefaultImagePromptPrefix for the stock wording.
	ImagePromptPrefix string

	RunID  string
	Now    func() time.Time
	Logger *slog.Logger
}

// VideoReport describes a CreateVideo run.
type VideoReport struct {
	BatchReport
	Segments      []string `json:"segments"`
	NarrationPath string   `json:"narration_path,omitempty"`
	VideoPath     string   `json:"video_path,omitempty"`
}

// ImageFileName is the name of the n-th (1-based) segment image.
func ImageFileName(n int) string {
	return fmt.Sprintf("image_%03d.png", n)
}

// CreateVideo segments content, narrates it, renders one image per segment and assembles the result
// into opts.OutputDir/final_video.mp4.
//
// Narration failure aborts the run. Individual image failures are recorded and skipped; the run fails
// only when no image at all could be produced.
func CreateVideo(ctx context.Context, content string, deps VideoDeps, opts VideoOptions) (report VideoReport, err error) {
	if ctx == nil {
		return VideoReport{}, errors.New("CreateVideo: ctx is nil")
	}
	if deps.Narrator == nil || deps.Images == nil || deps.Assembler == nil {
		return VideoReport{}, errors.New("CreateVideo: narrator, image generator and assembler are required")
	}
	if opts.OutputDir == "" {
		return VideoReport{}, errors.New("CreateVideo: opts.OutputDir is empty")
	}
	if opts.FPS < 0 || opts.Cooldown < 0 {
		return VideoReport{}, fmt.Errorf("%w: fps and cooldown must be >= 0", ErrInvalidConfiguration)
	}
	if opts.FPS == 0 {
		opts.FPS = DefaultFPS
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	segments, err := BuildSegments(content, opts.MaxWords)
	if err != nil {
		return VideoReport{}, fmt.Errorf("CreateVideo: %w", err)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return VideoReport{}, fmt.Errorf("CreateVideo: mkdir output dir: %w", err)
	}

	report = VideoReport{
		BatchReport: newBatchReport(opts.RunID, "video", opts.OutputDir, now()),
		Segments:    segments,
	}
	defer func() {
		report.FinishedAt = now().UTC().Format(time.RFC3339)
		if err := fileutils.WriteJSONFileAtomic(filepath.Join(opts.OutputDir, VideoReportFileName), report, true); err != nil {
			logger.Warn("failed to write video report", "error", err)
		}
	}()

	logger.Info("generating narration", "segments", len(segments))
	audio, err := deps.Narrator.Narrate(ctx, content)
	if err != nil {
		return report, fmt.Errorf("CreateVideo: %w: %w", ErrNarrationFailed, err)
	}
	if len(audio) == 0 {
		return report, fmt.Errorf("CreateVideo: %w: empty audio", ErrNarrationFailed)
	}
	audioPath := filepath.Join(opts.OutputDir, NarrationFileName)
	if err := fileutils.WriteFileAtomic(audioPath, audio, 0o644); err != nil {
		return report, fmt.Errorf("CreateVideo: write narration: %w", err)
	}
	report.NarrationPath = audioPath

	var images []string
	for i, seg := range segments {
		n := i + 1
		logger.Info("generating image", "index", n, "total", len(segments))

		res := renderSegment(ctx, n, seg, deps.Images, opts)
		if res.Status == StatusFailed && ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Items = append(report.Items, res)
		if res.Status == StatusSuccess {
			images = append(images, filepath.Join(opts.OutputDir, res.Output))
		} else {
			logger.Warn("image failed", "index", n, "error", res.Error)
		}

		if err := sleepContext(ctx, opts.Cooldown); err != nil {
			return report, err
		}
	}
	if len(images) == 0 {
		return report, fmt.Errorf("CreateVideo: %w", ErrNoImages)
	}

	outPath := filepath.Join(opts.OutputDir, FinalVideoFileName)
	logger.Info("assembling video", "images", len(images), "output", outPath)
	if err := deps.Assembler.Assemble(ctx, AssembleRequest{
		AudioPath:  audioPath,
		ImagePaths: images,
		OutputPath: outPath,
		FPS:        opts.FPS,
	}); err != nil {
		return report, fmt.Errorf("CreateVideo: assemble: %w", err)
	}
	report.VideoPath = outPath
	return report, nil
}

func renderSegment(ctx context.Context, n int, segment string, gen ImageGenerator, opts VideoOptions) ItemResult {
	img, err := gen.GenerateImage(ctx, ImagePrompt(opts.ImagePromptPrefix, segment))
	if err != nil {
		kind := ErrorKindGenerate
		if isContextErr(err) {
			kind = ErrorKindCanceled
		}
		return failed(n, segment, kind, err)
	}
	if len(img) == 0 {
		return failed(n, segment, ErrorKindGenerate, errors.New("empty image"))
	}
	name := ImageFileName(n)
	if err := fileutils.WriteFileAtomic(filepath.Join(opts.OutputDir, name), img, 0o644); err != nil {
		return failed(n, segment, ErrorKindWrite, err)
	}
	return succeeded(n, segment, name)
}

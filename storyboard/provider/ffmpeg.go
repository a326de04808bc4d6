package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
)

const DefaultFrameSize = 1024

// FFmpegAssembler builds a slideshow video over a narration track with ffmpeg.
type FFmpegAssembler struct {
	Width  int
	Height int

	// mediaInfo returns ffprobe JSON for a file; replaced in tests.
	mediaInfo func(path string) (string, error)
}

func NewFFmpegAssembler() *FFmpegAssembler {
	return &FFmpegAssembler{Width: DefaultFrameSize, Height: DefaultFrameSize}
}

// MediaDuration returns the container duration of a media file in seconds.
func (a *FFmpegAssembler) MediaDuration(path string) (float64, error) {
	info := a.mediaInfo
	if info == nil {
		info = func(p string) (string, error) { return ffmpeg.Probe(p) }
	}
	out, err := info(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseMediaDuration(out)
}

func parseMediaDuration(infoJSON string) (float64, error) {
	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(infoJSON), &data); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if data.Format.Duration == "" {
		return 0, errors.New("ffprobe output has no format.duration")
	}
	d, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", data.Format.Duration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", d)
	}
	return d, nil
}

// BuildVideoStream describes the ffmpeg graph: every image looped for perImage
// seconds, scaled to the frame size, concatenated, and muxed with the audio.
func (a *FFmpegAssembler) BuildVideoStream(req storyboard.AssembleRequest, perImage float64) *ffmpeg.Stream {
	w, h := a.Width, a.Height
	if w <= 0 {
		w = DefaultFrameSize
	}
	if h <= 0 {
		h = DefaultFrameSize
	}
	fps := req.FPS
	if fps <= 0 {
		fps = storyboard.DefaultFPS
	}
	dur := strconv.FormatFloat(perImage, 'f', 3, 64)

	clips := make([]*ffmpeg.Stream, 0, len(req.ImagePaths))
	for _, p := range req.ImagePaths {
		clip := ffmpeg.Input(p, ffmpeg.KwArgs{"loop": 1, "t": dur, "framerate": fps}).
			Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", w, h)}).
			Filter("setsar", ffmpeg.Args{"1"})
		clips = append(clips, clip)
	}
	video := ffmpeg.Concat(clips, ffmpeg.KwArgs{"v": 1, "a": 0})
	audio := ffmpeg.Input(req.AudioPath).Audio()

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, req.OutputPath, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"c:a":      "aac",
		"pix_fmt":  "yuv420p",
		"r":        fps,
		"shortest": nil,
	}).OverWriteOutput()
}

// Assemble measures the narration, splits its duration evenly across the images and runs ffmpeg.
func (a *FFmpegAssembler) Assemble(ctx context.Context, req storyboard.AssembleRequest) error {
	if len(req.ImagePaths) == 0 {
		return storyboard.ErrNoImages
	}
	total, err := a.MediaDuration(req.AudioPath)
	if err != nil {
		return err
	}
	perImage := total / float64(len(req.ImagePaths))

	compiled := a.BuildVideoStream(req, perImage).Compile()
	cmd := exec.CommandContext(ctx, compiled.Path, compiled.Args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 1000 {
			msg = msg[len(msg)-1000:]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}

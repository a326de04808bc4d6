package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
)

func TestParseMediaDuration(t *testing.T) {
	t.Parallel()

	d, err := parseMediaDuration(`{"streams":[],"format":{"filename":"narration.mp3","duration":"12.500000"}}`)
	if err != nil {
		t.Fatalf("parseMediaDuration: %v", err)
	}
	if d != 12.5 {
		t.Fatalf("d=%v", d)
	}

	for _, bad := range []string{`not json`, `{"format":{}}`, `{"format":{"duration":"abc"}}`, `{"format":{"duration":"0"}}`} {
		if _, err := parseMediaDuration(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFFmpegAssembler_BuildVideoStream(t *testing.T) {
	t.Parallel()

	a := NewFFmpegAssembler()
	s := a.BuildVideoStream(storyboard.AssembleRequest{
		AudioPath:  "narration.mp3",
		ImagePaths: []string{"image_001.png", "image_002.png"},
		OutputPath: "final_video.mp4",
		FPS:        24,
	}, 6)

	args := strings.Join(s.GetArgs(), " ")
	for _, want := range []string{
		"image_001.png", "image_002.png", "narration.mp3", "final_video.mp4",
		"-loop 1", "-t 6.000", "concat", "scale", "1024:1024",
		"libx264", "yuv420p", "-shortest",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q: %s", want, args)
		}
	}
}

func TestFFmpegAssembler_AssembleNoImages(t *testing.T) {
	t.Parallel()

	a := NewFFmpegAssembler()
	err := a.Assemble(context.Background(), storyboard.AssembleRequest{AudioPath: "a.mp3", OutputPath: "o.mp4"})
	if !errors.Is(err, storyboard.ErrNoImages) {
		t.Fatalf("err=%v", err)
	}
}

func TestFFmpegAssembler_AssembleDurationError(t *testing.T) {
	t.Parallel()

	a := NewFFmpegAssembler()
	a.mediaInfo = func(string) (string, error) { return "", errors.New("no such file") }
	err := a.Assemble(context.Background(), storyboard.AssembleRequest{
		AudioPath:  "missing.mp3",
		ImagePaths: []string{"image_001.png"},
		OutputPath: "o.mp4",
	})
	if err == nil || !strings.Contains(err.Error(), "no such file") {
		t.Fatalf("err=%v", err)
	}
}

package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
)

// YtDlpConfig configures the yt-dlp transcript backend.
type YtDlpConfig struct {
	// Path to the yt-dlp binary. Resolved with exec.LookPath when empty.
	Path string
	// Language is the subtitle language code (default "en").
	Language string
	// CookiesFile is an optional Netscape cookie file for gated videos.
	CookiesFile string
	Logger      *slog.Logger
}

// YtDlpTranscripts downloads subtitles with yt-dlp and cleans them to plain text.
type YtDlpTranscripts struct {
	cfg YtDlpConfig
	// run executes yt-dlp; replaced in tests.
	run func(ctx context.Context, bin string, args []string) ([]byte, error)
}

func NewYtDlpTranscripts(cfg YtDlpConfig) *YtDlpTranscripts {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Path == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.Path = p
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &YtDlpTranscripts{cfg: cfg, run: runCommand}
}

func (y *YtDlpTranscripts) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", errors.New("yt-dlp: video id is empty")
	}
	if y.cfg.Path == "" {
		return "", errors.New("yt-dlp: binary not found (install yt-dlp or pass -yt-dlp)")
	}

	tmpDir, err := os.MkdirTemp("", "narrate-subs-*")
	if err != nil {
		return "", fmt.Errorf("yt-dlp: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := ytDlpArgs(videoID, y.cfg.Language, y.cfg.CookiesFile, tmpDir)
	y.cfg.Logger.Info("running yt-dlp", "video_id", videoID, "language", y.cfg.Language)
	if _, err := y.run(ctx, y.cfg.Path, args); err != nil {
		return "", fmt.Errorf("yt-dlp: %s: %w", videoID, err)
	}

	raw, err := readFirstVTT(tmpDir)
	if err != nil {
		return "", fmt.Errorf("yt-dlp: %s: %w", videoID, err)
	}
	text := CleanVTT(raw)
	if text == "" {
		return "", fmt.Errorf("yt-dlp: %s: subtitles empty after cleaning", videoID)
	}
	return text, nil
}

func ytDlpArgs(videoID, language, cookies, dir string) []string {
	args := []string{
		"--write-sub",
		"--write-auto-sub",
		"--sub-lang", language,
		"--sub-format", "vtt",
		"--skip-download",
		"--no-warnings",
		"-o", filepath.Join(dir, "%(id)s"),
		"https://www.youtube.com/watch?v=" + videoID,
	}
	if cookies != "" {
		args = append([]string{"--cookies", cookies}, args...)
	}
	return args
}

// readFirstVTT returns the first .vtt file by name. yt-dlp writes manual
// subtitles in preference to automatic ones when both exist.
func readFirstVTT(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read subtitle dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".vtt") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", errors.New("no subtitles available")
	}
	sort.Strings(names)
	b, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	return string(b), nil
}

// runCommand runs bin with args and returns stdout. Stderr is folded into the error.
func runCommand(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", err, fileutils.Truncate(stderr.String(), 500))
	}
	return stdout.Bytes(), nil
}

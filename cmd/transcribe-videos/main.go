package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.Verbose)
	fetcher := newFetcher(cfg, logger)

	report, err := storyboard.TranscribeBatch(ctx, cfg.URLs, &progressFetcher{
		next:  fetcher,
		total: len(cfg.URLs),
		start: time.Now(),
	}, storyboard.TranscribeOptions{
		OutputDir: cfg.OutDir,
		RunID:     cfg.RunID,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "run_id=%s videos_processed=%d succeeded=%d failed=%d out_dir=%s summary=%s\n",
		report.RunID, len(report.Items), report.Succeeded(), report.Failed(),
		cfg.OutDir, filepath.Join(cfg.OutDir, storyboard.SummaryFileName))
	if report.Succeeded() == 0 {
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	fs.StringVar(&cfg.OutDir, "out", "", "Output directory (default: transcriptions_<YYYYMMDD_HHMMSS>)")
	fs.StringVar(&cfg.Fetcher, "fetcher", cfg.Fetcher, "Transcript backend: youtube or ytdlp")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "Transcript language code")
	fs.StringVar(&cfg.YtDlpPath, "yt-dlp", "", "Path to the yt-dlp binary (default: looked up on PATH)")
	fs.StringVar(&cfg.Cookies, "cookies", "", "Optional Netscape cookie file for yt-dlp")
	fs.IntVar(&cfg.MaxVideos, "max-videos", cfg.MaxVideos, "Max URLs accepted in one batch")
	fs.StringVar(&cfg.RunID, "run-id", "", "Run identifier recorded in report.json (default: random UUID)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log provider activity to stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for _, a := range fs.Args() {
		if a = strings.TrimSpace(a); a != "" {
			cfg.URLs = append(cfg.URLs, a)
		}
	}
	if cfg.OutDir == "" {
		cfg.OutDir = storyboard.DefaultTranscriptDir(time.Now())
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newFetcher(cfg Config, logger *slog.Logger) storyboard.TranscriptFetcher {
	if cfg.Fetcher == "ytdlp" {
		return provider.NewYtDlpTranscripts(provider.YtDlpConfig{
			Path:        cfg.YtDlpPath,
			Language:    cfg.Language,
			CookiesFile: cfg.Cookies,
			Logger:      logger,
		})
	}
	return provider.NewYouTubeTranscripts(cfg.Language)
}

// progressFetcher prints a progress line after every fetch.
type progressFetcher struct {
	next  storyboard.TranscriptFetcher
	total int
	start time.Time
	done  int
}

func (p *progressFetcher) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	text, err := p.next.FetchTranscript(ctx, videoID)
	p.done++
	status := "ok"
	if err != nil {
		status = "failed"
	}
	fmt.Fprintf(os.Stderr, "progress transcribe-videos: %d/%d videos (last=%s status=%s elapsed=%s)\n",
		p.done, p.total, videoID, status, time.Since(p.start).Round(time.Second))
	return text, err
}

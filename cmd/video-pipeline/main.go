package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
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

	if !cfg.runsTranscribe() && !fileutils.FileExists(cfg.TranscriptsDir) {
		fmt.Fprintf(os.Stderr, "transcripts dir %s does not exist\n", cfg.TranscriptsDir)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stages := allStages
	if cfg.OnlyStage != "" {
		stages = []string{cfg.OnlyStage}
	} else if cfg.FromStage != "" {
		stages = stagesFrom(stages, cfg.FromStage)
	}

	fmt.Fprintf(os.Stdout, "run_id=%s stages=%s transcripts_dir=%s\n", cfg.RunID, strings.Join(stages, ","), cfg.TranscriptsDir)
	for _, stage := range stages {
		if err := runGo(ctx, stageArgs(cfg, stage)...); err != nil {
			fmt.Fprintf(os.Stderr, "run_id=%s stage=%s failed\n", cfg.RunID, stage)
			os.Exit(1)
		}
	}
	fmt.Fprintf(os.Stdout, "run_id=%s done video_dir=%s\n", cfg.RunID, videoDir(cfg))
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Optional YAML file with urls and stage settings (flags take precedence)")
	fs.StringVar(&cfg.TranscriptsDir, "transcripts-dir", "", "Transcript batch directory shared by all stages (default for a full run: transcriptions_<YYYYMMDD_HHMMSS>; required with -from-stage/-only-stage generate|video)")
	fs.StringVar(&cfg.Fetcher, "fetcher", cfg.Fetcher, "Transcript backend: youtube or ytdlp")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "Transcript language code")
	fs.IntVar(&cfg.WordLimit, "word-limit", cfg.WordLimit, "Approximate narrative length in words")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for narrative generation (uses OPENAI_API_KEY)")
	fs.IntVar(&cfg.MaxWords, "max-words", cfg.MaxWords, "Max words per image segment")
	fs.StringVar(&cfg.VoiceID, "voice-id", "", "ElevenLabs voice id (uses ELEVENLABS_API_KEY)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Output frame rate")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "Wait after each image request")
	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: transcribe|generate|video")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: transcribe|generate|video")
	fs.StringVar(&cfg.RunID, "run-id", "", "Run identifier passed to every stage (default: random UUID)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Pass -verbose to every stage")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for _, a := range fs.Args() {
		if a = strings.TrimSpace(a); a != "" {
			cfg.URLs = append(cfg.URLs, a)
		}
	}

	if cfg.ConfigPath != "" {
		fc, err := loadFileConfig(filepath.Clean(cfg.ConfigPath))
		if err != nil {
			return Config{}, err
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := applyFileConfig(&cfg, fc, set); err != nil {
			return Config{}, err
		}
	}

	cfg.FromStage = strings.ToLower(strings.TrimSpace(cfg.FromStage))
	cfg.OnlyStage = strings.ToLower(strings.TrimSpace(cfg.OnlyStage))
	// Later stages read an existing batch, so only a fresh transcription gets a generated dir.
	if cfg.TranscriptsDir == "" && cfg.runsTranscribe() {
		cfg.TranscriptsDir = storyboard.DefaultTranscriptDir(time.Now())
	}
	if cfg.TranscriptsDir != "" {
		cfg.TranscriptsDir = filepath.Clean(cfg.TranscriptsDir)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg, nil
}

func generatedDir(cfg Config) string {
	return filepath.Join(cfg.TranscriptsDir, storyboard.GeneratedDirName)
}

func videoDir(cfg Config) string {
	return filepath.Join(generatedDir(cfg), storyboard.VideoDirName)
}

// stageArgs returns the `go run` arguments for one stage.
func stageArgs(cfg Config, stage string) []string {
	var args []string
	switch stage {
	case "transcribe":
		args = []string{
			"run", "./cmd/transcribe-videos",
			"-out", cfg.TranscriptsDir,
			"-fetcher", cfg.Fetcher,
			"-lang", cfg.Language,
			"-run-id", cfg.RunID,
		}
	case "generate":
		args = []string{
			"run", "./cmd/generate-content",
			"-in", cfg.TranscriptsDir,
			"-word-limit", fmt.Sprintf("%d", cfg.WordLimit),
			"-model", cfg.Model,
		}
	case "video":
		args = []string{
			"run", "./cmd/create-video",
			"-out", videoDir(cfg),
			"-max-words", fmt.Sprintf("%d", cfg.MaxWords),
			"-fps", fmt.Sprintf("%d", cfg.FPS),
			"-cooldown", cfg.Cooldown.String(),
			"-run-id", cfg.RunID,
		}
		if cfg.VoiceID != "" {
			args = append(args, "-voice-id", cfg.VoiceID)
		}
	}
	if cfg.Verbose {
		args = append(args, "-verbose")
	}
	switch stage {
	case "transcribe":
		args = append(args, cfg.URLs...)
	case "video":
		// create-video picks the newest generated_content_*.txt in the directory.
		args = append(args, generatedDir(cfg))
	}
	return args
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}

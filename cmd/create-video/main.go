package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/provider"
)

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	elevenKey := cfg.ElevenLabsKey
	if elevenKey == "" {
		elevenKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if elevenKey == "" {
		fmt.Fprintln(os.Stderr, "missing ELEVENLABS_API_KEY (or pass -elevenlabs-key)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	narrator := provider.NewElevenLabs(provider.ElevenLabsConfig{APIKey: elevenKey, VoiceID: cfg.VoiceID})
	if cfg.ListVoices {
		voices, err := narrator.Voices(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		for _, v := range voices {
			fmt.Fprintf(os.Stdout, "voice_id=%s name=%q\n", v.VoiceID, v.Name)
		}
		return
	}

	openAIKey := cfg.OpenAIKey
	if openAIKey == "" {
		openAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if openAIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -openai-key)")
		os.Exit(2)
	}

	contentPath, content, err := loadContent(cfg.ContentPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(contentPath), storyboard.VideoDirName)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := openai.NewClient(option.WithAPIKey(openAIKey))
	assembler := provider.NewFFmpegAssembler()
	assembler.Width, assembler.Height = cfg.FrameSize, cfg.FrameSize

	start := time.Now()
	images := &progressImages{
		next: openAIImageGenerator{
			client: &client,
			model:  cfg.ImageModel,
			size:   cfg.ImageSize,
		},
		start: start,
	}
	fmt.Fprintf(os.Stderr, "progress create-video: content=%s out_dir=%s\n", contentPath, outDir)
	report, err := storyboard.CreateVideo(ctx, content, storyboard.VideoDeps{
		Narrator:  narrator,
		Images:    images,
		Assembler: assembler,
	}, storyboard.VideoOptions{
		OutputDir:         outDir,
		MaxWords:          cfg.MaxWords,
		FPS:               cfg.FPS,
		Cooldown:          cfg.Cooldown,
		ImagePromptPrefix: cfg.PromptPrefix,
		RunID:             cfg.RunID,
		Logger:            logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if errors.Is(err, storyboard.ErrInvalidConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "run_id=%s segments=%d images=%d images_failed=%d narration=%s video=%s elapsed=%s\n",
		report.RunID, len(report.Segments), report.Succeeded(), report.Failed(),
		report.NarrationPath, report.VideoPath, time.Since(start).Round(time.Second))
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	fs.StringVar(&cfg.OutDir, "out", "", "Output directory (default: <content dir>/video_output)")
	fs.StringVar(&cfg.OpenAIKey, "openai-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.ElevenLabsKey, "elevenlabs-key", "", "ElevenLabs API key (overrides ELEVENLABS_API_KEY env var)")
	fs.StringVar(&cfg.VoiceID, "voice-id", cfg.VoiceID, "ElevenLabs voice id")
	fs.BoolVar(&cfg.ListVoices, "list-voices", false, "List available ElevenLabs voices and exit")
	fs.IntVar(&cfg.MaxWords, "max-words", cfg.MaxWords, "Max words per image segment")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "Wait after each image request")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Output frame rate")
	fs.StringVar(&cfg.ImageModel, "image-model", cfg.ImageModel, "OpenAI image model")
	fs.StringVar(&cfg.ImageSize, "image-size", cfg.ImageSize, "Generated image size")
	fs.IntVar(&cfg.FrameSize, "frame-size", cfg.FrameSize, "Square output frame size in pixels")
	fs.StringVar(&cfg.PromptPrefix, "prompt-prefix", cfg.PromptPrefix, "Text prepended to every image prompt (empty sends the bare segment)")
	fs.StringVar(&cfg.RunID, "run-id", "", "Run identifier recorded in video_report.json (default: random UUID)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log progress details to stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		cfg.ContentPath = filepath.Clean(fs.Arg(0))
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg, nil
}

// loadContent reads a generated-content file, or the newest one when path is a directory,
// and returns the narrative without its envelope.
func loadContent(path string) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", fmt.Errorf("content file: %w", err)
	}
	if info.IsDir() {
		path, err = storyboard.LatestGeneratedContent(path)
		if err != nil {
			return "", "", err
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read content: %w", err)
	}
	content := storyboard.StripContentEnvelope(string(b))
	if content == "" {
		return "", "", fmt.Errorf("content file %s is empty", path)
	}
	return path, content, nil
}

type openAIImageGenerator struct {
	client *openai.Client
	model  string
	size   string
}

func (g openAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if g.client == nil {
		return nil, errors.New("openAIImageGenerator: client is nil")
	}
	params := openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(g.size),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	}
	resp, err := provider.CallWithRetry(ctx, func(ctx context.Context) (*openai.ImagesResponse, error) {
		return g.client.Images.Generate(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return decodeImage(resp)
}

func decodeImage(resp *openai.ImagesResponse) ([]byte, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, errors.New("image response has no data")
	}
	if resp.Data[0].B64JSON == "" {
		return nil, errors.New("image response has no b64_json payload")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// progressImages prints a progress line after every image request.
type progressImages struct {
	next  storyboard.ImageGenerator
	start time.Time
	done  int
}

func (p *progressImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	img, err := p.next.GenerateImage(ctx, prompt)
	p.done++
	status := "ok"
	if err != nil {
		status = "failed"
	}
	fmt.Fprintf(os.Stderr, "progress create-video: image %d status=%s elapsed=%s\n",
		p.done, status, time.Since(p.start).Round(time.Second))
	return img, err
}

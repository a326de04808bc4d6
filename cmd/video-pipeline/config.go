package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
)

var allStages = []string{"transcribe", "generate", "video"}

type Config struct {
	ConfigPath string

	URLs           []string
	TranscriptsDir string
	Fetcher        string
	Language       string

	WordLimit int
	Model     string

	MaxWords int
	VoiceID  string
	FPS      int
	Cooldown time.Duration

	FromStage string
	OnlyStage string
	RunID     string
	Verbose   bool
}

// fileConfig is the YAML layout accepted by -config. Zero values leave the flag default in place.
type fileConfig struct {
	URLs           []string `yaml:"urls"`
	TranscriptsDir string   `yaml:"transcripts_dir"`
	Fetcher        string   `yaml:"fetcher"`
	Language       string   `yaml:"lang"`
	WordLimit      int      `yaml:"word_limit"`
	Model          string   `yaml:"model"`
	MaxWords       int      `yaml:"max_words"`
	VoiceID        string   `yaml:"voice_id"`
	FPS            int      `yaml:"fps"`
	Cooldown       string   `yaml:"cooldown"`
}

func (c Config) Validate() error {
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !isStage(s) {
			return fmt.Errorf("unknown stage %q (want transcribe|generate|video)", s)
		}
	}
	if c.TranscriptsDir == "" {
		if !c.runsTranscribe() {
			return errors.New("missing -transcripts-dir (required when the transcribe stage is skipped; or set transcripts_dir in -config)")
		}
		return errors.New("missing -transcripts-dir")
	}
	if c.runsTranscribe() && len(c.URLs) == 0 {
		return errors.New("missing video URLs (pass them as arguments or list them under urls: in -config)")
	}
	if len(c.URLs) > storyboard.MaxBatchURLs {
		return fmt.Errorf("too many URLs: got %d, max %d", len(c.URLs), storyboard.MaxBatchURLs)
	}
	if c.WordLimit < storyboard.MinWordLimit {
		return fmt.Errorf("word-limit must be at least %d", storyboard.MinWordLimit)
	}
	if c.MaxWords <= 0 || c.FPS <= 0 || c.Cooldown < 0 {
		return errors.New("max-words and fps must be > 0, cooldown >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Fetcher:   "youtube",
		Language:  "en",
		WordLimit: storyboard.DefaultWordLimit,
		Model:     "gpt-4o-mini",
		MaxWords:  storyboard.DefaultMaxWords,
		FPS:       storyboard.DefaultFPS,
		Cooldown:  storyboard.DefaultImageCooldown,
	}
}

func loadFileConfig(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read -config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse -config %s: %w", path, err)
	}
	return fc, nil
}

// applyFileConfig copies file values into cfg for every setting not given on the command line.
func applyFileConfig(cfg *Config, fc fileConfig, setFlags map[string]bool) error {
	if len(cfg.URLs) == 0 {
		cfg.URLs = fc.URLs
	}
	setString := func(flagName string, dst *string, v string) {
		if v != "" && !setFlags[flagName] {
			*dst = v
		}
	}
	setInt := func(flagName string, dst *int, v int) {
		if v != 0 && !setFlags[flagName] {
			*dst = v
		}
	}
	if fc.TranscriptsDir != "" {
		setString("transcripts-dir", &cfg.TranscriptsDir, filepath.Clean(fc.TranscriptsDir))
	}
	setString("fetcher", &cfg.Fetcher, fc.Fetcher)
	setString("lang", &cfg.Language, fc.Language)
	setString("model", &cfg.Model, fc.Model)
	setString("voice-id", &cfg.VoiceID, fc.VoiceID)
	setInt("word-limit", &cfg.WordLimit, fc.WordLimit)
	setInt("max-words", &cfg.MaxWords, fc.MaxWords)
	setInt("fps", &cfg.FPS, fc.FPS)
	if fc.Cooldown != "" && !setFlags["cooldown"] {
		d, err := time.ParseDuration(fc.Cooldown)
		if err != nil {
			return fmt.Errorf("config cooldown: %w", err)
		}
		cfg.Cooldown = d
	}
	return nil
}

// runsTranscribe reports whether the selected stages start with transcription.
func (c Config) runsTranscribe() bool {
	if c.OnlyStage != "" {
		return c.OnlyStage == "transcribe"
	}
	return c.FromStage == "" || c.FromStage == "transcribe"
}

func isStage(s string) bool {
	for _, st := range allStages {
		if s == st {
			return true
		}
	}
	return false
}

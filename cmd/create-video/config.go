package main

import (
	"errors"
	"time"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/provider"
)

type Config struct {
	ContentPath   string
	OutDir        string
	OpenAIKey     string
	ElevenLabsKey string
	VoiceID       string
	ListVoices    bool
	MaxWords      int
	Cooldown      time.Duration
	FPS           int
	ImageModel    string
	ImageSize     string
	FrameSize     int
	PromptPrefix  string
	RunID         string
	Verbose       bool
}

func (c Config) Validate() error {
	if c.ListVoices {
		return nil
	}
	if c.ContentPath == "" {
		return errors.New("missing content file (pass it as an argument)")
	}
	if c.MaxWords <= 0 {
		return errors.New("max-words must be > 0")
	}
	if c.FPS <= 0 {
		return errors.New("fps must be > 0")
	}
	if c.Cooldown < 0 {
		return errors.New("cooldown must be >= 0")
	}
	if c.FrameSize <= 0 {
		return errors.New("frame-size must be > 0")
	}
	if c.VoiceID == "" {
		return errors.New("missing -voice-id")
	}
	if c.ImageModel == "" || c.ImageSize == "" {
		return errors.New("missing -image-model or -image-size")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		VoiceID:      provider.DefaultVoiceID,
		MaxWords:     storyboard.DefaultMaxWords,
		Cooldown:     storyboard.DefaultImageCooldown,
		FPS:          storyboard.DefaultFPS,
		ImageModel:   "dall-e-2",
		ImageSize:    "1024x1024",
		FrameSize:    provider.DefaultFrameSize,
		PromptPrefix: storyboard.DefaultImagePromptPrefix,
	}
}

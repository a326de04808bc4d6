package main

import (
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
)

type Config struct {
	InDir         string
	OutDir        string
	WordLimit     int
	Model         string
	FallbackModel string
	Temperature   float64
	APIKey        string
	Verbose       bool
}

func (c Config) Validate() error {
	if c.InDir == "" {
		return errors.New("missing -in (or pass the transcript directory as an argument)")
	}
	if c.WordLimit < storyboard.MinWordLimit {
		return fmt.Errorf("word-limit must be at least %d (got %d)", storyboard.MinWordLimit, c.WordLimit)
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("temperature must be between 0 and 2")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		WordLimit:     storyboard.DefaultWordLimit,
		Model:         "gpt-4o-mini",
		FallbackModel: "gpt-3.5-turbo",
		Temperature:   0.7,
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
)

type Config struct {
	URLs      []string
	OutDir    string
	Fetcher   string
	Language  string
	YtDlpPath string
	Cookies   string
	MaxVideos int
	RunID     string
	Verbose   bool
}

func (c Config) Validate() error {
	if len(c.URLs) == 0 {
		return errors.New("missing video URLs (pass them as arguments)")
	}
	if c.MaxVideos <= 0 {
		return errors.New("max-videos must be > 0")
	}
	if len(c.URLs) > c.MaxVideos {
		return fmt.Errorf("too many URLs: got %d, max %d", len(c.URLs), c.MaxVideos)
	}
	switch c.Fetcher {
	case "youtube", "ytdlp":
	default:
		return fmt.Errorf("unknown -fetcher %q (want youtube or ytdlp)", c.Fetcher)
	}
	if c.Language == "" {
		return errors.New("missing -lang")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Fetcher:   "youtube",
		Language:  "en",
		MaxVideos: storyboard.MaxBatchURLs,
	}
}

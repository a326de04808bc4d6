package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/horiagug/youtube-transcript-api-go/pkg/yt_transcript"
	"github.com/horiagug/youtube-transcript-api-go/pkg/yt_transcript_formatters"
)

// formattedTranscriptClient is the part of the yt_transcript client we use.
type formattedTranscriptClient interface {
	GetFormattedTranscripts(videoID string, languages []string, preserveFormatting bool) (string, error)
}

// YouTubeTranscripts fetches caption text through the YouTube transcript endpoint.
type YouTubeTranscripts struct {
	Languages []string
	client    formattedTranscriptClient
}

// NewYouTubeTranscripts returns a fetcher that prints plain text with no timestamps.
func NewYouTubeTranscripts(languages ...string) *YouTubeTranscripts {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	formatter := yt_transcript_formatters.NewTextFormatter(
		yt_transcript_formatters.WithTimestamps(false),
		yt_transcript_formatters.WithLanguageCode(false),
	)
	return &YouTubeTranscripts{
		Languages: languages,
		client:    yt_transcript.NewClient(yt_transcript.WithFormatter(formatter)),
	}
}

func (y *YouTubeTranscripts) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", errors.New("youtube: video id is empty")
	}
	text, err := y.client.GetFormattedTranscripts(videoID, y.Languages, false)
	if err != nil {
		return "", fmt.Errorf("youtube: transcript for %s: %w", videoID, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("youtube: transcript for %s is empty", videoID)
	}
	return text, nil
}

package storyboard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxWords is the word budget used when a caller has no preference.
const DefaultMaxWords = 50

// DefaultImagePromptPrefix is prepended to each segment before it is sent to the image model.
const DefaultImagePromptPrefix = "Create a high-quality, engaging image that represents: "

// ErrInvalidConfiguration is returned when a caller-supplied setting cannot be used.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var sentenceTerminatorRe = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of '.', '!' or '?' and returns the trimmed, non-empty pieces
// in their original order.
func SplitSentences(text string) []string {
	parts := sentenceTerminatorRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BuildSegments packs the sentences of text into segments of roughly maxWords words each.
//
// Sentences are never split: a new segment starts only when the pending one is non-empty and the next
// sentence would push it past maxWords, so a single oversized sentence becomes its own segment.
// Each segment is its sentences joined by a space and terminated with a single '.'; original '!' and '?'
// terminators are not kept.
func BuildSegments(text string, maxWords int) ([]string, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("%w: max words must be > 0 (got %d)", ErrInvalidConfiguration, maxWords)
	}

	var segments []string
	var pending []string
	count := 0
	flush := func() {
		segments = append(segments, strings.Join(pending, " ")+".")
		pending = pending[:0]
		count = 0
	}

	for _, sentence := range SplitSentences(text) {
		words := len(strings.Fields(sentence))
		if len(pending) > 0 && count+words > maxWords {
			flush()
		}
		pending = append(pending, sentence)
		count += words
	}
	if len(pending) > 0 {
		flush()
	}
	return segments, nil
}

// ImagePrompt wraps a segment in prefix. An empty prefix returns the segment verbatim.
func ImagePrompt(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + segment
}

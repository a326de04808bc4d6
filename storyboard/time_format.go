package storyboard

import (
	"context"
	"time"
)

// StampLayout is the layout used for timestamped directory and file names (e.g. 20240131_154502).
const StampLayout = "20060102_150405"

// Stamp formats t, in its own location, using StampLayout.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// DefaultTranscriptDir returns the directory name a transcript batch started at t writes to.
func DefaultTranscriptDir(t time.Time) string {
	return "transcriptions_" + Stamp(t)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

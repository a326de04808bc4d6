package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
)

// MaxBatchURLs caps how many videos a single transcript batch accepts.
const MaxBatchURLs = 5

const (
	SummaryFileName = "summary.txt"
	ReportFileName  = "report.json"
)

// TranscriptFetcher retrieves the plain-text transcript of a single video.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

// TranscribeOptions controls where and how a transcript batch is written.
type TranscribeOptions struct {
	// OutputDir receives transcript_<n>.txt, summary.txt and report.json.
	OutputDir string

	// RunID is copied into the report when set.
	RunID string

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// VideoID extracts the video id from a YouTube watch, short-link, shorts or embed URL.
// Anything it does not recognize is returned as-is, so bare ids pass through.
func VideoID(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return s
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "youtu.be"):
		if id := firstPathSegment(u.Path); id != "" {
			return id
		}
	case strings.Contains(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live") {
			return parts[1]
		}
	}
	return s
}

func firstPathSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// TranscriptFileName is the name of the n-th (1-based) transcript in a batch directory.
func TranscriptFileName(n int) string {
	return fmt.Sprintf("transcript_%d.txt", n)
}

// TranscribeBatch fetches a transcript for each URL and writes it into opts.OutputDir.
//
// A failing URL is recorded in the summary and report and the batch moves on; only context
// cancellation and failures to write the summary itself stop the run.
func TranscribeBatch(ctx context.Context, urls []string, fetcher TranscriptFetcher, opts TranscribeOptions) (BatchReport, error) {
	if ctx == nil {
		return BatchReport{}, errors.New("TranscribeBatch: ctx is nil")
	}
	if fetcher == nil {
		return BatchReport{}, errors.New("TranscribeBatch: fetcher is nil")
	}
	if opts.OutputDir == "" {
		return BatchReport{}, errors.New("TranscribeBatch: opts.OutputDir is empty")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return BatchReport{}, fmt.Errorf("TranscribeBatch: mkdir output dir: %w", err)
	}

	started := now()
	summaryPath := filepath.Join(opts.OutputDir, SummaryFileName)
	header := fmt.Sprintf("Transcription Summary - %s\n%s\n\n", Stamp(started), strings.Repeat("=", 50))
	if err := fileutils.WriteFileAtomic(summaryPath, []byte(header), 0o644); err != nil {
		return BatchReport{}, fmt.Errorf("TranscribeBatch: write summary: %w", err)
	}

	report := newBatchReport(opts.RunID, "transcribe", opts.OutputDir, started)
	for i, rawURL := range urls {
		n := i + 1
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger.Info("processing video", "index", n, "total", len(urls), "url", rawURL)

		res := transcribeOne(ctx, n, rawURL, fetcher, opts.OutputDir)
		if res.Status == StatusFailed && ctx.Err() != nil {
			return report, ctx.Err()
		}
		if res.Status == StatusSuccess {
			logger.Info("transcript saved", "index", n, "path", res.Output)
		} else {
			logger.Warn("transcript failed", "index", n, "url", rawURL, "error", res.Error)
		}

		report.Items = append(report.Items, res)
		if err := fileutils.AppendFile(summaryPath, []byte(summaryEntry(res))); err != nil {
			return report, fmt.Errorf("TranscribeBatch: append summary: %w", err)
		}
	}

	report.FinishedAt = now().UTC().Format(time.RFC3339)
	if err := fileutils.WriteJSONFileAtomic(filepath.Join(opts.OutputDir, ReportFileName), report, true); err != nil {
		return report, fmt.Errorf("TranscribeBatch: %w", err)
	}
	return report, nil
}

func transcribeOne(ctx context.Context, n int, rawURL string, fetcher TranscriptFetcher, outDir string) ItemResult {
	videoID := VideoID(rawURL)
	if videoID == "" {
		return failed(n, rawURL, ErrorKindFetch, errors.New("empty video id"))
	}

	text, err := fetcher.FetchTranscript(ctx, videoID)
	if err != nil {
		kind := ErrorKindFetch
		if isContextErr(err) {
			kind = ErrorKindCanceled
		}
		return failed(n, rawURL, kind, err)
	}

	name := TranscriptFileName(n)
	if err := fileutils.WriteFileAtomic(filepath.Join(outDir, name), []byte(text), 0o644); err != nil {
		return failed(n, rawURL, ErrorKindWrite, err)
	}
	return succeeded(n, rawURL, name)
}

func summaryEntry(r ItemResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video %d: %s\n", r.Index, r.Input)
	if r.Status == StatusSuccess {
		b.WriteString("Status: Success\n")
		fmt.Fprintf(&b, "Output: %s\n", r.Output)
	} else {
		b.WriteString("Status: Failed\n")
		fmt.Fprintf(&b, "Error: %s\n", fileutils.SingleLine(r.Error))
	}
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n")
	return b.String()
}

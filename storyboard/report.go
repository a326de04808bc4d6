package storyboard

import (
	"context"
	"errors"
	"time"
)

// ItemStatus is the outcome of one item in a batch (a URL, a segment image).
type ItemStatus string

const (
	StatusSuccess ItemStatus = "success"
	StatusFailed  ItemStatus = "failed"
)

// ErrorKind classifies why a batch item failed.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindFetch    ErrorKind = "fetch"
	ErrorKindGenerate ErrorKind = "generate"
	ErrorKindWrite    ErrorKind = "write"
	ErrorKindCanceled ErrorKind = "canceled"
)

// ItemResult records what happened to a single batch item. Failed items are reported, not fatal.
type ItemResult struct {
	Index     int        `json:"index"`
	Input     string     `json:"input"`
	Status    ItemStatus `json:"status"`
	Output    string     `json:"output,omitempty"`
	ErrorKind ErrorKind  `json:"error_kind,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func succeeded(index int, input, output string) ItemResult {
	return ItemResult{Index: index, Input: input, Status: StatusSuccess, Output: output}
}

func failed(index int, input string, kind ErrorKind, err error) ItemResult {
	r := ItemResult{Index: index, Input: input, Status: StatusFailed, ErrorKind: kind}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// BatchReport collects per-item results for one run of a stage.
type BatchReport struct {
	RunID      string       `json:"run_id,omitempty"`
	Stage      string       `json:"stage"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at,omitempty"`
	OutputDir  string       `json:"output_dir"`
	Items      []ItemResult `json:"items"`
}

func newBatchReport(runID, stage, outputDir string, now time.Time) BatchReport {
	return BatchReport{
		RunID:     runID,
		Stage:     stage,
		StartedAt: now.UTC().Format(time.RFC3339),
		OutputDir: outputDir,
		Items:     []ItemResult{},
	}
}

// Succeeded returns the number of successful items.
func (r BatchReport) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Failed returns the number of failed items.
func (r BatchReport) Failed() int {
	return len(r.Items) - r.Succeeded()
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

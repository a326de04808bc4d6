package storyboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeGenerator struct {
	narrative Narrative
	err       error
	got       NarrativeRequest
}

func (f *fakeGenerator) GenerateNarrative(ctx context.Context, req NarrativeRequest) (Narrative, error) {
	f.got = req
	return f.narrative, f.err
}

func writeTranscripts(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoadTranscripts_SortedAndFiltered(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTranscripts(t, dir, map[string]string{
		"transcript_2.txt": "two",
		"transcript_1.txt": "one",
		"summary.txt":      "not a transcript",
		"notes.md":         "nope",
	})

	got, err := LoadTranscripts(dir, nil)
	if err != nil {
		t.Fatalf("LoadTranscripts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Text != "one" || got[1].Text != "two" {
		t.Fatalf("order=%q,%q", got[0].Text, got[1].Text)
	}
}

func TestBuildNarrativePrompt(t *testing.T) {
	t.Parallel()

	instructions, input := BuildNarrativePrompt([]string{"alpha", "beta"}, 300)
	if !strings.Contains(instructions, "approximately 300 words") {
		t.Fatalf("instructions=%q", instructions)
	}
	for _, want := range []string{
		"6. Be approximately 300 words in length",
		"\nTranscript 1:\nalpha\n",
		"\nTranscript 2:\nbeta\n",
		"The output should be approximately 300 words:",
	} {
		if !strings.Contains(input, want) {
			t.Fatalf("input missing %q:\n%s", want, input)
		}
	}
	if strings.Index(input, "alpha") > strings.Index(input, "beta") {
		t.Fatalf("transcripts out of order")
	}
}

func TestGenerateContent_WritesEnvelope(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTranscripts(t, dir, map[string]string{"transcript_1.txt": "hello there"})
	gen := &fakeGenerator{narrative: Narrative{Title: " T ", Text: "  One two three. Four five.  "}}
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	res, err := GenerateContent(context.Background(), dir, gen, GenerateOptions{
		WordLimit: 150,
		Now:       func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if gen.got.MaxOutputTokens != 300 || gen.got.WordLimit != 150 {
		t.Fatalf("request=%+v", gen.got)
	}
	wantPath := filepath.Join(dir, GeneratedDirName, "generated_content_20240506_070809.txt")
	if res.OutputPath != wantPath {
		t.Fatalf("OutputPath=%q, want %q", res.OutputPath, wantPath)
	}
	if res.WordCount != 5 || res.Title != "T" || res.TranscriptsUsed != 1 {
		t.Fatalf("res=%+v", res)
	}

	b, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Generated Content\n" + strings.Repeat("=", 50) + "\n\nWord limit: 150\n\nOne two three. Four five.\n\nWord count: 5"
	if string(b) != want {
		t.Fatalf("file=%q\nwant=%q", string(b), want)
	}
	if got := StripContentEnvelope(string(b)); got != "One two three. Four five." {
		t.Fatalf("StripContentEnvelope=%q", got)
	}
}

func TestGenerateContent_Errors(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	_, err := GenerateContent(context.Background(), empty, &fakeGenerator{}, GenerateOptions{WordLimit: 500})
	if !errors.Is(err, ErrNoTranscripts) {
		t.Fatalf("err=%v, want ErrNoTranscripts", err)
	}

	dir := t.TempDir()
	writeTranscripts(t, dir, map[string]string{"transcript_1.txt": "x"})
	boom := errors.New("boom")
	_, err = GenerateContent(context.Background(), dir, &fakeGenerator{err: boom}, GenerateOptions{WordLimit: 500})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, GeneratedDirName)); statErr == nil {
		t.Fatalf("output dir should not be created when generation fails")
	}

	_, err = GenerateContent(context.Background(), dir, &fakeGenerator{}, GenerateOptions{WordLimit: 0})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err=%v, want ErrInvalidConfiguration", err)
	}
}

func TestStripContentEnvelope_PassThrough(t *testing.T) {
	t.Parallel()

	plain := "  Just a story. With two sentences.\n"
	if got := StripContentEnvelope(plain); got != "Just a story. With two sentences." {
		t.Fatalf("got=%q", got)
	}
	multi := FormatContentEnvelope("Para one.\n\nPara two.", 500)
	if got := StripContentEnvelope(multi); got != "Para one.\n\nPara two." {
		t.Fatalf("got=%q", got)
	}
}

func TestLatestGeneratedContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LatestGeneratedContent(dir); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	writeTranscripts(t, dir, map[string]string{
		"generated_content_20240101_120000.txt": "a",
		"generated_content_20240301_090000.txt": "b",
		"generated_content_20240201_230000.txt": "c",
	})
	got, err := LatestGeneratedContent(dir)
	if err != nil {
		t.Fatalf("LatestGeneratedContent: %v", err)
	}
	if filepath.Base(got) != "generated_content_20240301_090000.txt" {
		t.Fatalf("got=%s", got)
	}
}

package fileutils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic_CreatesDirsAndReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.txt")

	if err := WriteFileAtomic(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(p) {
		t.Fatalf("expected %s to exist", p)
	}
	if err := WriteFileAtomic(p, []byte("new"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "new" {
		t.Fatalf("content=%q, want %q", string(b), "new")
	}

	// No temp files should be left behind.
	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1", len(entries))
	}
}

func TestWriteJSONFileAtomic_TrailingNewline(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "x.json")
	if err := WriteJSONFileAtomic(p, map[string]int{"a": 1}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "{\"a\":1}\n" {
		t.Fatalf("content=%q", string(b))
	}
}

func TestAppendFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "log.txt")
	if err := AppendFile(p, []byte("a\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendFile(p, []byte("b\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "a\nb\n" {
		t.Fatalf("content=%q", string(b))
	}
}

func TestSingleLineAndTruncate(t *testing.T) {
	t.Parallel()

	if got := SingleLine("a\r\nb\n  c"); got != "a b c" {
		t.Fatalf("SingleLine=%q", got)
	}
	if got := Truncate("  abcdef ", 3); got != "abc…" {
		t.Fatalf("Truncate=%q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("Truncate(0)=%q", got)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	var v struct {
		Title string `json:"title"`
	}
	if err := DecodeModelJSON(`here you go: {"title":"x"} thanks`, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Title != "x" {
		t.Fatalf("Title=%q", v.Title)
	}
	if err := DecodeModelJSON("   ", &v); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF", err)
	}
	if err := DecodeModelJSON("plain prose", &v); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("err=%v, want ErrNoJSONObject", err)
	}
	if err := DecodeModelJSON(`{"title":"cut off mid`, &v); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF for unclosed object", err)
	}
}

func TestDecodeModelJSON_CodeFence(t *testing.T) {
	t.Parallel()

	var v struct {
		Title string `json:"title"`
	}
	if err := DecodeModelJSON("```json\n{\"title\":\"fenced\"}\n```", &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Title != "fenced" {
		t.Fatalf("Title=%q", v.Title)
	}
}

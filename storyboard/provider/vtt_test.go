package provider

import "testing"

func TestCleanVTT(t *testing.T) {
	t.Parallel()

	raw := "WEBVTT\r\nKind: captions\r\nLanguage: en\r\n\r\n" +
		"1\r\n00:00:00.000 --> 00:00:02.000 align:start position:0%\r\n" +
		"hello<00:00:00.500><c> world</c>\r\n\r\n" +
		"2\r\n00:00:02.000 --> 00:00:04.000\r\n" +
		"hello world\r\n" +
		"rock &amp; roll\r\n\r\n" +
		"NOTE this is a comment\r\n"

	got := CleanVTT(raw)
	want := "hello world rock & roll"
	if got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestCleanVTT_Empty(t *testing.T) {
	t.Parallel()

	if got := CleanVTT(""); got != "" {
		t.Fatalf("got=%q", got)
	}
	if got := CleanVTT("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\n\n"); got != "" {
		t.Fatalf("got=%q", got)
	}
}

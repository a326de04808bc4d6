package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when model output contains no '{' at all.
var ErrNoJSONObject = errors.New("no JSON object in model output")

var codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// DecodeModelJSON decodes a JSON object out of model output. Accepted shapes, in order:
// the bare object, the object inside a ```json fence, and the outermost {...} span of
// surrounding prose. An object that opens but never closes is reported as io.ErrUnexpectedEOF.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(s)) {
		return json.Unmarshal([]byte(s), v)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 {
		return fmt.Errorf("%w (%d bytes)", ErrNoJSONObject, len(s))
	}
	if end <= start {
		return fmt.Errorf("unclosed JSON object in model output (%d bytes): %w", len(s), io.ErrUnexpectedEOF)
	}
	obj := s[start : end+1]
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode JSON object from model output (%d bytes): %w", len(obj), err)
	}
	return nil
}

package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
)

const (
	// GeneratedDirName is the directory, inside a transcript batch, that receives generated narratives.
	GeneratedDirName = "merged-gen-output"

	MinWordLimit     = 100
	DefaultWordLimit = 500
	// CostlyWordLimit is the point past which callers should warn about API cost.
	CostlyWordLimit = 2000
)

// ErrNoTranscripts is returned when a directory yields no readable transcript files.
var ErrNoTranscripts = errors.New("no transcripts found")

// Transcript is one transcript file loaded from a batch directory.
type Transcript struct {
	Path string
	Text string
}

// NarrativeRequest is everything a model needs to write a narrative.
type NarrativeRequest struct {
	Instructions    string
	Input           string
	WordLimit       int
	MaxOutputTokens int
}

// Narrative is a generated piece of content.
type Narrative struct {
	Title string `json:"title" jsonschema:"required,description=Short working title for the narrative"`
	Text  string `json:"narrative" jsonschema:"required,description=The narrative itself as plain prose"`
}

// NarrativeGenerator writes a narrative from prepared instructions and input.
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, req NarrativeRequest) (Narrative, error)
}

// GenerateOptions controls a GenerateContent run.
type GenerateOptions struct {
	WordLimit int

	// OutputDir defaults to <inDir>/merged-gen-output.
	OutputDir string

	Now    func() time.Time
	Logger *slog.Logger
}

// GenerateResult describes the file written by GenerateContent.
type GenerateResult struct {
	OutputPath      string
	Title           string
	WordCount       int
	TranscriptsUsed int
}

// LoadTranscripts reads transcript_*.txt files from dir in name order. Files that cannot be read
// are logged and skipped.
func LoadTranscripts(dir string, logger *slog.Logger) ([]Transcript, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "transcript_*.txt"))
	if err != nil {
		return nil, fmt.Errorf("LoadTranscripts: glob: %w", err)
	}
	sort.Strings(paths)

	out := make([]Transcript, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("skipping unreadable transcript", "path", p, "error", err)
			continue
		}
		out = append(out, Transcript{Path: p, Text: string(b)})
	}
	return out, nil
}

// BuildNarrativePrompt returns the system instructions and the user input for a narrative of roughly
// wordLimit words synthesized from transcripts.
func BuildNarrativePrompt(transcripts []string, wordLimit int) (instructions string, input string) {
	instructions = fmt.Sprintf("You are an expert content creator who excels at synthesizing information and creating engaging narratives. Keep your response to approximately %d words.", wordLimit)

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert content creator. Analyze the following video transcripts and create a fresh, engaging narrative that captures the essence of the content.
The new content should:
1. Maintain the key information and insights
2. Be well-structured and coherent
3. Have a natural, conversational tone
4. Include relevant details and examples
5. Be engaging and easy to follow
6. Be approximately %d words in length

Original Transcripts:
`, wordLimit)
	for i, t := range transcripts {
		fmt.Fprintf(&b, "\nTranscript %d:\n%s\n", i+1, t)
	}
	fmt.Fprintf(&b, "\nPlease generate a fresh narrative based on these transcripts. The output should be approximately %d words:", wordLimit)
	return instructions, b.String()
}

// GenerateContent loads the transcripts in inDir, asks gen for a narrative and writes it to a timestamped
// generated_content_<stamp>.txt file.
func GenerateContent(ctx context.Context, inDir string, gen NarrativeGenerator, opts GenerateOptions) (GenerateResult, error) {
	if ctx == nil {
		return GenerateResult{}, errors.New("GenerateContent: ctx is nil")
	}
	if gen == nil {
		return GenerateResult{}, errors.New("GenerateContent: generator is nil")
	}
	if opts.WordLimit <= 0 {
		return GenerateResult{}, fmt.Errorf("%w: word limit must be > 0 (got %d)", ErrInvalidConfiguration, opts.WordLimit)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Join(inDir, GeneratedDirName)
	}

	transcripts, err := LoadTranscripts(inDir, opts.Logger)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(transcripts) == 0 {
		return GenerateResult{}, fmt.Errorf("GenerateContent: %w in %s", ErrNoTranscripts, inDir)
	}
	texts := make([]string, len(transcripts))
	for i, t := range transcripts {
		texts[i] = t.Text
	}

	instructions, input := BuildNarrativePrompt(texts, opts.WordLimit)
	narrative, err := gen.GenerateNarrative(ctx, NarrativeRequest{
		Instructions:    instructions,
		Input:           input,
		WordLimit:       opts.WordLimit,
		MaxOutputTokens: opts.WordLimit * 2,
	})
	if err != nil {
		return GenerateResult{}, fmt.Errorf("GenerateContent: generate: %w", err)
	}
	text := strings.TrimSpace(narrative.Text)
	if text == "" {
		return GenerateResult{}, errors.New("GenerateContent: model returned an empty narrative")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return GenerateResult{}, fmt.Errorf("GenerateContent: mkdir output dir: %w", err)
	}
	outPath := filepath.Join(outDir, "generated_content_"+Stamp(now())+".txt")
	body := FormatContentEnvelope(text, opts.WordLimit)
	if err := fileutils.WriteFileAtomic(outPath, []byte(body), 0o644); err != nil {
		return GenerateResult{}, fmt.Errorf("GenerateContent: write: %w", err)
	}

	return GenerateResult{
		OutputPath:      outPath,
		Title:           strings.TrimSpace(narrative.Title),
		WordCount:       len(strings.Fields(text)),
		TranscriptsUsed: len(transcripts),
	}, nil
}

const (
	envelopeTitle       = "Generated Content"
	envelopeLimitPrefix = "Word limit: "
	envelopeCountPrefix = "Word count: "
)

// FormatContentEnvelope wraps a narrative in the generated-content file layout.
func FormatContentEnvelope(narrative string, wordLimit int) string {
	var b strings.Builder
	b.WriteString(envelopeTitle + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "%s%d\n\n", envelopeLimitPrefix, wordLimit)
	b.WriteString(narrative)
	fmt.Fprintf(&b, "\n\n%s%d", envelopeCountPrefix, len(strings.Fields(narrative)))
	return b.String()
}

// StripContentEnvelope returns just the narrative from a generated-content file. Input without the
// envelope is returned trimmed but otherwise unchanged.
func StripContentEnvelope(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != envelopeTitle || !isRule(lines[1], '=') {
		return strings.TrimSpace(s)
	}

	body := lines[2:]
	for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}
	if len(body) > 0 && strings.HasPrefix(body[0], envelopeLimitPrefix) {
		body = body[1:]
	}
	if n := len(body); n > 0 {
		last := strings.TrimSpace(body[n-1])
		if strings.HasPrefix(last, envelopeCountPrefix) {
			if _, err := strconv.Atoi(strings.TrimPrefix(last, envelopeCountPrefix)); err == nil {
				body = body[:n-1]
			}
		}
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

func isRule(line string, c byte) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 {
		return false
	}
	return strings.Trim(line, string(c)) == ""
}

// LatestGeneratedContent returns the newest generated_content_*.txt in dir. Stamps sort lexically.
func LatestGeneratedContent(dir string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "generated_content_*.txt"))
	if err != nil {
		return "", fmt.Errorf("LatestGeneratedContent: glob: %w", err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("LatestGeneratedContent: no generated content in %s", dir)
	}
	sort.Strings(paths)
	return paths[len(paths)-1], nil
}

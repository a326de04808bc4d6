package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/fileutils"
	"github.com/theimaginaryfoundation/narrate-o-bot/storyboard/provider"
)

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if cfg.WordLimit > storyboard.CostlyWordLimit {
		fmt.Fprintf(os.Stderr, "warning: word-limit %d is large and will increase API cost\n", cfg.WordLimit)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := openai.NewClient(option.WithAPIKey(apiKey))
	gen := newOpenAINarrativeGenerator(&client, cfg)

	start := time.Now()
	fmt.Fprintf(os.Stderr, "progress generate-content: generating ~%d words from %s\n", cfg.WordLimit, cfg.InDir)
	res, err := storyboard.GenerateContent(ctx, cfg.InDir, gen, storyboard.GenerateOptions{
		WordLimit: cfg.WordLimit,
		OutputDir: cfg.OutDir,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if errors.Is(err, storyboard.ErrNoTranscripts) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "progress generate-content: done model=%s elapsed=%s\n", gen.lastModel, time.Since(start).Round(time.Second))
	fmt.Fprintf(os.Stdout, "transcripts_used=%d word_count=%d word_limit=%d title=%q out=%s\n",
		res.TranscriptsUsed, res.WordCount, cfg.WordLimit, res.Title, res.OutputPath)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	fs.StringVar(&cfg.InDir, "in", "", "Transcript batch directory containing transcript_*.txt")
	fs.StringVar(&cfg.OutDir, "out", "", "Output directory (default: <in>/merged-gen-output)")
	fs.IntVar(&cfg.WordLimit, "word-limit", cfg.WordLimit, "Approximate length of the generated narrative in words")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use")
	fs.StringVar(&cfg.FallbackModel, "fallback-model", cfg.FallbackModel, "Model to retry with when -model is unavailable (empty disables)")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log progress details to stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.InDir == "" && fs.NArg() > 0 {
		cfg.InDir = fs.Arg(0)
	}
	if cfg.InDir != "" {
		cfg.InDir = filepath.Clean(cfg.InDir)
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	return cfg, nil
}

var narrativeSchema = provider.GenerateSchema[storyboard.Narrative]()

// respondFunc sends one Responses API request and returns the output text.
type respondFunc func(ctx context.Context, params responses.ResponseNewParams) (string, error)

type openAINarrativeGenerator struct {
	model         string
	fallbackModel string
	temperature   float64
	respond       respondFunc

	lastModel string
}

func newOpenAINarrativeGenerator(client *openai.Client, cfg Config) *openAINarrativeGenerator {
	return &openAINarrativeGenerator{
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		temperature:   cfg.Temperature,
		respond: func(ctx context.Context, params responses.ResponseNewParams) (string, error) {
			resp, err := provider.CallWithRetry(ctx, func(ctx context.Context) (*responses.Response, error) {
				return client.Responses.New(ctx, params)
			})
			if err != nil {
				return "", err
			}
			return resp.OutputText(), nil
		},
	}
}

func (g *openAINarrativeGenerator) GenerateNarrative(ctx context.Context, req storyboard.NarrativeRequest) (storyboard.Narrative, error) {
	if g.respond == nil {
		return storyboard.Narrative{}, errors.New("openAINarrativeGenerator: respond is nil")
	}
	if g.model == "" {
		return storyboard.Narrative{}, errors.New("openAINarrativeGenerator: model is empty")
	}

	var lastOut string
	for attempt := 0; attempt < 2; attempt++ {
		r := req
		if attempt == 1 {
			// Truncated or missing JSON usually means the token cap was hit.
			r.MaxOutputTokens = req.MaxOutputTokens * 2
			r.Instructions = req.Instructions + "\n\nIMPORTANT: Ensure the JSON is complete and valid. If needed, shorten the narrative to fit."
		}

		out, err := g.respond(ctx, g.params(g.model, r, true))
		g.lastModel = g.model
		if err != nil && g.fallbackModel != "" && g.fallbackModel != g.model && provider.IsModelError(err) {
			fmt.Fprintf(os.Stderr, "model %s unavailable, retrying with %s: %v\n", g.model, g.fallbackModel, err)
			// Older fallback models reject strict JSON schemas; ask for plain text.
			out, err = g.respond(ctx, g.params(g.fallbackModel, req, false))
			g.lastModel = g.fallbackModel
			if err != nil {
				return storyboard.Narrative{}, err
			}
			return decodeProse(out), nil
		}
		if err != nil {
			return storyboard.Narrative{}, err
		}

		lastOut = out
		n, err := decodeNarrative(out)
		if err != nil {
			if attempt == 0 && isRecoverableModelJSONError(err) {
				fmt.Fprintf(os.Stderr, "narrative JSON incomplete, retrying with max_output_tokens=%d\n", req.MaxOutputTokens*2)
				continue
			}
			return storyboard.Narrative{}, fmt.Errorf("unmarshal narrative: %w (model_output_prefix=%q)", err, fileutils.Truncate(lastOut, 500))
		}
		return n, nil
	}
	return storyboard.Narrative{}, fmt.Errorf("unmarshal narrative: incomplete JSON after retry (model_output_prefix=%q)", fileutils.Truncate(lastOut, 500))
}

func (g *openAINarrativeGenerator) params(model string, req storyboard.NarrativeRequest, structured bool) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(int64(req.MaxOutputTokens)),
		Instructions:    openai.String(req.Instructions),
		Temperature:     openai.Float(g.temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Input, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if structured {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "Narrative",
					Schema:      narrativeSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Generated narrative JSON"),
					Type:        "json_schema",
				},
			},
		}
	}
	return params
}

var errEmptyNarrative = errors.New("narrative field is empty")

// decodeNarrative decodes a structured {title, narrative} response.
func decodeNarrative(out string) (storyboard.Narrative, error) {
	var n storyboard.Narrative
	if err := fileutils.DecodeModelJSON(out, &n); err != nil {
		return storyboard.Narrative{}, err
	}
	n.Title = strings.TrimSpace(n.Title)
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		return storyboard.Narrative{}, errEmptyNarrative
	}
	return n, nil
}

// decodeProse handles plain-text responses, which may still carry a JSON object.
func decodeProse(out string) storyboard.Narrative {
	if n, err := decodeNarrative(out); err == nil {
		return n
	}
	return storyboard.Narrative{Text: strings.TrimSpace(out)}
}

func isJSONTruncationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unexpected end of json input") ||
		strings.Contains(s, "unexpected eof")
}

func isRecoverableModelJSONError(err error) bool {
	if err == nil {
		return false
	}
	if isJSONTruncationError(err) || errors.Is(err, errEmptyNarrative) {
		return true
	}
	return errors.Is(err, fileutils.ErrNoJSONObject)
}

package llm

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	genai "google.golang.org/genai"

	"cardforge/internal/schema"
	"cardforge/internal/util/jsonutil"
)

// GeminiClient wraps the official genai client. Structured output is
// requested as application/json with the validated schema embedded as a
// contract block, matching the provider's strict-output behavior.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	// Optional throttle via env: LLM_RPS / LLM_BURST.
	var rps float64
	var burst int
	if v := os.Getenv("LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	if v := os.Getenv("LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			burst = n
		}
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string    { return "Gemini:" + g.model }
func (g *GeminiClient) Connected() bool { return g.cli != nil }

func (g *GeminiClient) Close() error {
	g.rl.Stop()
	return nil
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	full := req.Prompt
	cfg := &genai.GenerateContentConfig{}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		if contract, err := jsonutil.MarshalNoEscape(req.Schema.Value); err == nil {
			full += "\n\n## Output Schema\n\nRespond with JSON conforming to:\n" + string(contract)
		}
	}
	log.Printf("llm: gemini request: %d bytes", len(full))

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := g.rl.Acquire(ctx); err != nil {
			return Response{}, mapCtxErr(err)
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
			cfg,
		)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Response{}, ErrCancelled
			}
			lastErr = err
		case len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0:
			lastErr = ErrEmptyResponse
		default:
			text := resp.Candidates[0].Content.Parts[0].Text
			structured := false
			if req.Schema != nil {
				_, structured = schema.ParseStructuredResponse(text)
			}
			return Response{Text: text, Structured: structured}, nil
		}
		select {
		case <-ctx.Done():
			return Response{}, ErrCancelled
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	return Response{}, lastErr
}

func mapCtxErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return err
}

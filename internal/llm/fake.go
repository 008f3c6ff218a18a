package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// FakeClient returns deterministic responses for offline runs and tests.
// Responses can be scripted per call; without a script it synthesizes a
// stage-appropriate reply from the prompt's section headers.
type FakeClient struct {
	Script []Response
	calls  atomic.Int64
}

func NewFakeClient(script ...Response) *FakeClient {
	return &FakeClient{Script: script}
}

func (f *FakeClient) Name() string    { return "FakeLLM" }
func (f *FakeClient) Connected() bool { return true }
func (f *FakeClient) Close() error    { return nil }

func (f *FakeClient) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, ErrCancelled
	}
	n := f.calls.Add(1)
	if int(n) <= len(f.Script) {
		return f.Script[n-1], nil
	}
	switch {
	case strings.Contains(req.Prompt, "## Current Analysis"):
		return Response{Text: fmt.Sprintf("fake refinement rewrite #%d", n)}, nil
	case strings.Contains(req.Prompt, "## Current Rewrite"):
		return Response{Text: fmt.Sprintf("Verdict: needs refinement. fake analysis #%d", n)}, nil
	case strings.Contains(req.Prompt, "## Score Feedback"):
		return Response{Text: fmt.Sprintf("fake rewrite #%d", n)}, nil
	default:
		return Response{Text: fmt.Sprintf("Overall score 7/10. fake feedback #%d", n)}, nil
	}
}

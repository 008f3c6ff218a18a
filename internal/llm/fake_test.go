package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFakeClientScript(t *testing.T) {
	f := NewFakeClient(
		Response{Text: "first"},
		Response{Text: "second"},
	)
	ctx := context.Background()

	for _, want := range []string{"first", "second"} {
		resp, err := f.Generate(ctx, Request{Prompt: "anything"})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if resp.Text != want {
			t.Fatalf("got %q want %q", resp.Text, want)
		}
	}

	// Past the script it synthesizes from the prompt shape.
	resp, err := f.Generate(ctx, Request{Prompt: "## Current Rewrite\n..."})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(resp.Text, "Verdict") {
		t.Fatalf("analysis-shaped prompt got %q", resp.Text)
	}
}

func TestFakeClientHonorsCancellation(t *testing.T) {
	f := NewFakeClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Generate(ctx, Request{Prompt: "x"}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("error: %v", err)
	}
}

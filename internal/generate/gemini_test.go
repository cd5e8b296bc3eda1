package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

type stubContentGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (s *stubContentGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return s.resp, s.err
}

func candidates(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.Text(t))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeminiGenerateSuccess(t *testing.T) {
	g := &Gemini{generator: &stubContentGenerator{resp: candidates("  ", `{"headline":"Gemini says","content":"<p>ok</p>"}`)}}

	a, err := g.Generate(context.Background(), testParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Headline != "Gemini says" || a.Content != "<p>ok</p>" {
		t.Fatalf("unexpected article: %+v", a)
	}
}

func TestGeminiGenerateFailures(t *testing.T) {
	cases := map[string]*stubContentGenerator{
		"client error":  {err: errors.New("quota")},
		"nil response":  {},
		"no candidates": {resp: &genai.GenerateContentResponse{}},
		"bad json":      {resp: candidates("plain prose")},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			g := &Gemini{generator: gen}
			if _, err := g.Generate(context.Background(), testParams); !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), " ", "model"); err == nil {
		t.Fatalf("expected error when key is missing")
	}
}

func TestGeminiCloseWithoutClient(t *testing.T) {
	var g *Gemini
	if err := g.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

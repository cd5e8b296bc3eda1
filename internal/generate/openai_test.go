package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	githubOpenAI "github.com/sashabaranov/go-openai"
)

type stubChatClient struct {
	resp githubOpenAI.ChatCompletionResponse
	err  error
	req  githubOpenAI.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req githubOpenAI.ChatCompletionRequest) (githubOpenAI.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func completion(content string) githubOpenAI.ChatCompletionResponse {
	return githubOpenAI.ChatCompletionResponse{
		Choices: []githubOpenAI.ChatCompletionChoice{{
			Message: githubOpenAI.ChatCompletionMessage{Content: content},
		}},
	}
}

func TestOpenAIGenerateSuccess(t *testing.T) {
	client := &stubChatClient{resp: completion(`{"headline":"Hello","content":"<p>hi</p>"}`)}
	o := &OpenAI{client: client, model: "test-model"}

	a, err := o.Generate(context.Background(), testParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Headline != "Hello" || a.Content != "<p>hi</p>" {
		t.Fatalf("unexpected article: %+v", a)
	}
	if client.req.Model != "test-model" {
		t.Fatalf("unexpected model %q", client.req.Model)
	}
	if client.req.ResponseFormat == nil || client.req.ResponseFormat.Type != githubOpenAI.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected json response format")
	}
	if len(client.req.Messages) != 2 || !strings.Contains(client.req.Messages[1].Content, "subject: Go generics") {
		t.Fatalf("prompt does not carry params: %+v", client.req.Messages)
	}
}

func TestOpenAIGenerateFencedJSON(t *testing.T) {
	client := &stubChatClient{resp: completion("```json\n{\"headline\":\"Fenced\",\"content\":\"x\"}\n```")}
	o := &OpenAI{client: client, model: "test"}

	a, err := o.Generate(context.Background(), testParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Headline != "Fenced" {
		t.Fatalf("unexpected headline %q", a.Headline)
	}
}

func TestOpenAIGenerateFailures(t *testing.T) {
	cases := map[string]*stubChatClient{
		"client error": {err: errors.New("boom")},
		"no choices":   {resp: githubOpenAI.ChatCompletionResponse{}},
		"not json":     {resp: completion("Once upon a time")},
		"no headline":  {resp: completion(`{"content":"x"}`)},
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			o := &OpenAI{client: client, model: "test"}
			if _, err := o.Generate(context.Background(), testParams); !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "model", ""); err == nil {
		t.Fatalf("expected error when key is missing")
	}
	if _, err := NewOpenAI("key", "model", "https://example.com/v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

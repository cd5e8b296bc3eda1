package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var newGeminiClient = genai.NewClient

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	generator contentGenerator
	closeFn   func() error
}

func NewGemini(ctx context.Context, apiKey, modelName string, extraOpts ...option.ClientOption) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini generator: GEMINI_API_KEY is not set")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, extraOpts...)
	client, err := newGeminiClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	model := client.GenerativeModel(modelName)
	model.SetCandidateCount(1)
	model.SetMaxOutputTokens(maxOutputTokens)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	return &Gemini{generator: model, closeFn: client.Close}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g == nil || g.closeFn == nil {
		return nil
	}
	return g.closeFn()
}

func (g *Gemini) Generate(ctx context.Context, p Params) (*Article, error) {
	resp, err := g.generator.GenerateContent(ctx, genai.Text(userPrompt(p)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
					return decodeArticle(string(text))
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: empty candidate list", ErrUpstream)
}

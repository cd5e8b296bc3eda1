package generate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexadark/workshop-cityjs/internal/config"
)

// New builds the generator named by cfg.Provider. The returned close func is
// never nil.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Provider {
	case config.ProviderOpenAI:
		g, err := NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	case config.ProviderLangbase, "":
		g, err := NewLangbase(cfg.Endpoint, cfg.Token, &http.Client{Timeout: cfg.Timeout})
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	default:
		return nil, noop, fmt.Errorf("generate: unknown provider %q", cfg.Provider)
	}
}

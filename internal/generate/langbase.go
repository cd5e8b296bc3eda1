package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 4 << 20

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type langbaseRequest struct {
	Prompt struct {
		Messages  []message  `json:"messages"`
		Variables []Variable `json:"variables"`
	} `json:"prompt"`
}

// Langbase calls a pipe endpoint that answers with {headline, content}.
type Langbase struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewLangbase(endpoint, token string, client *http.Client) (*Langbase, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("langbase: endpoint is not set")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("langbase: LANGBASE_TOKEN is not set")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Langbase{endpoint: endpoint, token: token, client: client}, nil
}

func (l *Langbase) Generate(ctx context.Context, p Params) (*Article, error) {
	var body langbaseRequest
	body.Prompt.Messages = []message{{Role: "system", Content: systemPrompt}}
	body.Prompt.Variables = p.Variables()
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: http status %d", ErrUpstream, resp.StatusCode)
	}

	var a Article
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return checkArticle(&a)
}

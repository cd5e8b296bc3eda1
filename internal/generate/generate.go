// Package generate produces draft posts from a text-generation service and
// stores them through the persistence gateway.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alexadark/workshop-cityjs/internal/models"
)

// ErrUpstream covers every way the generation service can let us down:
// unreachable, non-2xx, timeout or an unusable body.
var ErrUpstream = errors.New("generation service failed")

const systemPrompt = "Generate content based on the following parameters."

// Params are the knobs exposed by the generation form.
type Params struct {
	Subject      string
	Style        string
	Tone         string
	Purpose      string
	Keywords     string
	Length       string
	TargetReader string
	Language     string
}

type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variables lists the params in the order the prompt expects them.
func (p Params) Variables() []Variable {
	return []Variable{
		{Name: "style", Value: p.Style},
		{Name: "tone", Value: p.Tone},
		{Name: "purpose", Value: p.Purpose},
		{Name: "keywords", Value: p.Keywords},
		{Name: "length", Value: p.Length},
		{Name: "subject", Value: p.Subject},
		{Name: "targetReader", Value: p.TargetReader},
		{Name: "language", Value: p.Language},
	}
}

// Article is what a generator hands back.
type Article struct {
	Headline string `json:"headline"`
	Content  string `json:"content"`
}

type Generator interface {
	Generate(ctx context.Context, p Params) (*Article, error)
}

// Result separates the two halves of a generation run so callers can tell a
// failed upstream call from a failed write.
type Result struct {
	Generated bool
	Persisted bool
	Post      *models.Post
	Err       error
}

// Run asks gen for an article within timeout and stores it as a new post.
func Run(ctx context.Context, gen Generator, db *gorm.DB, p Params, timeout time.Duration) Result {
	genCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	article, err := gen.Generate(genCtx, p)
	if err != nil {
		if !errors.Is(err, ErrUpstream) {
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		log.Printf("[generate] run: subject=%q: %v", p.Subject, err)
		return Result{Err: err}
	}

	post, err := models.CreatePost(ctx, db, article.Headline, article.Content)
	if err != nil {
		log.Printf("[generate] run: store %q: %v", article.Headline, err)
		return Result{Generated: true, Err: err}
	}
	log.Printf("[generate] run: created post id=%s slug=%s", post.ID, post.Slug)
	return Result{Generated: true, Persisted: true, Post: post}
}

// userPrompt renders the params for chat-style models.
func userPrompt(p Params) string {
	var b strings.Builder
	b.WriteString("Write a blog post with these parameters:\n")
	for _, v := range p.Variables() {
		if strings.TrimSpace(v.Value) == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", v.Name, v.Value)
	}
	b.WriteString(`Reply with a single JSON object {"headline": string, "content": string}. ` +
		"content is HTML markup suitable for a rich-text editor.")
	return b.String()
}

// decodeArticle parses a model reply, tolerating a fenced code block around
// the JSON.
func decodeArticle(text string) (*Article, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var a Article
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("%w: decode article: %v", ErrUpstream, err)
	}
	return checkArticle(&a)
}

func checkArticle(a *Article) (*Article, error) {
	if a == nil || strings.TrimSpace(a.Headline) == "" {
		return nil, fmt.Errorf("%w: response has no headline", ErrUpstream)
	}
	a.Headline = strings.TrimSpace(a.Headline)
	return a, nil
}

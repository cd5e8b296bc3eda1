package generate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/alexadark/workshop-cityjs/internal/config"
	"github.com/alexadark/workshop-cityjs/internal/db"
	"github.com/alexadark/workshop-cityjs/internal/models"
)

type fakeGenerator struct {
	article *Article
	err     error
	wait    bool
}

func (f *fakeGenerator) Generate(ctx context.Context, p Params) (*Article, error) {
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.article, f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

func postCount(t *testing.T, gdb *gorm.DB) int {
	t.Helper()
	posts, err := models.ListPosts(context.Background(), gdb)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return len(posts)
}

func TestRunCreatesUnpublishedPost(t *testing.T) {
	gdb := newTestDB(t)
	gen := &fakeGenerator{article: &Article{Headline: "Hello World!", Content: "<p>hi</p>"}}

	res := Run(context.Background(), gen, gdb, testParams, time.Second)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Generated || !res.Persisted {
		t.Fatalf("expected generated and persisted, got %+v", res)
	}
	if res.Post == nil || res.Post.Slug != "hello-world" || res.Post.Published {
		t.Fatalf("unexpected post: %+v", res.Post)
	}
	stored, err := models.GetPost(context.Background(), gdb, res.Post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Content != "<p>hi</p>" {
		t.Fatalf("unexpected stored content %q", stored.Content)
	}
}

func TestRunUpstreamFailureCreatesNothing(t *testing.T) {
	gdb := newTestDB(t)
	gen := &fakeGenerator{err: errors.New("connection refused")}

	res := Run(context.Background(), gen, gdb, testParams, time.Second)
	if !errors.Is(res.Err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", res.Err)
	}
	if res.Generated || res.Persisted || res.Post != nil {
		t.Fatalf("expected nothing generated, got %+v", res)
	}
	if n := postCount(t, gdb); n != 0 {
		t.Fatalf("expected no posts, found %d", n)
	}
}

func TestRunTimeout(t *testing.T) {
	gdb := newTestDB(t)

	res := Run(context.Background(), &fakeGenerator{wait: true}, gdb, testParams, 20*time.Millisecond)
	if !errors.Is(res.Err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream on timeout, got %v", res.Err)
	}
	if res.Generated {
		t.Fatalf("timeout must not count as generated")
	}
}

func TestRunPersistFailure(t *testing.T) {
	gdb := newTestDB(t)
	if err := db.Close(gdb); err != nil {
		t.Fatalf("close: %v", err)
	}
	gen := &fakeGenerator{article: &Article{Headline: "Orphan", Content: "x"}}

	res := Run(context.Background(), gen, gdb, testParams, time.Second)
	if !errors.Is(res.Err, models.ErrNotPersisted) {
		t.Fatalf("expected ErrNotPersisted, got %v", res.Err)
	}
	if !res.Generated || res.Persisted || res.Post != nil {
		t.Fatalf("expected generated but not persisted, got %+v", res)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	base := config.GenerationConfig{Timeout: time.Second, Endpoint: config.DefaultLangbaseEndpoint}

	cfg := base
	cfg.Provider = config.ProviderLangbase
	cfg.Token = "token"
	gen, closeFn, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("langbase: %v", err)
	}
	if _, ok := gen.(*Langbase); !ok {
		t.Fatalf("expected *Langbase, got %T", gen)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg = base
	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI = config.OpenAIConfig{APIKey: "key", Model: "model"}
	gen, _, err = New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := gen.(*OpenAI); !ok {
		t.Fatalf("expected *OpenAI, got %T", gen)
	}

	cfg = base
	cfg.Provider = config.ProviderLangbase
	if _, closeFn, err := New(context.Background(), cfg); err == nil || closeFn == nil {
		t.Fatalf("expected error without token and a non-nil close func")
	}

	cfg = base
	cfg.Provider = "markov"
	if _, _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

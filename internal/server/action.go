package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexadark/workshop-cityjs/internal/generate"
	"github.com/alexadark/workshop-cityjs/internal/models"
)

var (
	ErrMissingInput = errors.New("missing input")
	ErrUnknownTask  = errors.New("unknown task")
)

const (
	taskEdit     = "edit"
	taskDelete   = "delete"
	taskGenerate = "generate"
	taskPublish  = "publish"

	pathDashboard = "/dashboard"
	pathEditList  = "/edit-post"
)

// outcome carries both the navigation shown under the silent policy and the
// error, if any, that produced it.
type outcome struct {
	task     string
	body     any
	redirect string
	err      error
}

func envelope(p *models.Post) gin.H {
	return gin.H{"post": p}
}

func (s *Server) handleAction(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.respond(c, outcome{task: "form", body: envelope(nil), err: fmt.Errorf("%w: %v", ErrMissingInput, err)})
		return
	}
	form := c.Request.PostForm
	if strings.TrimSpace(form.Get("id")) == "" && c.Param("id") != "" {
		form.Set("id", c.Param("id"))
	}
	s.respond(c, s.dispatch(c.Request.Context(), form))
}

func (s *Server) dispatch(ctx context.Context, form url.Values) outcome {
	switch task := form.Get("task"); task {
	case taskEdit:
		return s.edit(ctx, form)
	case taskDelete:
		return s.delete(ctx, form)
	case taskGenerate:
		return s.generate(ctx, form)
	case taskPublish:
		return s.publish(ctx, form)
	default:
		return outcome{task: task, err: fmt.Errorf("%w: %q", ErrUnknownTask, task)}
	}
}

func (s *Server) edit(ctx context.Context, form url.Values) outcome {
	out := outcome{task: taskEdit, body: envelope(nil)}
	id := strings.TrimSpace(form.Get("id"))
	if id == "" || !form.Has("headline") || !form.Has("content") {
		out.err = fmt.Errorf("%w: edit needs id, headline and content", ErrMissingInput)
		return out
	}
	post, err := models.UpdatePost(ctx, s.DB, id, form.Get("headline"), form.Get("content"))
	if err != nil {
		out.err = err
		return out
	}
	log.Printf("[action] edit: post %s now %q (%s)", post.ID, post.Title, post.Slug)
	out.body = envelope(post)
	return out
}

func (s *Server) delete(ctx context.Context, form url.Values) outcome {
	out := outcome{task: taskDelete, body: envelope(nil)}
	id := strings.TrimSpace(form.Get("id"))
	if id == "" {
		out.err = fmt.Errorf("%w: delete needs id", ErrMissingInput)
		return out
	}
	post, err := models.DeletePost(ctx, s.DB, id)
	if err != nil {
		out.err = err
		return out
	}
	log.Printf("[action] delete: removed post %s %q", post.ID, post.Title)
	out.body = envelope(post)
	return out
}

func (s *Server) generate(ctx context.Context, form url.Values) outcome {
	out := outcome{task: taskGenerate, redirect: pathEditList}
	params := generate.Params{
		Subject:      form.Get("subject"),
		Style:        form.Get("style"),
		Tone:         form.Get("tone"),
		Purpose:      form.Get("purpose"),
		Keywords:     form.Get("keywords"),
		Length:       form.Get("length"),
		TargetReader: form.Get("targetReader"),
		Language:     form.Get("language"),
	}
	if strings.TrimSpace(params.Subject) == "" {
		out.err = fmt.Errorf("%w: generate needs a subject", ErrMissingInput)
		return out
	}
	if s.Generator == nil {
		out.err = fmt.Errorf("%w: no generator configured", generate.ErrUpstream)
		return out
	}
	res := generate.Run(ctx, s.Generator, s.DB, params, s.opts.GenerateTimeout)
	out.err = res.Err
	return out
}

func (s *Server) publish(ctx context.Context, form url.Values) outcome {
	out := outcome{task: taskPublish, redirect: pathDashboard}
	id := strings.TrimSpace(form.Get("id"))
	if id == "" {
		out.err = fmt.Errorf("%w: publish needs id", ErrMissingInput)
		return out
	}
	post, err := models.TogglePublish(ctx, s.DB, id)
	if err != nil {
		out.err = err
		return out
	}
	log.Printf("[action] publish: post %s published=%t", post.ID, post.Published)
	if post.Published {
		out.redirect = post.URL()
	}
	return out
}

func (s *Server) respond(c *gin.Context, out outcome) {
	if out.err != nil {
		log.Printf("[action] %s: %v", out.task, out.err)
		if errors.Is(out.err, ErrUnknownTask) {
			c.JSON(http.StatusBadRequest, gin.H{"error": out.err.Error()})
			return
		}
		if s.opts.Policy == PolicyExplicit {
			c.JSON(statusFor(out.err), gin.H{"error": out.err.Error()})
			return
		}
	}
	if out.redirect != "" {
		c.Redirect(http.StatusSeeOther, out.redirect)
		return
	}
	c.JSON(http.StatusOK, out.body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generate.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexadark/workshop-cityjs/internal/generate"
	"github.com/alexadark/workshop-cityjs/internal/models"
)

// ErrorPolicy decides what a failed action looks like to the browser.
type ErrorPolicy string

const (
	// PolicySilent logs failures and answers with the same navigation a
	// success would get (null post, redirect to a listing).
	PolicySilent ErrorPolicy = "silent"
	// PolicyExplicit answers failures with an HTTP error status.
	PolicyExplicit ErrorPolicy = "explicit"
)

type Options struct {
	Policy          ErrorPolicy
	ListingYear     int
	GenerateTimeout time.Duration
}

type Server struct {
	DB        *gorm.DB
	Generator generate.Generator

	opts   Options
	tmpl   map[string]*template.Template
	router *gin.Engine
}

var templateFuncs = template.FuncMap{
	// post content is editor markup and is rendered as is
	"safe": func(s string) template.HTML { return template.HTML(s) },
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

func New(db *gorm.DB, gen generate.Generator, templateDir string, opts Options) (*Server, error) {
	if opts.Policy == "" {
		opts.Policy = PolicySilent
	}
	if opts.ListingYear == 0 {
		opts.ListingYear = time.Now().Year()
	}

	templates := map[string]*template.Template{}
	layout := filepath.Join(templateDir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFiles(layout, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}

	s := &Server{DB: db, Generator: gen, opts: opts, tmpl: templates}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/years-posts") })
	r.GET("/years-posts", s.handleYearPosts)
	r.GET("/dashboard", s.handleDashboard)
	r.POST("/dashboard", s.handleAction)
	r.GET("/edit-post", s.handleEditList)
	r.POST("/edit-post", s.handleAction)
	r.GET("/edit-post/:id", s.handleEditPost)
	r.POST("/edit-post/:id", s.handleAction)
	r.GET("/:slug", s.handlePost)
	r.NoRoute(s.handleNotFound)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(c.Writer, "template not found", http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := t.ExecuteTemplate(c.Writer, "layout", data); err != nil {
		log.Printf("[server] render %s: %v", name, err)
	}
}

func (s *Server) handleYearPosts(c *gin.Context) {
	year := s.opts.ListingYear
	if q := c.Query("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil || y < 1 || y > 9999 {
			c.String(http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	posts, err := models.ListPublishedBetween(c.Request.Context(), s.DB, start, end)
	if err != nil {
		log.Printf("[server] years-posts %d: %v", year, err)
		c.String(http.StatusInternalServerError, "error")
		return
	}

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(http.StatusOK, gin.H{"posts": posts})
	default:
		s.render(c, http.StatusOK, "years_posts", map[string]any{
			"Year":  year,
			"Posts": posts,
		})
	}
}

func (s *Server) handleDashboard(c *gin.Context) {
	posts, err := models.ListPosts(c.Request.Context(), s.DB)
	if err != nil {
		log.Printf("[server] dashboard: %v", err)
		c.String(http.StatusInternalServerError, "error")
		return
	}
	s.render(c, http.StatusOK, "dashboard", map[string]any{"Posts": posts})
}

func (s *Server) handleEditList(c *gin.Context) {
	posts, err := models.ListPosts(c.Request.Context(), s.DB)
	if err != nil {
		log.Printf("[server] edit-post: %v", err)
		c.String(http.StatusInternalServerError, "error")
		return
	}
	s.render(c, http.StatusOK, "edit_list", map[string]any{"Posts": posts})
}

func (s *Server) handleEditPost(c *gin.Context) {
	post, err := models.GetPost(c.Request.Context(), s.DB, c.Param("id"))
	if err != nil {
		s.renderLookupError(c, "edit-post", err)
		return
	}
	s.render(c, http.StatusOK, "edit_post", map[string]any{"Post": post})
}

func (s *Server) handlePost(c *gin.Context) {
	post, err := models.GetPublishedBySlug(c.Request.Context(), s.DB, c.Param("slug"))
	if err != nil {
		s.renderLookupError(c, "post", err)
		return
	}
	s.render(c, http.StatusOK, "post", map[string]any{"Post": post})
}

func (s *Server) handleNotFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "not_found", nil)
}

func (s *Server) renderLookupError(c *gin.Context, page string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		s.handleNotFound(c)
		return
	}
	log.Printf("[server] %s: %v", page, err)
	c.String(http.StatusInternalServerError, "error")
}

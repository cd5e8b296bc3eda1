package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alexadark/workshop-cityjs/internal/slug"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrNotPersisted = errors.New("post not persisted")
)

// CreatePost stores a new unpublished post and returns it.
func CreatePost(ctx context.Context, db *gorm.DB, title, content string) (*Post, error) {
	now := time.Now().UTC()
	p := &Post{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      slug.Derive(title),
		Content:   content,
		Published: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("%w: create: %v", ErrNotPersisted, err)
	}
	return p, nil
}

// UpdatePost replaces title and content of post id and re-derives its slug.
func UpdatePost(ctx context.Context, db *gorm.DB, id, title, content string) (*Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	res := db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"slug":       slug.Derive(title),
		"content":    content,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: update %s: %v", ErrNotPersisted, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetPost(ctx, db, id)
}

// TogglePublish negates the published flag of post id in a single statement.
func TogglePublish(ctx context.Context, db *gorm.DB, id string) (*Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	res := db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Updates(map[string]any{
		"published":  gorm.Expr("NOT published"),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: toggle %s: %v", ErrNotPersisted, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetPost(ctx, db, id)
}

// DeletePost removes post id for good and returns its last stored state.
func DeletePost(ctx context.Context, db *gorm.DB, id string) (*Post, error) {
	p, err := GetPost(ctx, db, id)
	if err != nil {
		return nil, err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&Post{})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: delete %s: %v", ErrNotPersisted, id, res.Error)
	}
	// removed by someone else between the read and the delete
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

func GetPost(ctx context.Context, db *gorm.DB, id string) (*Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	var p Post
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetPublishedBySlug returns the newest published post carrying slug.
// Slugs are not unique, so older posts with the same title are shadowed.
func GetPublishedBySlug(ctx context.Context, db *gorm.DB, s string) (*Post, error) {
	var p Post
	err := db.WithContext(ctx).
		Where("slug = ? AND published = ?", s, true).
		Order("created_at DESC").Order("id DESC").
		Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPosts returns every post, newest first.
func ListPosts(ctx context.Context, db *gorm.DB) ([]Post, error) {
	var posts []Post
	err := db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error
	return posts, err
}

// ListPublishedBetween returns published posts created in [start, end),
// oldest first.
func ListPublishedBetween(ctx context.Context, db *gorm.DB, start, end time.Time) ([]PostSummary, error) {
	posts := []PostSummary{}
	err := db.WithContext(ctx).Model(&Post{}).
		Select("id", "title", "slug").
		Where("published = ?", true).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Order("created_at ASC").Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []PostSummary{}
	}
	return posts, nil
}

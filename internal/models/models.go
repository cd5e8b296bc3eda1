package models

import "time"

// Post is the only entity of the blog.
type Post struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Slug      string    `gorm:"not null;index" json:"slug"`
	Content   string    `gorm:"type:text" json:"content"`
	Published bool      `gorm:"not null" json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostSummary is the projection used by the public listing.
type PostSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// URL is the public path of the post.
func (p *Post) URL() string {
	return "/" + p.Slug
}

package models

import (
	"time"
)

// Article represents an article in the system
type Article struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Image     *string   `json:"image,omitempty" db:"image"`
	Tags      []string  `json:"tags" db:"tags"`
	AuthorID  string    `json:"author_id" db:"author_id"` // Immutable after creation
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleUpdate carries the fields present in an update payload.
// A nil field is left untouched; AuthorID is deliberately absent.
type ArticleUpdate struct {
	Title   *string
	Content *string
	Image   *string
	Tags    *[]string
}

// IsEmpty reports whether the update carries no field at all
func (u ArticleUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Image == nil && u.Tags == nil
}

// ArticleFilter narrows an article listing
type ArticleFilter struct {
	Tag      string
	AuthorID string
	Offset   int
	Limit    int
}

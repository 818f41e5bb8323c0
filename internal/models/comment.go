package models

import (
	"time"
)

// Comment represents a comment on an article. Comments are immutable once stored.
type Comment struct {
	ID              string    `json:"id" db:"id"`
	ArticleID       string    `json:"article_id" db:"article_id"`
	AuthorID        string    `json:"author_id" db:"author_id"`
	ParentCommentID *string   `json:"parent_comment_id" db:"parent_comment_id"` // nil for top-level comments
	Content         string    `json:"content" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// IsTopLevel reports whether the comment has no parent reference
func (c *Comment) IsTopLevel() bool {
	return c.ParentCommentID == nil
}

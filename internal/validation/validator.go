package validation

import (
	"fmt"
	"strings"

	"github.com/article-threads-api/internal/models"
	"github.com/google/uuid"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidID reports whether id is a well-formed identifier (canonical UUID)
func IsValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// CanonicalID returns id in the lowercase hyphenated form the store uses.
// Uppercase, braced, urn:uuid: and unhyphenated inputs are accepted.
func CanonicalID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// NewComment describes a comment creation request before any lookup
type NewComment struct {
	ArticleID       string
	AuthorID        string
	ParentCommentID string
	Content         string
}

// ValidateNewComment checks the request-local rules of a comment, in the order
// callers report them: content, author, article, parent.
func ValidateNewComment(c NewComment) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "Content is required"})
	}

	if !IsValidID(c.AuthorID) {
		errors = append(errors, ValidationError{Field: "author_id", Message: "Valid authorId is required", Value: c.AuthorID})
	}

	if !IsValidID(c.ArticleID) {
		errors = append(errors, ValidationError{Field: "article_id", Message: "Valid articleId is required", Value: c.ArticleID})
	}

	if c.ParentCommentID != "" && !IsValidID(c.ParentCommentID) {
		errors = append(errors, ValidationError{Field: "parent_comment_id", Message: "Invalid parentCommentId", Value: c.ParentCommentID})
	}

	return errors
}

// ValidateNewArticle validates an article creation payload
func ValidateNewArticle(title, content string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	return errors
}

// ValidateArticleUpdate validates the fields present in an update payload
func ValidateArticleUpdate(u models.ArticleUpdate) []ValidationError {
	var errors []ValidationError

	if u.IsEmpty() {
		errors = append(errors, ValidationError{Field: "body", Message: "no updatable field supplied"})
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title cannot be empty"})
	}
	if u.Content != nil && strings.TrimSpace(*u.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content cannot be empty"})
	}

	return errors
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma-separated tag list as sent by form uploads
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}

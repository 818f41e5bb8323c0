package service

import (
	"context"
	"strings"
	"time"

	"github.com/article-threads-api/internal/metrics"
	"github.com/article-threads-api/internal/models"
	"github.com/article-threads-api/internal/notify"
	"github.com/article-threads-api/internal/repository"
	"github.com/article-threads-api/internal/thread"
	"github.com/article-threads-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CommentInput is a comment creation request. AuthorID is already resolved
// from the principal (or the body fallback) by the caller.
type CommentInput struct {
	ArticleID       string
	AuthorID        string
	ParentCommentID string
	Content         string
}

// CommentService defines comment operations
type CommentService interface {
	CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error)
	ListThread(ctx context.Context, articleID string, page, limit int) (*thread.Page, error)
	GetSubtree(ctx context.Context, articleID, parentID string) (*thread.Node, error)
}

// CommentCreatedEvent is the comment.created payload
type CommentCreatedEvent struct {
	CommentID       string    `json:"commentId"`
	ArticleID       string    `json:"articleId"`
	ArticleAuthorID string    `json:"articleAuthorId"`
	Content         string    `json:"content"`
	AuthorID        string    `json:"authorId"`
	ParentCommentID *string   `json:"parentCommentId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// commentService is the concrete implementation of CommentService
type commentService struct {
	articles repository.ArticleRepository
	comments repository.CommentRepository
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func newCommentService(articles repository.ArticleRepository, comments repository.CommentRepository, notifier Notifier, log zerolog.Logger) *commentService {
	return &commentService{
		articles: articles,
		comments: comments,
		notifier: notifier,
		log:      log.With().Str("service", "comment").Logger(),
		now:      time.Now,
	}
}

// CreateComment validates, persists and announces a new comment
func (s *commentService) CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	if errs := validation.ValidateNewComment(validation.NewComment{
		ArticleID:       in.ArticleID,
		AuthorID:        in.AuthorID,
		ParentCommentID: in.ParentCommentID,
		Content:         in.Content,
	}); len(errs) > 0 {
		return nil, invalid(errs)
	}
	in.ArticleID, _ = validation.CanonicalID(in.ArticleID)
	in.AuthorID, _ = validation.CanonicalID(in.AuthorID)
	if in.ParentCommentID != "" {
		in.ParentCommentID, _ = validation.CanonicalID(in.ParentCommentID)
	}

	article, err := s.articles.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, persistenceError("Failed to load article", err)
	}
	if article == nil {
		return nil, notFoundError("Article not found")
	}

	var parentID *string
	if in.ParentCommentID != "" {
		parent, err := s.comments.GetByID(ctx, in.ParentCommentID)
		if err != nil {
			return nil, persistenceError("Failed to load parent comment", err)
		}
		if parent == nil {
			return nil, notFoundError("Parent comment not found")
		}
		if parent.ArticleID != in.ArticleID {
			return nil, validationError("Parent comment does not belong to the same article")
		}
		parentID = &parent.ID
	}

	comment := &models.Comment{
		ID:              uuid.New().String(),
		ArticleID:       in.ArticleID,
		AuthorID:        in.AuthorID,
		ParentCommentID: parentID,
		Content:         strings.TrimSpace(in.Content),
		CreatedAt:       s.now().UTC(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		s.log.Error().Err(err).Str("article_id", in.ArticleID).Msg("Failed to create comment")
		return nil, persistenceError("Failed to create comment", err)
	}
	metrics.CommentsCreated.Inc()

	s.announce(article, comment)

	return comment, nil
}

// announce hands the comment.created event to the notifier. Delivery is
// best-effort and never affects the caller.
func (s *commentService) announce(article *models.Article, comment *models.Comment) {
	if s.notifier == nil {
		return
	}

	event := CommentCreatedEvent{
		CommentID:       comment.ID,
		ArticleID:       comment.ArticleID,
		ArticleAuthorID: article.AuthorID,
		Content:         comment.Content,
		AuthorID:        comment.AuthorID,
		ParentCommentID: comment.ParentCommentID,
		CreatedAt:       comment.CreatedAt,
	}

	if !s.notifier.Dispatch(notify.TopicCommentCreated, event) {
		s.log.Warn().
			Str("topic", notify.TopicCommentCreated).
			Str("comment_id", comment.ID).
			Msg("comment.created notification not scheduled")
	}
}

// ListThread returns one page of the article's top-level comments, each with
// its full reply tree
func (s *commentService) ListThread(ctx context.Context, articleID string, page, limit int) (*thread.Page, error) {
	articleID, ok := validation.CanonicalID(articleID)
	if !ok {
		return nil, validationError("Valid articleId is required")
	}

	comments, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, persistenceError("Failed to load comments", err)
	}

	result := thread.Paginate(thread.Build(comments), page, limit)
	return &result, nil
}

// GetSubtree returns the parent comment with all of its descendants
func (s *commentService) GetSubtree(ctx context.Context, articleID, parentID string) (*thread.Node, error) {
	articleID, ok := validation.CanonicalID(articleID)
	if !ok {
		return nil, validationError("Valid articleId is required")
	}
	parentID, ok = validation.CanonicalID(parentID)
	if !ok {
		return nil, validationError("Invalid parentCommentId")
	}

	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, persistenceError("Failed to load parent comment", err)
	}
	if parent == nil || parent.ArticleID != articleID {
		return nil, notFoundError("Parent comment not found")
	}

	comments, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, persistenceError("Failed to load comments", err)
	}

	node, ok := thread.Locate(thread.Build(comments), parentID)
	if !ok {
		return nil, notFoundError("Parent comment not found")
	}
	return node, nil
}

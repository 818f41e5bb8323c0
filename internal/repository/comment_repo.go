package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/article-threads-api/internal/database"
	"github.com/article-threads-api/internal/models"
)

const tableComments = "comments"

const (
	commentFieldID        = "id"
	commentFieldArticleID = "article_id"
	commentFieldAuthorID  = "author_id"
	commentFieldParentID  = "parent_comment_id"
	commentFieldContent   = "content"
	commentFieldCreatedAt = "created_at"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldArticleID,
		commentFieldAuthorID,
		commentFieldParentID,
		commentFieldContent,
		commentFieldCreatedAt,
	}
}

func scanComment(row sq.RowScanner) (*models.Comment, error) {
	var comment models.Comment
	var parentID sql.NullString

	err := row.Scan(
		&comment.ID,
		&comment.ArticleID,
		&comment.AuthorID,
		&parentID,
		&comment.Content,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		comment.ParentCommentID = &parentID.String
	}
	return &comment, nil
}

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	q := psql.Insert(tableComments).
		Columns(commentColumns()...).
		Values(
			comment.ID,
			comment.ArticleID,
			comment.AuthorID,
			comment.ParentCommentID,
			comment.Content,
			comment.CreatedAt,
		).
		RunWith(r.db.DB)

	if _, err := q.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	q := psql.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: id}).
		RunWith(r.db.DB)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

// ListByArticle returns every comment of an article, newest first
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	q := psql.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldArticleID: articleID}).
		OrderBy(commentFieldCreatedAt + " DESC").
		RunWith(r.db.DB)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/article-threads-api/internal/database"
	"github.com/article-threads-api/internal/models"
	"github.com/lib/pq"
)

const tableArticles = "articles"

const (
	articleFieldID        = "id"
	articleFieldTitle     = "title"
	articleFieldContent   = "content"
	articleFieldImage     = "image"
	articleFieldTags      = "tags"
	articleFieldAuthorID  = "author_id"
	articleFieldCreatedAt = "created_at"
	articleFieldUpdatedAt = "updated_at"
)

func articleColumns() []string {
	return []string{
		articleFieldID,
		articleFieldTitle,
		articleFieldContent,
		articleFieldImage,
		articleFieldTags,
		articleFieldAuthorID,
		articleFieldCreatedAt,
		articleFieldUpdatedAt,
	}
}

func scanArticle(row sq.RowScanner) (*models.Article, error) {
	var article models.Article
	var image sql.NullString

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&image,
		pq.Array(&article.Tags),
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if image.Valid {
		article.Image = &image.String
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}
	return &article, nil
}

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	tags := article.Tags
	if tags == nil {
		tags = []string{}
	}

	q := psql.Insert(tableArticles).
		Columns(articleColumns()...).
		Values(
			article.ID,
			article.Title,
			article.Content,
			article.Image,
			pq.Array(tags),
			article.AuthorID,
			article.CreatedAt,
			article.UpdatedAt,
		).
		RunWith(r.db.DB)

	if _, err := q.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	q := psql.Select(articleColumns()...).
		From(tableArticles).
		Where(sq.Eq{articleFieldID: id}).
		RunWith(r.db.DB)

	article, err := scanArticle(q.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// List returns articles newest first, narrowed by the filter
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	q := psql.Select(articleColumns()...).
		From(tableArticles).
		OrderBy(articleFieldCreatedAt + " DESC")

	if filter.Tag != "" {
		q = q.Where(sq.Expr("? = ANY("+articleFieldTags+")", filter.Tag))
	}
	if filter.AuthorID != "" {
		q = q.Where(sq.Eq{articleFieldAuthorID: filter.AuthorID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	rows, err := q.RunWith(r.db.DB).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// Update overwrites the fields present in update and returns the stored
// article, or nil when it does not exist. author_id is never written.
func (r *articleRepo) Update(ctx context.Context, id string, update models.ArticleUpdate) (*models.Article, error) {
	q := psql.Update(tableArticles).
		Set(articleFieldUpdatedAt, time.Now().UTC()).
		Where(sq.Eq{articleFieldID: id}).
		Suffix("RETURNING " + strings.Join(articleColumns(), ", "))

	if update.Title != nil {
		q = q.Set(articleFieldTitle, *update.Title)
	}
	if update.Content != nil {
		q = q.Set(articleFieldContent, *update.Content)
	}
	if update.Image != nil {
		q = q.Set(articleFieldImage, *update.Image)
	}
	if update.Tags != nil {
		tags := *update.Tags
		if tags == nil {
			tags = []string{}
		}
		q = q.Set(articleFieldTags, pq.Array(tags))
	}

	article, err := scanArticle(q.RunWith(r.db.DB).QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return article, nil
}

// Delete removes an article; its comments go with it (ON DELETE CASCADE)
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	q := psql.Delete(tableArticles).
		Where(sq.Eq{articleFieldID: id}).
		RunWith(r.db.DB)

	if _, err := q.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

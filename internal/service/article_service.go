package service

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/article-threads-api/internal/authz"
	"github.com/article-threads-api/internal/models"
	"github.com/article-threads-api/internal/repository"
	"github.com/article-threads-api/internal/storage"
	"github.com/article-threads-api/internal/thread"
	"github.com/article-threads-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultArticleLimit is the page size of an article listing without limit
const DefaultArticleLimit = 10

// ArticleInput is an article creation request
type ArticleInput struct {
	Title   string
	Content string
	Tags    []string
	Image   *multipart.FileHeader
}

// ArticleChanges carries the fields present in an update request. ImageFile,
// when set, replaces Image with the stored upload's reference.
type ArticleChanges struct {
	Title     *string
	Content   *string
	Tags      *[]string
	Image     *string
	ImageFile *multipart.FileHeader
}

// ArticleQuery narrows an article listing
type ArticleQuery struct {
	Tag    string
	Author string
	Page   int
	Limit  int
}

// ArticleService defines article operations
type ArticleService interface {
	Create(ctx context.Context, p *models.Principal, in ArticleInput) (*models.Article, error)
	List(ctx context.Context, q ArticleQuery) ([]*models.Article, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, p *models.Principal, id string, changes ArticleChanges) (*models.Article, error)
	Delete(ctx context.Context, p *models.Principal, id string) error
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles repository.ArticleRepository
	files    storage.Provider
	log      zerolog.Logger
	now      func() time.Time
}

func newArticleService(articles repository.ArticleRepository, files storage.Provider, log zerolog.Logger) *articleService {
	return &articleService{
		articles: articles,
		files:    files,
		log:      log.With().Str("service", "article").Logger(),
		now:      time.Now,
	}
}

// Create stores a new article authored by the principal
func (s *articleService) Create(ctx context.Context, p *models.Principal, in ArticleInput) (*models.Article, error) {
	if p == nil || p.ID == "" {
		return nil, forbiddenError()
	}
	authorID, ok := validation.CanonicalID(p.ID)
	if !ok {
		return nil, validationError("Valid authorId is required")
	}
	if errs := validation.ValidateNewArticle(in.Title, in.Content); len(errs) > 0 {
		return nil, invalid(errs)
	}

	var image *string
	if in.Image != nil {
		url, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		image = &url
	}

	now := s.now().UTC()
	article := &models.Article{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Image:     image,
		Tags:      validation.NormalizeTags(in.Tags),
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.articles.Create(ctx, article); err != nil {
		s.log.Error().Err(err).Str("author_id", p.ID).Msg("Failed to create article")
		return nil, persistenceError("Failed to create article", err)
	}

	s.log.Info().Str("article_id", article.ID).Str("author_id", p.ID).Msg("Article created")
	return article, nil
}

// List returns articles newest first
func (s *articleService) List(ctx context.Context, q ArticleQuery) ([]*models.Article, error) {
	if q.Author != "" {
		author, ok := validation.CanonicalID(q.Author)
		if !ok {
			return nil, validationError("Invalid author id")
		}
		q.Author = author
	}

	if q.Limit == 0 {
		q.Limit = DefaultArticleLimit
	}
	page, limit := thread.Clamp(q.Page, q.Limit)

	articles, err := s.articles.List(ctx, models.ArticleFilter{
		Tag:      strings.TrimSpace(q.Tag),
		AuthorID: q.Author,
		Offset:   listOffset(page, limit),
		Limit:    limit,
	})
	if err != nil {
		return nil, persistenceError("Failed to list articles", err)
	}
	return articles, nil
}

// Get returns a single article
func (s *articleService) Get(ctx context.Context, id string) (*models.Article, error) {
	return s.load(ctx, id)
}

// Update overwrites the supplied fields of an article the principal may edit.
// The author never changes.
func (s *articleService) Update(ctx context.Context, p *models.Principal, id string, changes ArticleChanges) (*models.Article, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanUpdateArticle(p, article) {
		return nil, forbiddenError()
	}

	update := models.ArticleUpdate{
		Title:   changes.Title,
		Content: changes.Content,
		Image:   changes.Image,
	}
	if changes.Tags != nil {
		tags := validation.NormalizeTags(*changes.Tags)
		update.Tags = &tags
	}
	if changes.ImageFile != nil {
		// placeholder so the upload counts as a present field
		update.Image = new(string)
	}
	if errs := validation.ValidateArticleUpdate(update); len(errs) > 0 {
		return nil, invalid(errs)
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		update.Title = &title
	}

	if changes.ImageFile != nil {
		url, err := s.saveImage(ctx, changes.ImageFile)
		if err != nil {
			return nil, err
		}
		update.Image = &url
	}

	updated, err := s.articles.Update(ctx, article.ID, update)
	if err != nil {
		s.log.Error().Err(err).Str("article_id", id).Msg("Failed to update article")
		return nil, persistenceError("Failed to update article", err)
	}
	if updated == nil {
		// deleted concurrently
		return nil, notFoundError("Not found")
	}
	return updated, nil
}

// Delete removes an article. Only admins may delete.
func (s *articleService) Delete(ctx context.Context, p *models.Principal, id string) error {
	article, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanDeleteArticle(p) {
		return forbiddenError()
	}

	if err := s.articles.Delete(ctx, article.ID); err != nil {
		s.log.Error().Err(err).Str("article_id", id).Msg("Failed to delete article")
		return persistenceError("Failed to delete article", err)
	}

	s.log.Info().Str("article_id", id).Str("principal_id", p.ID).Msg("Article deleted")
	return nil
}

func (s *articleService) load(ctx context.Context, id string) (*models.Article, error) {
	id, ok := validation.CanonicalID(id)
	if !ok {
		return nil, validationError("Invalid article id")
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError("Failed to load article", err)
	}
	if article == nil {
		return nil, notFoundError("Not found")
	}
	return article, nil
}

func (s *articleService) saveImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.files == nil {
		return "", validationError("Image uploads are not enabled")
	}

	url, err := s.files.Save(ctx, file)
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return "", validationError("Only image uploads allowed")
	case errors.Is(err, storage.ErrTooLarge):
		return "", validationError("File too large")
	case err != nil:
		s.log.Error().Err(err).Str("filename", file.Filename).Msg("Failed to store upload")
		return "", persistenceError("Failed to store image", err)
	}
	return url, nil
}

// listOffset computes (page-1)*limit without overflowing
func listOffset(page, limit int) int {
	if page-1 > math.MaxInt32/limit {
		return math.MaxInt32
	}
	return (page - 1) * limit
}

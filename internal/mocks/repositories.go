package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/article-threads-api/internal/models"
	"github.com/article-threads-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
)

// MockArticleRepository is an in-memory ArticleRepository
type MockArticleRepository struct {
	mu       sync.Mutex
	Articles map[string]*models.Article

	// Err, when set, is returned by every call
	Err         error
	UpdateCalls int
	DeleteCalls int
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Articles[article.ID] = cloneArticle(article)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	matched := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		if filter.Tag != "" && !slices.Contains(a.Tags, filter.Tag) {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		matched = append(matched, cloneArticle(a))
	}
	slices.SortFunc(matched, func(a, b *models.Article) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*models.Article{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, id string, update models.ArticleUpdate) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	if update.Title != nil {
		a.Title = *update.Title
	}
	if update.Content != nil {
		a.Content = *update.Content
	}
	if update.Image != nil {
		image := *update.Image
		a.Image = &image
	}
	if update.Tags != nil {
		a.Tags = slices.Clone(*update.Tags)
	}
	a.UpdatedAt = time.Now().UTC()
	return cloneArticle(a), nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.Err != nil {
		return m.Err
	}
	delete(m.Articles, id)
	return nil
}

func cloneArticle(a *models.Article) *models.Article {
	c := *a
	c.Tags = slices.Clone(a.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// MockCommentRepository is an in-memory CommentRepository
type MockCommentRepository struct {
	mu       sync.Mutex
	Comments map[string]*models.Comment

	// CreateErr fails inserts; Err fails every call
	CreateErr   error
	Err         error
	CreateCalls int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.Err != nil {
		return m.Err
	}
	if m.CreateErr != nil {
		return m.CreateErr
	}
	c := *comment
	m.Comments[c.ID] = &c
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*models.Comment, 0)
	for _, c := range m.Comments {
		if c.ArticleID == articleID {
			cc := *c
			out = append(out, &cc)
		}
	}
	slices.SortFunc(out, func(a, b *models.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

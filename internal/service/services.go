package service

import (
	"github.com/article-threads-api/internal/repository"
	"github.com/article-threads-api/internal/storage"
	"github.com/rs/zerolog"
)

// Notifier schedules a best-effort publication. It reports false when the
// publication was dropped; callers never wait for delivery.
type Notifier interface {
	Dispatch(topic string, payload any) bool
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	Comment CommentService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, notifier Notifier, files storage.Provider, log zerolog.Logger) *Services {
	return &Services{
		Article: newArticleService(repos.Article, files, log),
		Comment: newCommentService(repos.Article, repos.Comment, notifier, log),
	}
}

package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/article-threads-api/internal/auth"
	"github.com/article-threads-api/internal/service"
	"github.com/article-threads-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// tagList accepts either a JSON array of tags or a comma-separated string
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("tags must be an array of strings or a comma-separated string")
	}
	*t = validation.SplitTags(raw)
	return nil
}

// articleRequest is the create/update payload. Absent fields stay nil;
// any author field in the body is ignored.
type articleRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    *tagList `json:"tags"`
	Image   *string  `json:"image"`
}

// bindArticle reads a JSON body or a multipart form with an optional
// "image" file
func bindArticle(c *gin.Context) (articleRequest, *multipart.FileHeader, error) {
	var req articleRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	if v, ok := c.GetPostForm("title"); ok {
		req.Title = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		req.Content = &v
	}
	if v, ok := c.GetPostForm("tags"); ok {
		tags := tagList(validation.SplitTags(v))
		req.Tags = &tags
	}

	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return req, nil, err
	}
	return req, file, nil
}

// CreateArticle handles POST /api/articles
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	req, file, err := bindArticle(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	in := service.ArticleInput{Image: file}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Content != nil {
		in.Content = *req.Content
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}

	article, err := h.services.Article.Create(c.Request.Context(), auth.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, article)
}

// ListArticles handles GET /api/articles
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	articles, err := h.services.Article.List(c.Request.Context(), service.ArticleQuery{
		Tag:    c.Query("tag"),
		Author: c.Query("author"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

// GetArticle handles GET /api/articles/:id
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// UpdateArticle handles PUT /api/articles/:id
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	req, file, err := bindArticle(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	changes := service.ArticleChanges{
		Title:     req.Title,
		Content:   req.Content,
		Image:     req.Image,
		ImageFile: file,
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		changes.Tags = &tags
	}

	article, err := h.services.Article.Update(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"), changes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/articles/:id
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
}

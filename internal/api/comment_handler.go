package api

import (
	"net/http"
	"strconv"

	"github.com/article-threads-api/internal/auth"
	"github.com/article-threads-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Comment listing defaults
const (
	defaultCommentPage  = 1
	defaultCommentLimit = 20
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

type createCommentRequest struct {
	Content         string `json:"content"`
	AuthorID        string `json:"authorId"`
	ParentCommentID string `json:"parentCommentId"`
}

// CreateComment handles POST /api/articles/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// The authenticated principal wins over any authorId in the body
	authorID := req.AuthorID
	if p := auth.PrincipalFrom(c); p != nil && p.ID != "" {
		authorID = p.ID
	}

	comment, err := h.services.Comment.CreateComment(c.Request.Context(), service.CommentInput{
		ArticleID:       c.Param("id"),
		AuthorID:        authorID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /api/articles/:id/comments. With
// ?parentCommentId it returns that comment's subtree, otherwise a page of
// top-level comments with their replies.
func (h *CommentHandler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	articleID := c.Param("id")

	if parentID := c.Query("parentCommentId"); parentID != "" {
		node, err := h.services.Comment.GetSubtree(ctx, articleID, parentID)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, node)
		return
	}

	page := queryInt(c, "page", defaultCommentPage)
	limit := queryInt(c, "limit", defaultCommentLimit)

	result, err := h.services.Comment.ListThread(ctx, articleID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// queryInt parses a query parameter, using def when it is absent,
// unparseable or zero
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v == 0 {
		return def
	}
	return v
}

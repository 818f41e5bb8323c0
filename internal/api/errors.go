package api

import (
	"errors"
	"net/http"

	"github.com/article-threads-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError maps a service error onto a status and {"error": message}.
// Underlying store errors are logged, never returned.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	switch svcErr.Kind {
	case service.KindValidation:
		body := gin.H{"error": svcErr.Message}
		if len(svcErr.Fields) > 0 {
			body["details"] = svcErr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": svcErr.Message})
	case service.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": svcErr.Message})
	default:
		log.Error().Err(svcErr.Err).Str("kind", svcErr.Kind.String()).Str("path", c.Request.URL.Path).Msg(svcErr.Message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": svcErr.Message})
	}
}

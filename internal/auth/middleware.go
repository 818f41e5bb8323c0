package auth

import (
	"errors"
	"net/http"

	"github.com/article-threads-api/internal/models"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Optional attaches the principal when a valid token is presented and
// otherwise lets the request through anonymously
func Optional(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := BearerToken(c.GetHeader("Authorization")); ok {
			if p, err := resolver.Resolve(token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// Required rejects the request with 401 unless a valid token is presented
func Required(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c) != nil {
			c.Next()
			return
		}

		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		p, err := resolver.Resolve(token)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, ErrMissingToken) {
				msg = "Missing or invalid Authorization header"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal attached to the request, or nil
func PrincipalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

// Package auth resolves the request principal from a bearer token.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/article-threads-api/internal/models"
	"github.com/article-threads-api/internal/validation"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken means no usable Bearer credential was presented
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken means the credential failed verification
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Resolver turns a verified credential into a principal
type Resolver interface {
	Resolve(token string) (*models.Principal, error)
}

// JWTResolver verifies HMAC-signed JWTs
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver creates a resolver for tokens signed with secret. With an
// empty secret every token is rejected.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve verifies the token and extracts {sub, role}. The role comes from
// the "role" claim, or the most privileged entry of a legacy "roles" array.
// Unknown roles resolve to models.RoleNone, which no policy allows.
func (r *JWTResolver) Resolve(tokenString string) (*models.Principal, error) {
	if len(r.secret) == 0 {
		return nil, ErrInvalidToken
	}
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, ErrInvalidToken
	}

	if id, ok := validation.CanonicalID(sub); ok {
		sub = id
	}

	return &models.Principal{ID: sub, Role: roleFromClaims(claims)}, nil
}

func roleFromClaims(claims jwt.MapClaims) models.Role {
	if raw, ok := claims["role"].(string); ok {
		role, _ := models.ParseRole(raw)
		return role
	}

	list, ok := claims["roles"].([]any)
	if !ok {
		return models.RoleNone
	}
	values := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return models.HighestRole(values)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

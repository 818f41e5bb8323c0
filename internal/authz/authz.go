// Package authz holds the role-based policy that gates article mutation.
package authz

import "github.com/article-threads-api/internal/models"

// CanUpdateArticle allows admins and editors on any article, and writers on
// articles they authored. Everything else is denied.
func CanUpdateArticle(p *models.Principal, article *models.Article) bool {
	if p == nil || p.ID == "" {
		return false
	}

	switch p.Role {
	case models.RoleAdmin, models.RoleEditor:
		return true
	case models.RoleWriter:
		return article != nil && article.AuthorID == p.ID
	default:
		return false
	}
}

// CanDeleteArticle is admin-only regardless of authorship.
func CanDeleteArticle(p *models.Principal) bool {
	return p.Is(models.RoleAdmin)
}

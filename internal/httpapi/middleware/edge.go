package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/access"
	"github.com/notsoai/dashboard/internal/session"
)

// EdgeGuard applies page-level routing before any page handler runs.
func EdgeGuard(resolver *session.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := resolver.FromRequest(c.Request)
		d := access.Route(c.Request.URL.Path, c.Request.URL.RawQuery, res)
		if !d.Pass() {
			c.Redirect(http.StatusTemporaryRedirect, d.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}

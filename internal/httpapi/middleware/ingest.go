package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notsoai/dashboard/internal/auth"
	"github.com/notsoai/dashboard/internal/common"
)

const IngestClaimsKey = "ingest_claims"

// IngestAuth requires a valid ingest bearer token.
func IngestAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseIngestToken(tok, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token")
			return
		}
		c.Set(IngestClaimsKey, claims)
		c.Next()
	}
}

func IngestClaimsFrom(c *gin.Context) (*auth.IngestClaims, bool) {
	v, ok := c.Get(IngestClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.IngestClaims)
	return claims, ok
}

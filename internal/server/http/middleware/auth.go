package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/orderpay/internal/pkg/auth"
)

const adminTokenHeader = "X-Admin-Token"

// AdminRequired guards operator endpoints with a bearer token.
func AdminRequired(verifier pkgAuth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := verifier.Verify(extractToken(c))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, pkgAuth.ErrInvalidToken):
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatus(http.StatusUnauthorized)
		case errors.Is(err, pkgAuth.ErrAdminDisabled):
			c.AbortWithStatus(http.StatusForbidden)
		default:
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.GetHeader(adminTokenHeader))
}

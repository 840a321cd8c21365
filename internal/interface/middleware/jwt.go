package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// AccessToken reads the access token from the access_token cookie, falling back to
// an Authorization: Bearer header.
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
		return token
	}
	return bearer(c)
}

// RefreshToken reads the refresh token from its cookie or a Bearer header.
func RefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.RefreshCookie); err == nil && token != "" {
		return token
	}
	return bearer(c)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/Super-Badmen-Viper/songrank/api/controller"
	"github.com/Super-Badmen-Viper/songrank/internal/tokenutil"
	"github.com/gin-gonic/gin"
)

func JwtAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		scheme, authToken, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || authToken == "" {
			controller.ErrorResponse(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
			return
		}

		subject, err := tokenutil.ExtractSubjectFromToken(authToken, secret)
		if err != nil {
			controller.ErrorResponse(c, http.StatusUnauthorized, "NOT_AUTHORIZED", err.Error())
			return
		}
		c.Set("x-subject", subject)
		c.Next()
	}
}
